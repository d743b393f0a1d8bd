package spec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/zintix-labs/trireel/errs"
	"gopkg.in/yaml.v3"
)

// GetThemeSettingByYAML
// 會讀取 YAML 設定、建立符號目錄並執行基本檢查後回傳。
// 未知欄位視為錯誤（拼錯 key 不會被默默忽略）。
func GetThemeSettingByYAML(data []byte) (*ThemeSetting, error) {
	ts := &ThemeSetting{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(ts); err != nil && !errors.Is(err, io.EOF) {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}

	// 設定檔初始化
	if err := ts.init(); err != nil {
		return nil, errs.Wrap(err, "theme setting initialized err")
	}

	return ts, nil
}

// GetThemeSettingByJSON
// 會讀取 Json 設定、建立符號目錄並執行基本檢查後回傳
func GetThemeSettingByJSON(data []byte) (*ThemeSetting, error) {
	ts := &ThemeSetting{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(ts); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}

	// 設定檔初始化
	if err := ts.init(); err != nil {
		return nil, errs.Wrap(err, "theme setting initialized err")
	}

	return ts, nil
}
