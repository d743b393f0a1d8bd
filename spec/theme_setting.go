// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package spec

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/trireel/errs"
)

// TID 是主題 ID。
type TID uint

// ThemeSetting 包含建立一個遊戲 Session 所需的所有設定。
type ThemeSetting struct {
	ThemeName string         `yaml:"theme_name" json:"theme_name"`
	ThemeID   TID            `yaml:"theme_id"   json:"theme_id"`
	Symbols   []SymbolDef    `yaml:"symbols"    json:"symbols"`
	Timing    TimingSetting  `yaml:"timing"     json:"timing"`
	Catalog   *SymbolSetting `yaml:"-"          json:"-"`
}

// init 建立符號目錄並檢查時間軸
func (ts *ThemeSetting) init() error {
	ts.ThemeName = strings.TrimSpace(ts.ThemeName)
	if ts.ThemeName == "" {
		return errs.NewFatal("theme_name required")
	}
	cat, err := NewSymbolSetting(ts.Symbols)
	if err != nil {
		return errs.WrapWithExtra(err, "invalid symbols", ts.ThemeName)
	}
	if err := ts.Timing.Init(); err != nil {
		return errs.WrapWithExtra(err, "invalid timing", ts.ThemeName)
	}
	ts.Catalog = cat
	ts.Symbols = cat.Defs()
	return nil
}

// NewThemeSetting 以程式碼直接建立主題（測試與內建主題使用）。
func NewThemeSetting(name string, id TID, symbols []SymbolDef, timing TimingSetting) (*ThemeSetting, error) {
	ts := &ThemeSetting{ThemeName: name, ThemeID: id, Symbols: symbols, Timing: timing}
	if err := ts.init(); err != nil {
		return nil, err
	}
	return ts, nil
}

// MustThemeSetting 同 NewThemeSetting，失敗時 panic。
func MustThemeSetting(name string, id TID, symbols []SymbolDef, timing TimingSetting) *ThemeSetting {
	ts, err := NewThemeSetting(name, id, symbols, timing)
	if err != nil {
		panic(fmt.Sprintf("spec: %v", err))
	}
	return ts
}
