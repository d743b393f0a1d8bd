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

// Package settings 保存玩家設定（倍率、必中旗標、音效開關）。
//
// 儲存屬於 best-effort：讀取失敗時回到預設值，單一欄位不合法時只重設該欄位，
// 寫入失敗只記錄，不影響遊戲流程。
package settings

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/sdk/odds"
)

// Settings 是持久化的玩家設定，JSON key 與舊版存檔相容。
type Settings struct {
	OddsMultiplier float64 `json:"odds_multiplier"`
	GuaranteedWin  bool    `json:"guaranteed_win"`
	SoundEnabled   bool    `json:"sound_enabled"`
}

// Default 回傳預設設定（倍率 1.0、必中關閉、音效開啟）。
func Default() Settings {
	return Settings{OddsMultiplier: 1.0, GuaranteedWin: false, SoundEnabled: true}
}

// Valid 檢查設定值是否可用。
func (s Settings) Valid() error {
	if err := odds.ValidMultiplier(s.OddsMultiplier); err != nil {
		return errs.Wrap(err, "invalid odds_multiplier")
	}
	return nil
}

// Repair 把不合法的倍率換回預設值，其他欄位保留。
// 有欄位被重設時回傳 Warn 錯誤說明原因。
func (s Settings) Repair() (Settings, error) {
	err := s.Valid()
	if err != nil {
		s.OddsMultiplier = Default().OddsMultiplier
	}
	return s, err
}

// Store 是設定的儲存介面。
//
// Load 回傳的 Settings 一律可直接使用；err 不為 nil 時說明哪些值是預設值。
type Store interface {
	Load() (Settings, error)
	Save(Settings) error
}

// ErrNotFound 代表尚未有任何存檔。
var ErrNotFound = errs.NewLog("settings not found")

// Decode 解析 JSON 存檔。缺少的欄位沿用預設值，倍率不合法時只重設倍率。
func Decode(raw []byte) (Settings, error) {
	s := Default()
	if err := json.Unmarshal(raw, &s); err != nil {
		return Default(), errs.Wrap(err, "decode settings")
	}
	return s.Repair()
}

// MemStore 把設定存在記憶體中，適合測試與 HTTP session。
type MemStore struct {
	mu    sync.Mutex
	data  *Settings
	saves int
	// FailSave 不為 nil 時 Save 回傳此錯誤
	FailSave error
}

// NewMemStore 建立記憶體儲存；initial 為 nil 時視為尚未存檔。
func NewMemStore(initial *Settings) *MemStore {
	m := &MemStore{}
	if initial != nil {
		cp := *initial
		m.data = &cp
	}
	return m
}

func (m *MemStore) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return Default(), ErrNotFound
	}
	return m.data.Repair()
}

func (m *MemStore) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	cp := s
	m.data = &cp
	m.saves++
	return nil
}

// Saves 回傳成功寫入的次數。
func (m *MemStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// FileStore 以單一 JSON 檔保存設定，寫入時先寫暫存檔再 rename。
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore 建立檔案儲存，path 的目錄不存在時於第一次 Save 建立。
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath 回傳使用者設定目錄下的預設存檔位置。
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errs.Wrap(err, "resolve user config dir")
	}
	return filepath.Join(dir, "trireel", "settings.json"), nil
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load() (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), ErrNotFound
		}
		return Default(), errs.WrapWithExtra(err, "read settings", f.path)
	}
	return Decode(raw)
}

func (f *FileStore) Save(s Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errs.Wrap(err, "encode settings")
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.WrapWithExtra(err, "create settings dir", dir)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return errs.WrapWithExtra(err, "create temp settings", dir)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(raw, '\n')); err != nil {
		tmp.Close()
		return errs.WrapWithExtra(err, "write temp settings", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errs.WrapWithExtra(err, "close temp settings", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errs.WrapWithExtra(err, "replace settings", f.path)
	}
	return nil
}
