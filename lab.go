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

// Package trireel 提供三轉輪拉霸的組裝入口。
//
// Lab 把兩個地基組裝在一起，並提供建立 Session 與 Simulator 的入口：
//  1. Catalog：主題目錄，定義有哪些主題、各自對應的設定檔名稱（ConfigName）。
//  2. PRNGFactory：亂數核心工廠，同一個 seed 會得到同一組抽樣序列。
//
// Lab 本身不綁定任何檔案路徑：設定檔來源一律以 fs.FS 注入（go:embed 或 os.DirFS）。
//
// 典型使用情境：
//   - 終端機遊戲：由 Lab 建立一個 Session，交給 presenter 播放。
//   - 後端服務：由 Runtime 依玩家建立 Session，放在有期限的快取內。
//   - 模擬器：由 Lab 建立 Simulator，以多個 Session 平行模擬。
package trireel

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zintix-labs/trireel/catalog"
	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/sdk/core"
	"github.com/zintix-labs/trireel/sdk/reel"
	"github.com/zintix-labs/trireel/spec"
)

// Configs 用來把一或多個設定檔來源打包成 New() 需要的參數。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Lab 是組裝器與運行入口。
//
// 使用流程分成兩階段：
//   - 註冊階段：建立 catalog、掃描設定檔、檢查重複。
//   - 執行階段：Freeze 之後依主題 ID 建立 Session 或 Simulator。
//
// 主題 ID 的唯一性只保證在同一個 Lab 內。
type Lab struct {
	cat *catalog.Catalog
	pf  core.PRNGFactory
	sum []catalog.Summary

	mu     sync.Mutex
	themes map[spec.TID]*spec.ThemeSetting
}

// New 建立一個 Lab（註冊階段）。pf 為 nil 時使用 core.Default()。
func New(pf core.PRNGFactory, cfgs []fs.FS) (*Lab, error) {
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	if pf == nil {
		pf = core.Default()
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	return &Lab{
		cat:    cata,
		pf:     pf,
		themes: make(map[spec.TID]*spec.ThemeSetting),
	}, nil
}

// NewAuto 註冊所有設定檔並直接進入執行階段。
func NewAuto(pf core.PRNGFactory, cfgs []fs.FS) (*Lab, error) {
	lab, err := New(pf, cfgs)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (l *Lab) Register(ents ...catalog.Entry) error {
	return l.cat.Register(ents...)
}

// RegisterAll 解析所有設定檔，並用檔內宣告的 theme_id / theme_name 批次註冊。
//
//  1. 任何一個檔案解析失敗都立刻回傳 error。
//  2. 全部成功才呼叫一次 Register，不會留下註冊一半的目錄。
//  3. 依檔名排序處理，結果固定。
func (l *Lab) RegisterAll() error {
	names := l.cat.Cfg().Names()
	if len(names) == 0 {
		return errs.NewFatal("no config files found to register")
	}

	entries := make([]catalog.Entry, 0, len(names))
	seenID := map[spec.TID]string{}
	seenName := map[string]string{}

	for _, base := range names {
		if strings.HasPrefix(filepath.Base(base), ".") {
			continue
		}
		src, _ := l.cat.Cfg().GetFS(base)
		raw, err := fs.ReadFile(src, base)
		if err != nil {
			return errs.WrapWithExtra(err, "read config failed", base)
		}
		ts, err := catalog.ParseThemeSetting(base, raw)
		if err != nil {
			return errs.Wrap(err, fmt.Sprintf("parse theme setting failed: %s", base))
		}

		name := strings.TrimSpace(ts.ThemeName)
		if name == "" {
			return errs.NewFatal(fmt.Sprintf("theme name required: %s", base))
		}
		id := ts.ThemeID
		if prev, ok := seenID[id]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate theme id: %d (config=%s and %s)", id, prev, base))
		}
		if _, ok := l.cat.GetByID(id); ok {
			return errs.NewFatal(fmt.Sprintf("theme id already registered: %d (config=%s)", id, base))
		}
		seenID[id] = base

		key := strings.ToLower(name)
		if prev, ok := seenName[key]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate theme name: %s (config=%s and %s)", key, prev, base))
		}
		if _, ok := l.cat.GetByName(name); ok {
			return errs.NewFatal(fmt.Sprintf("theme name already registered: %s (config=%s)", name, base))
		}
		seenName[key] = base

		entries = append(entries, catalog.Entry{TID: id, Name: name, ConfigName: base})
	}
	if len(entries) == 0 {
		return errs.NewFatal("no config files found to register")
	}
	return l.cat.Register(entries...)
}

func (l *Lab) Freeze() { l.cat.Freeze() }

func (l *Lab) EntryByID(id spec.TID) (catalog.Entry, bool) { return l.cat.GetByID(id) }

func (l *Lab) EntryByName(name string) (catalog.Entry, bool) { return l.cat.GetByName(name) }

func (l *Lab) IDs() []spec.TID { return l.cat.IDs() }

func (l *Lab) All() []catalog.Entry { return l.cat.All() }

// Factory 回傳 Lab 使用的 PRNG 工廠。
func (l *Lab) Factory() core.PRNGFactory { return l.pf }

// Summary 列出所有主題（需先 Freeze）。
func (l *Lab) Summary() ([]catalog.Summary, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	l.mu.Lock()
	cached := l.sum
	l.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	ids := l.cat.IDs()
	cs := make([]catalog.Summary, 0, len(ids))
	for _, id := range ids {
		ts, err := l.Theme(id)
		if err != nil {
			return nil, err
		}
		e, _ := l.cat.GetByID(id)
		cs = append(cs, catalog.Summary{
			TID:     id,
			Name:    ts.ThemeName,
			Symbols: ts.Catalog.IDs(),
			Config:  e.ConfigName,
		})
	}
	l.mu.Lock()
	l.sum = cs
	l.mu.Unlock()
	return cs, nil
}

// Theme 回傳解析好的主題設定；同一個主題只解析一次。
// 回傳的設定是共用的，呼叫端不可修改。
func (l *Lab) Theme(id spec.TID) (*spec.ThemeSetting, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if ts, ok := l.themes[id]; ok {
		return ts, nil
	}
	ts, err := l.cat.ThemeSettingByID(id)
	if err != nil {
		return nil, err
	}
	l.themes[id] = ts
	return ts, nil
}

// ThemeByName 與 Theme 相同，但以名稱查詢（不分大小寫）。
func (l *Lab) ThemeByName(name string) (*spec.ThemeSetting, error) {
	e, ok := l.cat.GetByName(name)
	if !ok {
		return nil, errs.NewWarn(fmt.Sprintf("theme %q does not exist in catalog", name))
	}
	return l.Theme(e.TID)
}

// NewSession 依主題 ID 建立一個 Session。
// opt.Factory 為 nil 時使用 Lab 的工廠；opt.Seed 為 0 時由 crypto/rand 產生。
func (l *Lab) NewSession(id spec.TID, opt reel.Options) (*reel.Session, error) {
	ts, err := l.Theme(id)
	if err != nil {
		return nil, err
	}
	return l.newSession(ts, opt)
}

func (l *Lab) NewSessionByName(name string, opt reel.Options) (*reel.Session, error) {
	ts, err := l.ThemeByName(name)
	if err != nil {
		return nil, err
	}
	return l.newSession(ts, opt)
}

func (l *Lab) newSession(ts *spec.ThemeSetting, opt reel.Options) (*reel.Session, error) {
	if opt.Factory == nil {
		opt.Factory = l.pf
	}
	if opt.Seed == 0 {
		seed, err := core.NewSeed()
		if err != nil {
			return nil, errs.Wrap(err, "generate seed")
		}
		opt.Seed = seed
	}
	return reel.NewSession(ts, opt)
}

// NewSimulator 以隨機 seed 建立模擬器。
func (l *Lab) NewSimulator(id spec.TID) (*Simulator, error) {
	seed, err := core.NewSeed()
	if err != nil {
		return nil, errs.Wrap(err, "generate seed")
	}
	return l.NewSimulatorWithSeed(id, seed)
}

func (l *Lab) NewSimulatorWithSeed(id spec.TID, seed int64) (*Simulator, error) {
	ts, err := l.Theme(id)
	if err != nil {
		return nil, err
	}
	return newSimulator(ts, l.pf, seed)
}

// NewSimulatorByYAML 以呼叫端提供的設定建立模擬器（調整權重用）。
// 設定必須對應到已註冊的主題。
func (l *Lab) NewSimulatorByYAML(raw []byte, seed int64) (*Simulator, error) {
	ts, err := spec.GetThemeSettingByYAML(raw)
	if err != nil {
		return nil, errs.NewWarn("invalid theme setting: " + err.Error())
	}
	if err := l.validCfg(ts); err != nil {
		return nil, err
	}
	return newSimulator(ts, l.pf, seed)
}

func (l *Lab) NewSimulatorByJSON(raw []byte, seed int64) (*Simulator, error) {
	ts, err := spec.GetThemeSettingByJSON(raw)
	if err != nil {
		return nil, errs.NewWarn("invalid theme setting: " + err.Error())
	}
	if err := l.validCfg(ts); err != nil {
		return nil, err
	}
	return newSimulator(ts, l.pf, seed)
}

func (l *Lab) validCfg(ts *spec.ThemeSetting) error {
	if !l.cat.IsFrozen() {
		return errs.NewFatal("catalog is not frozen yet")
	}
	ent, ok := l.cat.GetByID(ts.ThemeID)
	if !ok {
		return errs.NewWarn("theme id not exist")
	}
	ent2, ok := l.cat.GetByName(ts.ThemeName)
	if !ok {
		return errs.NewWarn("theme name not exist")
	}
	if ent.TID != ent2.TID {
		return errs.NewWarn("theme id is not matched theme name")
	}
	return nil
}
