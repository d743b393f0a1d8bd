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

// Package catalog 是主題目錄：哪些主題可用、各自對應哪個設定檔。
//
// 設定檔來源一律是 fs.FS（go:embed 或 os.DirFS），而且必須是平坦目錄。
package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/spec"
)

var (
	ErrDupID   = errs.NewFatal("duplicate theme id")
	ErrDupName = errs.NewFatal("duplicate theme name")
)

type Entry struct {
	TID        spec.TID
	Name       string
	ConfigName string
}

// Summary 是對外列出主題時的摘要。
type Summary struct {
	TID     spec.TID        `json:"tid"      yaml:"tid"`
	Name    string          `json:"name"     yaml:"name"`
	Symbols []spec.SymbolID `json:"symbols"  yaml:"symbols"`
	Config  string          `json:"config"   yaml:"config"`
}

type Catalog struct {
	byID   map[spec.TID]Entry
	byName map[string]Entry
	ids    []spec.TID          // 穩定排序
	unique map[string]struct{} // 檔名需唯一
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	mfs, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byID:   map[spec.TID]Entry{},
		byName: map[string]Entry{},
		ids:    make([]spec.TID, 0, 16),
		unique: map[string]struct{}{},
		config: mfs,
	}, nil
}

func normName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register 一次註冊多個主題；任何一筆不合法時全部不寫入。
func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenID := map[spec.TID]struct{}{}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range metas {
		meta := &metas[i]
		meta.Name = normName(meta.Name)
		if meta.Name == "" {
			return errs.NewFatal("theme name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.NewFatal(fmt.Sprintf("config file not found: %s", meta.ConfigName))
		}
		_, dupID := c.byID[meta.TID]
		_, dupIDBatch := seenID[meta.TID]
		if dupID || dupIDBatch {
			return ErrDupID
		}
		_, dupName := c.byName[meta.Name]
		_, dupNameBatch := seenName[meta.Name]
		if dupName || dupNameBatch {
			return ErrDupName
		}
		_, dupCfg := c.unique[meta.ConfigName]
		_, dupCfgBatch := seenCfg[meta.ConfigName]
		if dupCfg || dupCfgBatch {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		seenID[meta.TID] = struct{}{}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byID[meta.TID] = meta
		c.byName[meta.Name] = meta
		c.ids = append(c.ids, meta.TID)
	}
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })
	return nil
}

func (c *Catalog) GetByID(id spec.TID) (Entry, bool) {
	m, ok := c.byID[id]
	return m, ok
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[normName(name)]
	return m, ok
}

func (c *Catalog) IDs() []spec.TID {
	if len(c.ids) == 0 {
		return nil
	}
	return append([]spec.TID(nil), c.ids...)
}

func (c *Catalog) All() []Entry {
	out := make([]Entry, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Catalog) Cfg() *multiFS {
	return c.config
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

// IsConfigFile 回傳檔名是否為可辨識的設定檔（.yaml/.yml/.json）。
func IsConfigFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must be a basename)", file))
	}
	if !IsConfigFile(file) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file))
	}
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (cannot start with '.')", file))
	}
	return nil
}

// ParseThemeSetting 依副檔名解析設定內容。
func ParseThemeSetting(filename string, raw []byte) (*spec.ThemeSetting, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return spec.GetThemeSettingByYAML(raw)
	case ".json":
		return spec.GetThemeSettingByJSON(raw)
	default:
		return nil, errs.NewFatal(fmt.Sprintf("unsupported config format: %q", filename))
	}
}

func (c *Catalog) load(e Entry) (*spec.ThemeSetting, error) {
	src, ok := c.config.GetFS(e.ConfigName)
	if !ok {
		return nil, errs.NewWarn("file name dose not exist in catalog")
	}
	raw, err := fs.ReadFile(src, e.ConfigName)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "catalog read file error", e.ConfigName)
	}
	return ParseThemeSetting(e.ConfigName, raw)
}

// ThemeSettingByID 讀取並解析主題設定。
func (c *Catalog) ThemeSettingByID(id spec.TID) (*spec.ThemeSetting, error) {
	e, ok := c.GetByID(id)
	if !ok {
		return nil, errs.NewWarn(fmt.Sprintf("theme id %d does not exist in catalog", id))
	}
	return c.load(e)
}

// ThemeSettingByName 讀取並解析主題設定。
func (c *Catalog) ThemeSettingByName(name string) (*spec.ThemeSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.NewWarn(fmt.Sprintf("theme %q does not exist in catalog", name))
	}
	return c.load(e)
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
	}
	m := &multiFS{src: src, index: make(map[string]int, 32)}

	for i := range src {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// 只允許根目錄
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			if !IsConfigFile(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i))
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], true
	}
	return nil, false
}

// Names 依檔名排序回傳所有設定檔。
func (m *multiFS) Names() []string {
	out := make([]string, 0, len(m.index))
	for n := range m.index {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
