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
	"math"
	"strings"

	"github.com/zintix-labs/trireel/errs"
)

// SymbolID 是符號的不透明識別字串（例如 "🍒"、"BAR"）。
type SymbolID string

// DefaultNoteMS 為勝利旋律每個音符的預設長度（毫秒）。
const DefaultNoteMS = 150

// SymbolDef 描述一個符號的機率與表現屬性。
//
// Fields:
//   - ID: 符號識別字串，目錄內唯一
//   - Weight: 基礎權重（> 0）
//   - Payout: 三連線倍數（> 0），同時決定倍率調整的敏感度
//   - Color: 勝利高亮顏色
//   - Melody: 勝利旋律（Hz），依序播放
//   - NoteMS: 每個音符長度（毫秒），留空為 DefaultNoteMS
//   - TailHz / TailMS: 旋律結束後的延音（可選）
type SymbolDef struct {
	ID     SymbolID  `yaml:"id"      json:"id"`
	Weight float64   `yaml:"weight"  json:"weight"`
	Payout float64   `yaml:"payout"  json:"payout"`
	Color  string    `yaml:"color"   json:"color"`
	Melody []float64 `yaml:"melody"  json:"melody"`
	NoteMS int       `yaml:"note_ms" json:"note_ms"`
	TailHz float64   `yaml:"tail_hz" json:"tail_hz,omitempty"`
	TailMS int       `yaml:"tail_ms" json:"tail_ms,omitempty"`
}

// SymbolSetting 是有序、唯讀的符號目錄。
//
// 目錄順序有意義：加權抽樣依此順序扣減，浮點誤差的後備結果也是第一個符號。
type SymbolSetting struct {
	defs  []SymbolDef
	index map[SymbolID]int
}

// NewSymbolSetting 複製並檢查符號列表後建立目錄。
func NewSymbolSetting(defs []SymbolDef) (*SymbolSetting, error) {
	if len(defs) == 0 {
		return nil, errs.NewFatal("symbols is empty")
	}
	ss := &SymbolSetting{
		defs:  make([]SymbolDef, len(defs)),
		index: make(map[SymbolID]int, len(defs)),
	}
	for i, d := range defs {
		d.ID = SymbolID(strings.TrimSpace(string(d.ID)))
		if d.ID == "" {
			return nil, errs.NewFatal(fmt.Sprintf("symbol[%d]: empty id", i))
		}
		if _, ok := ss.index[d.ID]; ok {
			return nil, errs.NewFatal(fmt.Sprintf("duplicate symbol id: %s", d.ID))
		}
		if !positiveFinite(d.Weight) {
			return nil, errs.NewFatal(fmt.Sprintf("symbol %s: weight must be > 0, got %v", d.ID, d.Weight))
		}
		if !positiveFinite(d.Payout) {
			return nil, errs.NewFatal(fmt.Sprintf("symbol %s: payout must be > 0, got %v", d.ID, d.Payout))
		}
		if d.NoteMS < 0 || d.TailMS < 0 {
			return nil, errs.NewFatal(fmt.Sprintf("symbol %s: negative note length", d.ID))
		}
		if d.NoteMS == 0 {
			d.NoteMS = DefaultNoteMS
		}
		for _, hz := range d.Melody {
			if !positiveFinite(hz) {
				return nil, errs.NewFatal(fmt.Sprintf("symbol %s: invalid melody note %v", d.ID, hz))
			}
		}
		d.Melody = append([]float64(nil), d.Melody...)
		ss.defs[i] = d
		ss.index[d.ID] = i
	}
	return ss, nil
}

// Len 回傳符號數量。
func (ss *SymbolSetting) Len() int { return len(ss.defs) }

// At 回傳目錄中第 i 個符號。
func (ss *SymbolSetting) At(i int) SymbolDef { return ss.defs[i] }

// Index 回傳符號在目錄中的位置。
func (ss *SymbolSetting) Index(id SymbolID) (int, bool) {
	i, ok := ss.index[id]
	return i, ok
}

// Def 依 ID 取得符號定義。
func (ss *SymbolSetting) Def(id SymbolID) (SymbolDef, bool) {
	i, ok := ss.index[id]
	if !ok {
		return SymbolDef{}, false
	}
	return ss.defs[i], true
}

// IDs 依目錄順序回傳所有符號 ID。
func (ss *SymbolSetting) IDs() []SymbolID {
	out := make([]SymbolID, len(ss.defs))
	for i, d := range ss.defs {
		out[i] = d.ID
	}
	return out
}

// Defs 回傳符號定義的副本。
func (ss *SymbolSetting) Defs() []SymbolDef {
	return append([]SymbolDef(nil), ss.defs...)
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
