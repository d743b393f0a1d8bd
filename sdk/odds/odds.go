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

// Package odds 實作賠率倍率模型：依倍率把符號的基礎權重轉成有效權重表，
// 並在有效權重表上做加權抽樣。
//
// 倍率 m 對每個符號的影響與其賠付成正比（敏感度 p/10）：
//   - m > 1：w' = w * (1 + (m-1) * p/10)，高賠付符號被放大得更多。
//   - m < 1：w' = w * (1 - (1-m) * p/10)，高賠付符號被壓縮得更多。
//   - m = 1：w' = w。
//
// 結果一律下限為 1，任何符號都不會消失。
package odds

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/sdk/core"
	"github.com/zintix-labs/trireel/sdk/sampler"
	"github.com/zintix-labs/trireel/spec"
)

// MinWeight 是有效權重的下限。
const MinWeight = 1.0

// DefaultMultiplier 代表未調整的賠率。
const DefaultMultiplier = 1.0

// MaxMultiplier 是倍率上限；超過時有效權重可能溢位成 Inf。
const MaxMultiplier = 1e6

// EffectiveWeight 依基礎權重 w、賠付 p 與倍率 m 計算有效權重。
func EffectiveWeight(w, p, m float64) float64 {
	out := w
	switch {
	case m > 1:
		out = w * (1 + (m-1)*(p/10))
	case m < 1:
		out = w * (1 - (1-m)*(p/10))
	}
	return math.Max(MinWeight, out)
}

// ValidMultiplier 檢查倍率是否可用（0 < m <= MaxMultiplier）。
func ValidMultiplier(m float64) error {
	if math.IsNaN(m) || m <= 0 || m > MaxMultiplier {
		return errs.NewWarn(fmt.Sprintf("odds multiplier must be in (0, %g], got %v", float64(MaxMultiplier), m))
	}
	return nil
}

// Table 是不可變的有效權重表，鍵與順序與符號目錄完全一致。
type Table struct {
	ids        []spec.SymbolID
	base       []float64
	weights    []float64
	index      map[spec.SymbolID]int
	multiplier float64
	cu         *sampler.Cumulative
}

// Build 依倍率 m 重新計算整張有效權重表。
func Build(ss *spec.SymbolSetting, m float64) (*Table, error) {
	if ss == nil || ss.Len() == 0 {
		return nil, errs.NewFatal("odds: empty symbol catalog")
	}
	if err := ValidMultiplier(m); err != nil {
		return nil, err
	}
	n := ss.Len()
	t := &Table{
		ids:        make([]spec.SymbolID, n),
		base:       make([]float64, n),
		weights:    make([]float64, n),
		index:      make(map[spec.SymbolID]int, n),
		multiplier: m,
	}
	total := 0.0
	for i := 0; i < n; i++ {
		d := ss.At(i)
		t.ids[i] = d.ID
		t.base[i] = d.Weight
		t.weights[i] = EffectiveWeight(d.Weight, d.Payout, m)
		t.index[d.ID] = i
		total += t.weights[i]
	}
	// 權重或總和溢位時抽樣無法進行，視為不合法的倍率
	if math.IsInf(total, 0) || math.IsNaN(total) {
		return nil, errs.NewWarn(fmt.Sprintf("odds multiplier %v overflows effective weights", m))
	}
	t.cu = sampler.BuildCumulative(t.weights)
	return t, nil
}

// Len 回傳符號數量。
func (t *Table) Len() int { return len(t.ids) }

// IDs 依目錄順序回傳符號 ID。
func (t *Table) IDs() []spec.SymbolID { return append([]spec.SymbolID(nil), t.ids...) }

// Total 回傳有效權重總和。
func (t *Table) Total() float64 { return t.cu.Total() }

// Multiplier 回傳建表時使用的倍率。
func (t *Table) Multiplier() float64 { return t.multiplier }

// Weight 回傳符號的有效權重；不在表內回傳 0, false。
func (t *Table) Weight(id spec.SymbolID) (float64, bool) {
	i, ok := t.index[id]
	if !ok {
		return 0, false
	}
	return t.weights[i], true
}

// BaseWeight 回傳符號的基礎權重。
func (t *Table) BaseWeight(id spec.SymbolID) (float64, bool) {
	i, ok := t.index[id]
	if !ok {
		return 0, false
	}
	return t.base[i], true
}

// Probability 回傳單一轉輪抽中該符號的機率。
func (t *Table) Probability(id spec.SymbolID) float64 {
	w, ok := t.Weight(id)
	if !ok {
		return 0
	}
	return w / t.Total()
}

// Probabilities 依目錄順序回傳每個符號的單輪機率。
func (t *Table) Probabilities() []float64 {
	out := make([]float64, len(t.weights))
	total := t.Total()
	for i, w := range t.weights {
		out[i] = w / total
	}
	return out
}

// WeightedDraw 在表上抽出一個符號。
//
// 取 r ∈ [0,Total)，依目錄順序扣減，回傳第一個使 r <= 0 的符號；
// 浮點誤差導致沒有命中時回傳目錄的第一個符號。
func WeightedDraw(c *core.Core, t *Table) spec.SymbolID {
	return t.ids[t.cu.Pick(c)]
}

// Model 持有符號目錄與目前生效的有效權重表。
//
// 權重表以 atomic.Pointer 整張替換：抽樣時只讀取一次指標，
// 倍率調整不會出現在一次抽樣的中途。
type Model struct {
	ss    *spec.SymbolSetting
	table atomic.Pointer[Table]
}

// NewModel 以初始倍率建立模型。
func NewModel(ss *spec.SymbolSetting, m float64) (*Model, error) {
	t, err := Build(ss, m)
	if err != nil {
		return nil, err
	}
	md := &Model{ss: ss}
	md.table.Store(t)
	return md, nil
}

// SetOddsMultiplier 重新計算有效權重表並整張替換。
// 倍率不合法時回傳 Warn 錯誤，原有的表保持生效。
func (md *Model) SetOddsMultiplier(m float64) (*Table, error) {
	t, err := Build(md.ss, m)
	if err != nil {
		return nil, err
	}
	md.table.Store(t)
	return t, nil
}

// Table 回傳目前生效的權重表。
func (md *Model) Table() *Table { return md.table.Load() }

// Multiplier 回傳目前倍率。
func (md *Model) Multiplier() float64 { return md.table.Load().multiplier }

// Symbols 回傳模型所屬的符號目錄。
func (md *Model) Symbols() *spec.SymbolSetting { return md.ss }

// Draw 在目前生效的表上抽出一個符號。
func (md *Model) Draw(c *core.Core) spec.SymbolID {
	return WeightedDraw(c, md.table.Load())
}
