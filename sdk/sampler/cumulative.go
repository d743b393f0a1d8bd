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

package sampler

import (
	"math"

	"github.com/zintix-labs/trireel/sdk/core"
)

// Cumulative 是「逐項扣減」的加權抽樣表。
//
// 抽樣流程：
//  1. 取 [0,Total) 的均勻亂數 r。
//  2. 依原始順序逐項 r -= w[i]。
//  3. 第一個使 r <= 0 的索引即為結果。
//
// 若浮點誤差使得所有項目都扣完仍未觸及 0，回傳 FallbackIndex (0)。
// 抽樣 O(N)。
type Cumulative struct {
	weights []float64
	total   float64
}

// FallbackIndex 是浮點誤差時的決定性回傳值（第一個項目）。
const FallbackIndex = 0

// BuildCumulative 根據權重列表建立抽樣表。
//
// 權重必須為有限且 >= 0 的數值，總和必須 > 0，否則 panic。
func BuildCumulative[T Numbers](src []T) *Cumulative {
	if len(src) == 0 {
		panic("cumulative: empty weights")
	}
	ws := make([]float64, len(src))
	total := 0.0
	for i, v := range src {
		w := float64(v)
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			panic("cumulative: invalid weight")
		}
		ws[i] = w
		total += w
	}
	if total <= 0 || math.IsInf(total, 0) {
		panic("cumulative: total weight must be positive and finite")
	}
	return &Cumulative{weights: ws, total: total}
}

// Len 回傳項目數量。
func (cu *Cumulative) Len() int { return len(cu.weights) }

// Total 回傳權重總和。
func (cu *Cumulative) Total() float64 { return cu.total }

// Weight 回傳第 i 項的權重。
func (cu *Cumulative) Weight(i int) float64 { return cu.weights[i] }

// Pick 以 Core 的亂數抽出一個索引。
func (cu *Cumulative) Pick(c *core.Core) int {
	return cu.PickAt(c.Float64Below(cu.total))
}

// PickAt 以給定的 r ∈ [0,Total) 執行扣減流程。
func (cu *Cumulative) PickAt(r float64) int {
	for i, w := range cu.weights {
		r -= w
		if r <= 0 {
			return i
		}
	}
	return FallbackIndex
}
