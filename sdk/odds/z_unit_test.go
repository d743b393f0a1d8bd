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

package odds

import (
	"math"
	"testing"

	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/sdk/core"
	"github.com/zintix-labs/trireel/spec"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

func fruitSymbols(t *testing.T) *spec.SymbolSetting {
	t.Helper()
	ss, err := spec.NewSymbolSetting([]spec.SymbolDef{
		{ID: "cherry", Weight: 30, Payout: 2},
		{ID: "lemon", Weight: 25, Payout: 3},
		{ID: "orange", Weight: 20, Payout: 4},
		{ID: "grape", Weight: 15, Payout: 5},
		{ID: "diamond", Weight: 8, Payout: 10},
		{ID: "star", Weight: 2, Payout: 50},
	})
	if err != nil {
		t.Fatalf("symbols: %v", err)
	}
	return ss
}

func TestEffectiveWeightFloor(t *testing.T) {
	for _, m := range []float64{0.01, 0.1, 0.5, 0.9, 1, 1.5, 2, 5, 100} {
		for _, p := range []float64{0.1, 2, 10, 50, 1000} {
			for _, w := range []float64{0.2, 1, 30} {
				if got := EffectiveWeight(w, p, m); got < MinWeight {
					t.Fatalf("EffectiveWeight(%v,%v,%v) = %v < 1", w, p, m, got)
				}
			}
		}
	}
	// 2 * (1 - 0.5*5) = -3 -> 1
	if got := EffectiveWeight(2, 50, 0.5); got != 1 {
		t.Fatalf("expected floor to 1, got %v", got)
	}
}

func TestEffectiveWeightFormula(t *testing.T) {
	cases := []struct {
		w, p, m, want float64
	}{
		{30, 2, 2, 36},   // 30 * (1 + 1*0.2)
		{2, 50, 2, 12},   // 2 * (1 + 1*5)
		{30, 2, 0.5, 27}, // 30 * (1 - 0.5*0.2)
		{8, 10, 1.5, 12}, // 8 * (1 + 0.5*1)
	}
	for _, tc := range cases {
		if got := EffectiveWeight(tc.w, tc.p, tc.m); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("EffectiveWeight(%v,%v,%v) = %v, want %v", tc.w, tc.p, tc.m, got, tc.want)
		}
	}
}

func TestIdentityAtOne(t *testing.T) {
	ss := fruitSymbols(t)
	tb, err := Build(ss, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i := 0; i < ss.Len(); i++ {
		d := ss.At(i)
		w, ok := tb.Weight(d.ID)
		if !ok || w != d.Weight {
			t.Fatalf("%s: expected base weight %v, got %v", d.ID, d.Weight, w)
		}
	}
	if tb.Total() != 100 {
		t.Fatalf("expected total 100, got %v", tb.Total())
	}
}

func TestHigherMultiplierFavorsHighPayout(t *testing.T) {
	ss, err := spec.NewSymbolSetting([]spec.SymbolDef{
		{ID: "A", Weight: 30, Payout: 2},
		{ID: "B", Weight: 2, Payout: 50},
	})
	if err != nil {
		t.Fatalf("symbols: %v", err)
	}
	base, _ := Build(ss, 1)
	boost, _ := Build(ss, 2)
	ratio := func(id spec.SymbolID) float64 {
		b, _ := base.Weight(id)
		x, _ := boost.Weight(id)
		return x / b
	}
	if ratio("B") <= ratio("A") {
		t.Fatalf("B should grow more than A: A=%v B=%v", ratio("A"), ratio("B"))
	}
	if boost.Probability("B") <= base.Probability("B") {
		t.Fatalf("B probability should rise under m=2")
	}
}

func TestRejectInvalidMultiplier(t *testing.T) {
	md, err := NewModel(fruitSymbols(t), 1)
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	before := md.Table()
	for _, m := range []float64{0, -1, math.NaN(), math.Inf(1), MaxMultiplier * 2, 1e307, 1e308} {
		_, err := md.SetOddsMultiplier(m)
		if err == nil {
			t.Fatalf("expected error for m=%v", m)
		}
		if errs.LevelOf(err) != errs.Warn {
			t.Fatalf("expected warn level for m=%v, got %s", m, errs.LevelOf(err))
		}
		if md.Table() != before {
			t.Fatalf("table must stay active after rejected m=%v", m)
		}
	}
	if _, err := md.SetOddsMultiplier(1.5); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if md.Multiplier() != 1.5 || md.Table() == before {
		t.Fatalf("table should be swapped on valid multiplier")
	}
}

func TestBuildOverflow(t *testing.T) {
	// 單一權重有限，但總和溢位
	ss, err := spec.NewSymbolSetting([]spec.SymbolDef{
		{ID: "a", Weight: math.MaxFloat64, Payout: 1},
		{ID: "b", Weight: math.MaxFloat64, Payout: 1},
	})
	if err != nil {
		t.Fatalf("symbols: %v", err)
	}
	if _, err := Build(ss, 1); errs.LevelOf(err) != errs.Warn {
		t.Fatalf("expected warn on overflowing total, got %v", err)
	}
	// 倍率放大後單一權重溢位
	ss, err = spec.NewSymbolSetting([]spec.SymbolDef{{ID: "a", Weight: 1e303, Payout: 1e3}})
	if err != nil {
		t.Fatalf("symbols: %v", err)
	}
	if _, err := Build(ss, MaxMultiplier); errs.LevelOf(err) != errs.Warn {
		t.Fatalf("expected warn on overflowing weight, got %v", err)
	}
	if tb, err := Build(fruitSymbols(t), MaxMultiplier); err != nil || math.IsInf(tb.Total(), 0) {
		t.Fatalf("max multiplier should build on fruit symbols: %v", err)
	}
}

// 100k 次抽樣與有效權重分佈做卡方適合度檢定。
func TestWeightedDrawChiSquare(t *testing.T) {
	ss := fruitSymbols(t)
	for _, m := range []float64{1, 2.5} {
		md, err := NewModel(ss, m)
		if err != nil {
			t.Fatalf("model: %v", err)
		}
		tb := md.Table()
		c := core.NewWithSeed(20250101)
		const draws = 100000
		pos := map[spec.SymbolID]int{}
		for i, id := range tb.IDs() {
			pos[id] = i
		}
		obs := make([]float64, tb.Len())
		for i := 0; i < draws; i++ {
			obs[pos[md.Draw(c)]]++
		}
		exp := make([]float64, tb.Len())
		for i, p := range tb.Probabilities() {
			exp[i] = p * draws
		}
		chi := stat.ChiSquare(obs, exp)
		pv := distuv.ChiSquared{K: float64(tb.Len() - 1)}.Survival(chi)
		if pv < 0.001 {
			t.Fatalf("m=%v: draw distribution rejected: chi2=%.2f p=%.5f", m, chi, pv)
		}
	}
}

func TestWeightedDrawDeterministic(t *testing.T) {
	ss := fruitSymbols(t)
	tb, _ := Build(ss, 1)
	a, b := core.NewWithSeed(42), core.NewWithSeed(42)
	for i := 0; i < 100; i++ {
		if WeightedDraw(a, tb) != WeightedDraw(b, tb) {
			t.Fatalf("draw %d diverged under same seed", i)
		}
	}
}
