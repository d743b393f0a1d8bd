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
	"testing"

	"github.com/zintix-labs/trireel/sdk/core"
)

// assertPanic 驗證函數是否如預期觸發 panic
func assertPanic(t *testing.T, f func(), msg string) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic for %s, but got none", msg)
		}
	}()
	f()
}

func TestBuildCumulativePanics(t *testing.T) {
	assertPanic(t, func() { BuildCumulative([]int{}) }, "empty weights")
	assertPanic(t, func() { BuildCumulative([]int{0, 0}) }, "all zero")
	assertPanic(t, func() { BuildCumulative([]int{3, -1}) }, "negative weight")
	assertPanic(t, func() { BuildCumulative([]float64{1, math.NaN()}) }, "NaN weight")
	assertPanic(t, func() { BuildCumulative([]float64{math.Inf(1)}) }, "Inf weight")
}

func TestPickAtBoundaries(t *testing.T) {
	cu := BuildCumulative([]float64{3, 5, 2})
	cases := []struct {
		r    float64
		want int
	}{
		{0, 0},
		{2.999, 0},
		{3, 0}, // 3-3 = 0 -> 命中第一項
		{3.0001, 1},
		{8, 1},
		{9.999, 2},
	}
	for _, tc := range cases {
		if got := cu.PickAt(tc.r); got != tc.want {
			t.Fatalf("PickAt(%v) = %d, want %d", tc.r, got, tc.want)
		}
	}
}

func TestPickAtFallback(t *testing.T) {
	cu := BuildCumulative([]int{1, 1})
	// 超出 Total 只會在浮點誤差時發生，應回到第一項
	if got := cu.PickAt(cu.Total() + 1e-9); got != FallbackIndex {
		t.Fatalf("expected fallback index, got %d", got)
	}
}

func TestCumulativeDistribution(t *testing.T) {
	c := core.NewWithSeed(1)
	weights := []float64{30, 25, 20, 15, 8, 2}
	cu := BuildCumulative(weights)
	if cu.Len() != len(weights) || cu.Total() != 100 {
		t.Fatalf("unexpected table shape: len=%d total=%v", cu.Len(), cu.Total())
	}

	const trials = 200000
	counts := make([]int, len(weights))
	for i := 0; i < trials; i++ {
		counts[cu.Pick(c)]++
	}
	for i, w := range weights {
		expected := w / cu.Total()
		actual := float64(counts[i]) / trials
		if math.Abs(expected-actual) > 0.005 {
			t.Errorf("index %d: expected prob %.4f, got %.4f", i, expected, actual)
		}
	}
}
