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

package stats

import (
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TheoryReport 三轉輪獨立抽樣下的理論值（每局押注 1 單位）。
//
//	Full    = Σ p³
//	Partial = Σ 3p²(1-p)
//	None    = 1 - Full - Partial
//	RTP     = Σ p³ · payout
type TheoryReport struct {
	Full    float64 `json:"Full"`
	Partial float64 `json:"Partial"`
	None    float64 `json:"None"`
	RTP     float64 `json:"RTP"`
}

// Theory 依單輪機率與賠付計算理論值。probs 與 payouts 需等長且同序。
func Theory(probs, payouts []float64) *TheoryReport {
	t := &TheoryReport{}
	for i, p := range probs {
		p3 := p * p * p
		t.Full += p3
		t.Partial += 3 * p * p * (1 - p)
		t.RTP += p3 * payouts[i]
	}
	t.None = 1 - t.Full - t.Partial
	if t.None < 0 {
		t.None = 0
	}
	return t
}

// FitReport 卡方適合度檢定結果
type FitReport struct {
	Draws     int     `json:"Draws"`
	ChiSquare float64 `json:"ChiSquare"`
	DF        int     `json:"DF"`
	PValue    float64 `json:"PValue"`
}

// ChiSquareFit 檢定觀測次數是否符合機率分佈。
func ChiSquareFit(obs, probs []float64) *FitReport {
	n := 0.0
	for _, o := range obs {
		n += o
	}
	exp := make([]float64, len(probs))
	for i, p := range probs {
		exp[i] = p * n
	}
	chi := stat.ChiSquare(obs, exp)
	df := len(obs) - 1
	return &FitReport{
		Draws:     int(n),
		ChiSquare: chi,
		DF:        df,
		PValue:    distuv.ChiSquared{K: float64(df)}.Survival(chi),
	}
}

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}
