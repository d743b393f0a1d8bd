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

// Package optimizer 依目標理論 RTP 反推賠率倍率。
//
// 理論 RTP 是倍率的連續函數（有效權重下限 1 只造成折點），但不一定單調：
// 倍率放大高賠付符號的同時也讓機率分佈變平，RTP 可能先降後升。
// 因此只在給定區間兩端跨過目標時以二分法求根，區間內有多個根時回傳其中一個。
package optimizer

import (
	"fmt"
	"math"

	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/sdk/odds"
	"github.com/zintix-labs/trireel/spec"
	"github.com/zintix-labs/trireel/stats"
)

const (
	DefaultLo      = 0.1
	DefaultHi      = 10.0
	DefaultTol     = 1e-6
	DefaultMaxIter = 200
)

// Goal 描述要找的倍率。
//
// Fields:
//   - RTP: 目標理論 RTP（每局期望賠付 / 1 注）
//   - Lo, Hi: 搜尋區間，0 時使用預設值
//   - Tol: 區間寬度小於 Tol 即停止
//   - MaxIter: 最多二分次數
type Goal struct {
	RTP     float64 `json:"rtp"      yaml:"rtp"`
	Lo      float64 `json:"lo"       yaml:"lo"`
	Hi      float64 `json:"hi"       yaml:"hi"`
	Tol     float64 `json:"tol"      yaml:"tol"`
	MaxIter int     `json:"max_iter" yaml:"max_iter"`
}

func (g *Goal) init() error {
	if g.Lo == 0 {
		g.Lo = DefaultLo
	}
	if g.Hi == 0 {
		g.Hi = DefaultHi
	}
	if g.Tol <= 0 {
		g.Tol = DefaultTol
	}
	if g.MaxIter <= 0 {
		g.MaxIter = DefaultMaxIter
	}
	if math.IsNaN(g.RTP) || math.IsInf(g.RTP, 0) || g.RTP <= 0 {
		return errs.Warnf("target rtp must be > 0, got %v", g.RTP)
	}
	if err := odds.ValidMultiplier(g.Lo); err != nil {
		return err
	}
	if err := odds.ValidMultiplier(g.Hi); err != nil {
		return err
	}
	if g.Lo >= g.Hi {
		return errs.Warnf("search range [%g, %g] is empty", g.Lo, g.Hi)
	}
	return nil
}

// Result 是搜尋結果。
type Result struct {
	Multiplier float64             `json:"multiplier"`
	Theory     *stats.TheoryReport `json:"theory"`
	Iter       int                 `json:"iter"`
}

// TheoryAt 回傳倍率 m 下的理論值。
func TheoryAt(ss *spec.SymbolSetting, m float64) (*stats.TheoryReport, error) {
	t, err := odds.Build(ss, m)
	if err != nil {
		return nil, err
	}
	ids := t.IDs()
	payouts := make([]float64, len(ids))
	for i, id := range ids {
		d, ok := ss.Def(id)
		if !ok {
			return nil, errs.NewFatal(fmt.Sprintf("symbol %s in table but not in catalog", id))
		}
		payouts[i] = d.Payout
	}
	return stats.Theory(t.Probabilities(), payouts), nil
}

// Tune 找出理論 RTP 等於 g.RTP 的倍率。
// 目標不在 [RTP(Lo), RTP(Hi)] 之間時回 Warn。
func Tune(ss *spec.SymbolSetting, g Goal) (Result, error) {
	if ss == nil {
		return Result{}, errs.NewFatal("symbol setting is required")
	}
	if err := g.init(); err != nil {
		return Result{}, err
	}
	f := func(m float64) (float64, *stats.TheoryReport, error) {
		t, err := TheoryAt(ss, m)
		if err != nil {
			return 0, nil, err
		}
		return t.RTP - g.RTP, t, nil
	}

	lo, hi := g.Lo, g.Hi
	flo, tlo, err := f(lo)
	if err != nil {
		return Result{}, err
	}
	fhi, thi, err := f(hi)
	if err != nil {
		return Result{}, err
	}
	switch {
	case flo == 0:
		return Result{Multiplier: lo, Theory: tlo}, nil
	case fhi == 0:
		return Result{Multiplier: hi, Theory: thi}, nil
	case (flo < 0) == (fhi < 0):
		return Result{}, errs.Warnf("target rtp %.6g outside [%.6g, %.6g] for multiplier range [%g, %g]",
			g.RTP, min(tlo.RTP, thi.RTP), max(tlo.RTP, thi.RTP), lo, hi)
	}

	res := Result{}
	for res.Iter = 1; res.Iter <= g.MaxIter; res.Iter++ {
		mid := lo + (hi-lo)/2
		fm, tm, err := f(mid)
		if err != nil {
			return Result{}, err
		}
		res.Multiplier, res.Theory = mid, tm
		if fm == 0 || hi-lo < g.Tol {
			break
		}
		if (fm < 0) == (flo < 0) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	res.Iter = min(res.Iter, g.MaxIter)
	return res, nil
}
