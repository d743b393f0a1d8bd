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

package recorder

import (
	"fmt"

	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/sdk/odds"
	"github.com/zintix-labs/trireel/sdk/reel"
	"github.com/zintix-labs/trireel/spec"
	"github.com/zintix-labs/trireel/stats"
)

// SpinRecorder 遊戲紀錄員
//
// SpinRecorder 負責紀錄每局結果，並透過 Done 輸出統計報表。
// 一個 SpinRecorder 對應一組固定的主題與權重表；倍率改變時請建立新的 SpinRecorder。
type SpinRecorder struct {
	ThemeName  string
	ThemeId    spec.TID
	Multiplier float64
	Basic      *BasicRecord
	Dist       *DistRecord

	ids     []spec.SymbolID
	pos     map[spec.SymbolID]int
	probs   []float64
	payouts []float64
}

// BasicRecord 基本遊戲資料紀錄
type BasicRecord struct {
	Rounds       int
	Guaranteed   int
	TotalWin     float64
	TotalWinSq   float64 // 平方和
	FullMatch    int
	PartialMatch int
	NoMatch      int
}

// DistRecord 符號落點統計
//
// Draws 只計一般抽樣的轉輪（必中局不是加權抽樣，不列入）
type DistRecord struct {
	Draws     []int
	FullMatch []int
}

// NewSpinRecorder 依主題與目前生效的權重表建立紀錄員。
func NewSpinRecorder(ts *spec.ThemeSetting, t *odds.Table) (*SpinRecorder, error) {
	if ts == nil || ts.Catalog == nil || t == nil {
		return nil, errs.NewFatal("recorder requires theme and odds table")
	}
	ids := t.IDs()
	if len(ids) != ts.Catalog.Len() {
		return nil, errs.NewFatal(fmt.Sprintf("odds table size %d != catalog size %d", len(ids), ts.Catalog.Len()))
	}
	s := &SpinRecorder{
		ThemeName:  ts.ThemeName,
		ThemeId:    ts.ThemeID,
		Multiplier: t.Multiplier(),
		Basic:      new(BasicRecord),
		Dist: &DistRecord{
			Draws:     make([]int, len(ids)),
			FullMatch: make([]int, len(ids)),
		},
		ids:     ids,
		pos:     make(map[spec.SymbolID]int, len(ids)),
		probs:   t.Probabilities(),
		payouts: make([]float64, len(ids)),
	}
	for i, id := range ids {
		s.pos[id] = i
		d, ok := ts.Catalog.Def(id)
		if !ok {
			return nil, errs.NewFatal(fmt.Sprintf("symbol %s in table but not in catalog", id))
		}
		s.payouts[i] = d.Payout
	}
	return s, nil
}

// MergeSpinRecorder 合併多個 worker 的紀錄。
func MergeSpinRecorder(r []*SpinRecorder) (*SpinRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge spin record err : empty input")
	}
	r0 := r[0]
	s := r0.cloneEmpty()
	for _, v := range r {
		if v.ThemeName != r0.ThemeName || v.ThemeId != r0.ThemeId {
			return nil, errs.NewFatal("merge spin record err : different theme")
		}
		if v.Multiplier != r0.Multiplier || len(v.ids) != len(r0.ids) {
			return nil, errs.NewFatal("merge spin record err : different odds table")
		}
		b := v.Basic
		s.Basic.Rounds += b.Rounds
		s.Basic.Guaranteed += b.Guaranteed
		s.Basic.TotalWin += b.TotalWin
		s.Basic.TotalWinSq += b.TotalWinSq
		s.Basic.FullMatch += b.FullMatch
		s.Basic.PartialMatch += b.PartialMatch
		s.Basic.NoMatch += b.NoMatch
		for i := range v.Dist.Draws {
			s.Dist.Draws[i] += v.Dist.Draws[i]
			s.Dist.FullMatch[i] += v.Dist.FullMatch[i]
		}
	}
	return s, nil
}

func (s *SpinRecorder) cloneEmpty() *SpinRecorder {
	return &SpinRecorder{
		ThemeName:  s.ThemeName,
		ThemeId:    s.ThemeId,
		Multiplier: s.Multiplier,
		Basic:      new(BasicRecord),
		Dist: &DistRecord{
			Draws:     make([]int, len(s.ids)),
			FullMatch: make([]int, len(s.ids)),
		},
		ids:     s.ids,
		pos:     s.pos,
		probs:   s.probs,
		payouts: s.payouts,
	}
}

// Record 以單局結果更新統計
func (s *SpinRecorder) Record(r reel.Result) {
	b := s.Basic
	w := r.Outcome.Payout
	b.Rounds++
	b.TotalWin += w
	b.TotalWinSq += w * w
	switch r.Outcome.Kind {
	case reel.FullMatch:
		b.FullMatch++
		if i, ok := s.pos[r.Outcome.Symbol]; ok {
			s.Dist.FullMatch[i]++
		}
	case reel.PartialMatch:
		b.PartialMatch++
	default:
		b.NoMatch++
	}
	if r.Guaranteed {
		b.Guaranteed++
		return
	}
	for _, id := range r.Reels {
		if i, ok := s.pos[id]; ok {
			s.Dist.Draws[i]++
		}
	}
}

// OnSpin 讓 SpinRecorder 可以直接掛在 Session 上。
func (s *SpinRecorder) OnSpin(_ string, r reel.Result) { s.Record(r) }

func (s *SpinRecorder) OnReject(string) {}

// Done 產出統計報表
func (s *SpinRecorder) Done() *stats.StatReport {
	b := s.Basic
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			ThemeName:    s.ThemeName,
			ThemeId:      s.ThemeId,
			Multiplier:   s.Multiplier,
			Rounds:       b.Rounds,
			Guaranteed:   b.Guaranteed,
			TotalWin:     b.TotalWin,
			TotalWinSq:   b.TotalWinSq,
			FullMatch:    b.FullMatch,
			PartialMatch: b.PartialMatch,
			NoMatch:      b.NoMatch,
		},
		Theory:  stats.Theory(s.probs, s.payouts),
		Symbols: make([]*stats.SymbolReport, len(s.ids)),
	}
	for i, id := range s.ids {
		report.Symbols[i] = &stats.SymbolReport{
			Symbol:      id,
			Payout:      s.payouts[i],
			Probability: s.probs[i],
			Draws:       s.Dist.Draws[i],
			FullMatch:   s.Dist.FullMatch[i],
		}
	}
	report.Done()
	return report
}
