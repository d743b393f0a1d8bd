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

package reel

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/sdk/core"
	"github.com/zintix-labs/trireel/settings"
	"github.com/zintix-labs/trireel/spec"
)

// fixedPRNG 永遠回傳同一個值，用來把抽樣釘在指定位置。
type fixedPRNG struct{ f float64 }

func (p *fixedPRNG) Uint64() uint64   { return 0 }
func (p *fixedPRNG) Float64() float64 { return p.f }
func (p *fixedPRNG) UintN(n uint) uint {
	return 0
}
func (p *fixedPRNG) IntN(n int) int {
	if n <= 0 {
		return -1
	}
	return 0
}
func (p *fixedPRNG) Snapshot() ([]byte, error) { return nil, nil }
func (p *fixedPRNG) Restore([]byte) error      { return nil }

type fixedFactory struct{ f float64 }

func (ff fixedFactory) New(int64) core.PRNG { return &fixedPRNG{f: ff.f} }

type countingObserver struct {
	mu       sync.Mutex
	results  []Result
	rejected int
}

func (c *countingObserver) OnSpin(_ string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *countingObserver) OnReject(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejected++
}

func quietLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func abTheme(t *testing.T) *spec.ThemeSetting {
	t.Helper()
	ts, err := spec.NewThemeSetting("ab", 1, []spec.SymbolDef{
		{ID: "A", Weight: 30, Payout: 2, Color: "#e74c3c", Melody: []float64{523, 587, 659}},
		{ID: "B", Weight: 2, Payout: 50, Color: "#f39c12", Melody: []float64{1047}, TailHz: 1047, TailMS: 400},
	}, spec.TimingSetting{})
	if err != nil {
		t.Fatalf("theme: %v", err)
	}
	return ts
}

func abcTheme(t *testing.T) *spec.ThemeSetting {
	t.Helper()
	ts, err := spec.NewThemeSetting("abc", 2, []spec.SymbolDef{
		{ID: "A", Weight: 10, Payout: 2},
		{ID: "B", Weight: 10, Payout: 3},
		{ID: "C", Weight: 10, Payout: 4},
	}, spec.TimingSetting{})
	if err != nil {
		t.Fatalf("theme: %v", err)
	}
	return ts
}

func newTestSession(t *testing.T, ts *spec.ThemeSetting, opt Options) *Session {
	t.Helper()
	if opt.Log == nil {
		opt.Log = quietLog()
	}
	s, err := NewSession(ts, opt)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

// r = 0.05 * 32 = 1.6 -> 第一次扣減就 <= 0 -> A
func TestSeededFullMatch(t *testing.T) {
	obs := &countingObserver{}
	s := newTestSession(t, abTheme(t), Options{Factory: fixedFactory{f: 0.05}, Observer: obs})
	plan, ok := s.Spin()
	if !ok {
		t.Fatalf("spin rejected from idle")
	}
	want := [Reels]spec.SymbolID{"A", "A", "A"}
	if plan.Result.Reels != want {
		t.Fatalf("reels = %v, want %v", plan.Result.Reels, want)
	}
	out := plan.Result.Outcome
	if out.Kind != FullMatch || out.Symbol != "A" || out.Payout != 2 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(obs.results) != 0 {
		t.Fatalf("observer must wait for Finish")
	}
	if !s.Finish(plan.Seq) {
		t.Fatalf("finish failed")
	}
	if s.State() != Idle || len(obs.results) != 1 {
		t.Fatalf("expected idle and one reported result")
	}
}

// r = 0.99 * 32 = 31.68 -> 扣完 A 剩 1.68 -> B
func TestSeededHighDrawPicksLast(t *testing.T) {
	s := newTestSession(t, abTheme(t), Options{Factory: fixedFactory{f: 0.99}})
	res, ok := s.Resolve()
	if !ok {
		t.Fatalf("resolve rejected")
	}
	if res.Outcome.Kind != FullMatch || res.Outcome.Symbol != "B" || res.Outcome.Payout != 50 {
		t.Fatalf("unexpected outcome %+v", res.Outcome)
	}
}

func TestGuaranteedWin(t *testing.T) {
	store := settings.NewMemStore(&settings.Settings{OddsMultiplier: 1, GuaranteedWin: true, SoundEnabled: true})
	s := newTestSession(t, abcTheme(t), Options{Seed: 99, Store: store})
	if !s.Snapshot().GuaranteedWin {
		t.Fatalf("flag should be loaded from store")
	}
	plan, ok := s.Spin()
	if !ok {
		t.Fatalf("spin rejected")
	}
	r := plan.Result
	if !r.Guaranteed || r.Outcome.Kind != FullMatch {
		t.Fatalf("guaranteed spin must be a full match: %+v", r)
	}
	if r.Reels[0] != r.Reels[1] || r.Reels[1] != r.Reels[2] || r.Outcome.Symbol != r.Reels[0] {
		t.Fatalf("reels not identical: %v", r.Reels)
	}
	// 旗標在 Spinning 期間就已經清掉並寫回
	if s.State() != Spinning || s.Snapshot().GuaranteedWin {
		t.Fatalf("flag must already be cleared while spinning")
	}
	if saved, _ := store.Load(); saved.GuaranteedWin {
		t.Fatalf("cleared flag must be persisted")
	}
	s.Finish(plan.Seq)

	// 下一局回到一般抽樣
	res, _ := s.Resolve()
	if res.Guaranteed {
		t.Fatalf("guaranteed flag must be one-shot")
	}
}

func TestGuaranteedWinCoversAllSymbols(t *testing.T) {
	s := newTestSession(t, abcTheme(t), Options{Seed: 5})
	seen := map[spec.SymbolID]bool{}
	for i := 0; i < 300; i++ {
		s.SetGuaranteedWin(true)
		res, _ := s.Resolve()
		seen[res.Outcome.Symbol] = true
	}
	if len(seen) != 3 {
		t.Fatalf("guaranteed symbol should be uniform over the catalog, saw %v", seen)
	}
}

func TestSpinWhileSpinningIsNoop(t *testing.T) {
	obs := &countingObserver{}
	s := newTestSession(t, abcTheme(t), Options{Seed: 11, Observer: obs})
	ref := newTestSession(t, abcTheme(t), Options{Seed: 11})

	first, ok := s.Spin()
	if !ok {
		t.Fatalf("first spin rejected")
	}
	s.SetGuaranteedWin(false)
	before := s.Snapshot()
	for i := 0; i < 5; i++ {
		if p, ok := s.Spin(); ok || p != nil {
			t.Fatalf("spin while spinning must be rejected")
		}
	}
	if after := s.Snapshot(); after != before {
		t.Fatalf("rejected spin changed state: %+v -> %+v", before, after)
	}
	if _, ok := s.Resolve(); ok {
		t.Fatalf("resolve while spinning must be rejected")
	}
	if obs.rejected != 6 || len(obs.results) != 0 {
		t.Fatalf("unexpected observer counts: rejected=%d results=%d", obs.rejected, len(obs.results))
	}
	s.Finish(first.Seq)

	// 被拒絕的呼叫不消耗亂數：接下來的結果與參考 Session 的第二局一致
	r1, _ := ref.Resolve()
	if r1.Reels != first.Result.Reels {
		t.Fatalf("reference diverged on first spin")
	}
	r2, _ := ref.Resolve()
	got, _ := s.Resolve()
	if got.Reels != r2.Reels {
		t.Fatalf("rejected spins consumed randomness: %v vs %v", got.Reels, r2.Reels)
	}
}

func TestConcurrentSpinSingleWinner(t *testing.T) {
	s := newTestSession(t, abcTheme(t), Options{Seed: 3})
	var wg sync.WaitGroup
	var mu sync.Mutex
	won := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.Spin(); ok {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if won != 1 {
		t.Fatalf("expected exactly one spin to start, got %d", won)
	}
}

func TestFinishStaleSeq(t *testing.T) {
	s := newTestSession(t, abcTheme(t), Options{Seed: 1})
	if s.Finish(1) {
		t.Fatalf("finish on idle session must fail")
	}
	p, _ := s.Spin()
	if s.Finish(p.Seq + 1) {
		t.Fatalf("finish with wrong seq must fail")
	}
	if !s.Finish(p.Seq) || s.Finish(p.Seq) {
		t.Fatalf("finish must succeed exactly once")
	}
}

func TestClassifyPermutations(t *testing.T) {
	ss := abcTheme(t).Catalog
	cases := []struct {
		reels [Reels]spec.SymbolID
		kind  OutcomeKind
	}{
		{[Reels]spec.SymbolID{"A", "A", "A"}, FullMatch},
		{[Reels]spec.SymbolID{"A", "A", "B"}, PartialMatch},
		{[Reels]spec.SymbolID{"A", "B", "A"}, PartialMatch},
		{[Reels]spec.SymbolID{"B", "A", "A"}, PartialMatch},
		{[Reels]spec.SymbolID{"A", "B", "C"}, NoMatch},
		{[Reels]spec.SymbolID{"C", "B", "A"}, NoMatch},
		{[Reels]spec.SymbolID{"B", "C", "A"}, NoMatch},
	}
	for _, tc := range cases {
		got := Classify(tc.reels, ss)
		if got.Kind != tc.kind {
			t.Fatalf("%v: got %s want %s", tc.reels, got.Kind, tc.kind)
		}
		if tc.kind != FullMatch && (got.Symbol != "" || got.Payout != 0) {
			t.Fatalf("%v: non-win outcome carries symbol/payout: %+v", tc.reels, got)
		}
	}
	if got := Classify([Reels]spec.SymbolID{"C", "C", "C"}, ss); got.Payout != 4 {
		t.Fatalf("payout must come from catalog, got %v", got.Payout)
	}
}

func TestClassifyUnknownSymbolPanics(t *testing.T) {
	defer func() {
		r := recover()
		e, ok := r.(*errs.E)
		if !ok || e.ErrLv != errs.Fatal {
			t.Fatalf("expected fatal *errs.E panic, got %v", r)
		}
	}()
	Classify([Reels]spec.SymbolID{"A", "Z", "A"}, abcTheme(t).Catalog)
}

func TestOutcomeStatus(t *testing.T) {
	full := Outcome{Kind: FullMatch, Symbol: "A", Payout: 2}
	if got := full.Status(); got != "YOU WIN! A A A - 2x!" {
		t.Fatalf("unexpected status %q", got)
	}
	if (Outcome{Kind: PartialMatch}).Status() != "Two matching! Close!" {
		t.Fatalf("unexpected partial status")
	}
}

func TestPlanTimeline(t *testing.T) {
	s := newTestSession(t, abTheme(t), Options{Factory: fixedFactory{f: 0.05}})
	plan, _ := s.Spin()
	ms := time.Millisecond

	if plan.Done != 2700*ms || plan.End != 3700*ms {
		t.Fatalf("unexpected plan bounds done=%v end=%v", plan.Done, plan.End)
	}
	var last time.Duration
	ticks := map[int][]time.Duration{}
	settles := []time.Duration{}
	var cues []string
	for i, e := range plan.Effects {
		if e.At < last {
			t.Fatalf("effect %d goes back in time: %v < %v", i, e.At, last)
		}
		last = e.At
		switch e.Kind {
		case EffectReelTick:
			ticks[e.Reel] = append(ticks[e.Reel], e.At)
		case EffectReelSettle:
			settles = append(settles, e.At)
			if e.Symbol != "A" {
				t.Fatalf("settle reveals %s", e.Symbol)
			}
		case EffectAudio:
			cues = append(cues, e.Cue)
		}
	}
	if plan.Effects[0].Kind != EffectSpinStart || plan.Effects[0].At != 0 {
		t.Fatalf("first effect must be spin start")
	}
	for p := 0; p < Reels; p++ {
		if len(ticks[p]) != 7 {
			t.Fatalf("reel %d: expected 7 ticks, got %d", p, len(ticks[p]))
		}
		base := time.Duration(p) * 800 * ms
		if ticks[p][0] != base+100*ms || ticks[p][6] != base+700*ms {
			t.Fatalf("reel %d: ticks out of window %v", p, ticks[p])
		}
	}
	if len(settles) != 3 || settles[0] != 800*ms || settles[1] != 1600*ms || settles[2] != 2400*ms {
		t.Fatalf("unexpected settle times %v", settles)
	}
	wantCues := []string{CueSpinTick, CueReelStop, CueReelStop, CueReelStop, "win:A"}
	if len(cues) != len(wantCues) {
		t.Fatalf("cues = %v", cues)
	}
	for i := range wantCues {
		if cues[i] != wantCues[i] {
			t.Fatalf("cues = %v, want %v", cues, wantCues)
		}
	}

	tail := plan.Effects[len(plan.Effects)-3:]
	if tail[0].Kind != EffectOutcome || tail[1].Kind != EffectWinHighlight || tail[2].Kind != EffectAudio {
		t.Fatalf("unexpected tail order: %s %s %s", tail[0].Kind, tail[1].Kind, tail[2].Kind)
	}
	if tail[1].Color != "#e74c3c" || tail[1].Duration != 1000*ms {
		t.Fatalf("unexpected highlight %+v", tail[1])
	}
	if len(tail[2].Notes) != 3 || tail[2].Notes[0].Hz != 523 {
		t.Fatalf("unexpected melody %+v", tail[2].Notes)
	}
}

func TestPlanSoundOffAndLoseCue(t *testing.T) {
	s := newTestSession(t, abcTheme(t), Options{Seed: 8})
	for i := 0; i < 50; i++ {
		p, _ := s.Spin()
		last := p.Effects[len(p.Effects)-1]
		if p.Result.Outcome.Kind != FullMatch {
			if last.Kind != EffectAudio || last.Cue != CueLose {
				t.Fatalf("non-win must end with lose cue, got %s %q", last.Kind, last.Cue)
			}
			if p.End != p.Done {
				t.Fatalf("non-win plan must end at outcome")
			}
		}
		s.Finish(p.Seq)
	}

	if s.ToggleSound() {
		t.Fatalf("sound should toggle off")
	}
	p, _ := s.Spin()
	for _, e := range p.Effects {
		if e.Kind == EffectAudio {
			t.Fatalf("audio emitted with sound off: %q", e.Cue)
		}
	}
}

func TestSessionOddsAndSettings(t *testing.T) {
	store := settings.NewMemStore(&settings.Settings{OddsMultiplier: 2, SoundEnabled: true})
	s := newTestSession(t, abTheme(t), Options{Seed: 1, Store: store})
	if s.Snapshot().OddsMult != 2 {
		t.Fatalf("multiplier should be loaded from store")
	}
	if _, err := s.SetOddsMultiplier(0); errs.LevelOf(err) != errs.Warn {
		t.Fatalf("expected warn for m=0, got %v", err)
	}
	if s.Table().Multiplier() != 2 {
		t.Fatalf("rejected multiplier must keep previous table")
	}
	if _, err := s.SetOddsMultiplier(1); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if saved, _ := store.Load(); saved.OddsMultiplier != 1 {
		t.Fatalf("multiplier not persisted: %+v", saved)
	}
	pt := s.Paytable()
	if len(pt) != 2 || pt[0].Symbol != "A" || pt[0].Weight != 30 || pt[1].Probability != 2.0/32 {
		t.Fatalf("unexpected paytable %+v", pt)
	}
}

func TestOverflowingMultiplierRejected(t *testing.T) {
	s := newTestSession(t, abTheme(t), Options{Seed: 1})
	before := s.Table()
	for _, m := range []float64{1e307, 1e308} {
		if _, err := s.SetOddsMultiplier(m); errs.LevelOf(err) != errs.Warn {
			t.Fatalf("expected warn for m=%v, got %v", m, err)
		}
	}
	if s.Table() != before {
		t.Fatalf("rejected multiplier must keep previous table")
	}
	if _, ok := s.Resolve(); !ok {
		t.Fatalf("session should keep spinning after rejected multiplier")
	}
}

func TestStoredMultiplierFallback(t *testing.T) {
	store := settings.NewMemStore(&settings.Settings{OddsMultiplier: 1e308, GuaranteedWin: true, SoundEnabled: false})
	s := newTestSession(t, abTheme(t), Options{Seed: 1, Store: store})
	snap := s.Snapshot()
	if snap.OddsMult != 1 {
		t.Fatalf("invalid stored multiplier should fall back to 1, got %v", snap.OddsMult)
	}
	if !snap.GuaranteedWin || snap.SoundEnabled {
		t.Fatalf("other stored fields should survive: %+v", snap)
	}

	// 倍率本身合法，但此主題的權重會溢位
	big, err := spec.NewThemeSetting("big", 3, []spec.SymbolDef{
		{ID: "A", Weight: 1e303, Payout: 1e3},
		{ID: "B", Weight: 1, Payout: 2},
	}, spec.TimingSetting{})
	if err != nil {
		t.Fatalf("theme: %v", err)
	}
	store = settings.NewMemStore(&settings.Settings{OddsMultiplier: 1e6, SoundEnabled: true})
	s = newTestSession(t, big, Options{Seed: 1, Store: store})
	if s.Table().Multiplier() != 1 {
		t.Fatalf("theme overflow should fall back to 1, got %v", s.Table().Multiplier())
	}
}

func TestSetSound(t *testing.T) {
	store := settings.NewMemStore(nil)
	s := newTestSession(t, abTheme(t), Options{Seed: 1, Store: store})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.SetSound(false)
		}()
	}
	wg.Wait()
	if s.SoundEnabled() {
		t.Fatalf("repeated SetSound(false) must leave sound off")
	}
	if saved, _ := store.Load(); saved.SoundEnabled {
		t.Fatalf("sound flag not persisted: %+v", saved)
	}
	s.SetSound(true)
	if !s.SoundEnabled() {
		t.Fatalf("SetSound(true) should turn sound on")
	}
}

func TestSaveFailureDoesNotBlock(t *testing.T) {
	store := settings.NewMemStore(nil)
	store.FailSave = io.ErrClosedPipe
	s := newTestSession(t, abcTheme(t), Options{Seed: 2, Store: store})
	if !s.ToggleGuaranteedWin() {
		t.Fatalf("toggle should still flip the flag")
	}
	if res, ok := s.Resolve(); !ok || !res.Guaranteed {
		t.Fatalf("gameplay must continue when the store fails")
	}
}

func TestSetTheme(t *testing.T) {
	s := newTestSession(t, abTheme(t), Options{Seed: 4})
	p, _ := s.Spin()
	if err := s.SetTheme(abcTheme(t)); errs.LevelOf(err) != errs.Warn {
		t.Fatalf("expected warn while spinning, got %v", err)
	}
	s.Finish(p.Seq)
	if err := s.SetTheme(abcTheme(t)); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.Theme().ThemeName != "abc" || len(s.Paytable()) != 3 {
		t.Fatalf("theme not switched")
	}
}
