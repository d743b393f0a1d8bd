package trireel

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/trireel/sdk/reel"
	"github.com/zintix-labs/trireel/themes"
)

func newLab(t *testing.T) *Lab {
	t.Helper()
	lab, err := NewAuto(nil, Configs(themes.FS))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	return lab
}

func TestLabSummary(t *testing.T) {
	lab := newLab(t)
	sum, err := lab.Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(sum) != 2 {
		t.Fatalf("expected 2 themes, got %d", len(sum))
	}
	if sum[0].Name != "fruit" || len(sum[0].Symbols) != 6 {
		t.Fatalf("unexpected first theme: %+v", sum[0])
	}
	if _, err := lab.ThemeByName("FRUIT"); err != nil {
		t.Fatalf("lookup by name should ignore case: %v", err)
	}
	if _, err := lab.ThemeByName("nope"); err == nil {
		t.Fatalf("unknown theme should fail")
	}
}

func TestLabRequiresFreeze(t *testing.T) {
	lab, err := New(nil, Configs(themes.FS))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := lab.Summary(); err == nil {
		t.Fatalf("summary before freeze should fail")
	}
	if _, err := lab.Theme(1); err == nil {
		t.Fatalf("theme before freeze should fail")
	}
}

func TestRegisterAllDuplicateID(t *testing.T) {
	raw, _ := themes.FS.ReadFile("fruit.yaml")
	mfs := fstest.MapFS{
		"a.yaml": {Data: raw},
		"b.yaml": {Data: raw},
	}
	lab, err := New(nil, Configs(mfs))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := lab.RegisterAll(); err == nil {
		t.Fatalf("duplicate theme id should fail")
	}
	if len(lab.IDs()) != 0 {
		t.Fatalf("failed RegisterAll must not register anything")
	}
}

func TestSimDeterministic(t *testing.T) {
	lab := newLab(t)
	run := func() float64 {
		sim, err := lab.NewSimulatorWithSeed(1, 99)
		if err != nil {
			t.Fatalf("simulator: %v", err)
		}
		st, _, err := sim.SimMP(1, 2000, 3, false)
		if err != nil {
			t.Fatalf("sim: %v", err)
		}
		if st.Summary.Rounds != 6000 {
			t.Fatalf("rounds = %d", st.Summary.Rounds)
		}
		return st.Summary.TotalWin
	}
	if a, b := run(), run(); a != b {
		t.Fatalf("same seed gave different totals: %v vs %v", a, b)
	}
}

func TestSimMatchesTheory(t *testing.T) {
	lab := newLab(t)
	sim, err := lab.NewSimulatorWithSeed(1, 7)
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	st, _, err := sim.SimMP(1, 50_000, 4, false)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	sm := st.Summary
	if math.Abs(sm.FullRate-st.Theory.Full) > 0.01 {
		t.Fatalf("full rate %v far from theory %v", sm.FullRate, st.Theory.Full)
	}
	if math.Abs(sm.PartialRate-st.Theory.Partial) > 0.01 {
		t.Fatalf("partial rate %v far from theory %v", sm.PartialRate, st.Theory.Partial)
	}
	if st.Fit == nil || st.Fit.PValue < 1e-4 {
		t.Fatalf("symbol frequencies do not fit weights: %+v", st.Fit)
	}
}

func TestSimRejectsBadInput(t *testing.T) {
	lab := newLab(t)
	sim, err := lab.NewSimulatorWithSeed(1, 1)
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	if _, _, err := sim.Sim(1, 0, false); err == nil {
		t.Fatalf("zero rounds should fail")
	}
	if _, _, err := sim.Sim(0, 10, false); err == nil {
		t.Fatalf("zero multiplier should fail")
	}
	if _, _, err := sim.SimMP(1, 10, 0, false); err == nil {
		t.Fatalf("zero workers should fail")
	}
	// 失敗後仍可正常使用
	if _, _, err := sim.Sim(2, 10, false); err != nil {
		t.Fatalf("sim after failure: %v", err)
	}
}

type collect struct {
	mu  sync.Mutex
	out []reel.Result
}

func (c *collect) OnSpin(_ string, r reel.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, r)
}

func (c *collect) OnReject(string) {}

func TestReplay(t *testing.T) {
	lab := newLab(t)
	c := &collect{}
	sess, err := lab.NewSession(1, reel.Options{Seed: 1234, Observer: c})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	for i := range 40 {
		if i == 10 {
			sess.SetGuaranteedWin(true)
		}
		if i == 20 {
			if _, err := sess.SetOddsMultiplier(3); err != nil {
				t.Fatalf("set odds: %v", err)
			}
		}
		sess.Resolve()
	}
	if len(c.out) != 40 || !c.out[10].Guaranteed {
		t.Fatalf("unexpected history: %d results", len(c.out))
	}

	rep, err := lab.Replay(1, 1234, c.out)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if rep.Mismatch != -1 || rep.Rounds != 40 {
		t.Fatalf("replay mismatch at %d after %d rounds", rep.Mismatch, rep.Rounds)
	}
	if rep.Before == "" || rep.After == "" || rep.Before == rep.After {
		t.Fatalf("core snapshots not captured: %+v", rep)
	}

	rep, err = lab.Replay(1, 4321, c.out)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if rep.Mismatch < 0 || rep.Expected == nil || rep.Got == nil {
		t.Fatalf("different seed should diverge: %+v", rep)
	}
}

type gauge struct {
	mu   sync.Mutex
	open int
}

func (g *gauge) SessionOpened() { g.mu.Lock(); g.open++; g.mu.Unlock() }
func (g *gauge) SessionClosed() { g.mu.Lock(); g.open--; g.mu.Unlock() }

func TestRuntime(t *testing.T) {
	lab := newLab(t)
	g := &gauge{}
	rt, err := lab.BuildRuntime(RuntimeOptions{Cap: 2, Gauge: g})
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	ctx := context.Background()

	id, _, err := rt.Open(ctx, "fruit", 5)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	plan, err := rt.Spin(ctx, id)
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	if plan.Done <= 0 {
		t.Fatalf("plan without timeline")
	}
	// 表現時間內再轉會被擋下
	if _, err := rt.Spin(ctx, id); !errors.Is(err, ErrSpinning) {
		t.Fatalf("expected ErrSpinning, got %v", err)
	}
	if _, err := rt.Get(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, _, err := rt.Open(ctx, "nope", 0); err == nil {
		t.Fatalf("unknown theme should fail")
	}

	// 容量 2：第三個 Session 會淘汰最舊的
	rt.Open(ctx, "classic", 0)
	rt.Open(ctx, "classic", 0)
	if rt.Len() != 2 {
		t.Fatalf("len = %d", rt.Len())
	}
	if _, err := rt.Get(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("oldest session should be evicted")
	}
	g.mu.Lock()
	open := g.open
	g.mu.Unlock()
	if open != 2 {
		t.Fatalf("gauge = %d", open)
	}

	rt.Close()
	rt.Close()
	if !rt.Closed() || rt.ClosedReason() != "closed" {
		t.Fatalf("runtime should be closed")
	}
	if _, _, err := rt.Open(ctx, "fruit", 0); !errors.Is(err, ErrRuntimeClosed) {
		t.Fatalf("expected ErrRuntimeClosed, got %v", err)
	}
}

func TestRuntimeInstant(t *testing.T) {
	lab := newLab(t)
	rt, err := lab.BuildRuntime(RuntimeOptions{Instant: true})
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	ctx := context.Background()
	id, sess, err := rt.Open(ctx, "fruit", 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for range 5 {
		if _, err := rt.Spin(ctx, id); err != nil {
			t.Fatalf("instant spin: %v", err)
		}
	}
	if sess.Snapshot().Spins != 5 || sess.State() != reel.Idle {
		t.Fatalf("unexpected snapshot %+v", sess.Snapshot())
	}
}
