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

package trireel

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/recorder"
	"github.com/zintix-labs/trireel/sdk/core"
	"github.com/zintix-labs/trireel/sdk/reel"
	"github.com/zintix-labs/trireel/spec"
	"github.com/zintix-labs/trireel/stats"
)

const capPrepare int = 100

// Simulator 以一或多個 Session 連續旋轉並統計結果。
//
// 第一個 Session 使用 initSeed，其餘由 seedMaker 派生，
// 因此同一個 seed 與同樣的 worker 數會得到同樣的報表。
type Simulator struct {
	ThemeName string   // 主題名稱
	ThemeId   spec.TID // 主題 ID

	ts        *spec.ThemeSetting
	pf        core.PRNGFactory
	initSeed  int64
	seedmaker *seedMaker
	obs       reel.Observer
	sBuf      []*reel.Session          // 併發執行的 Session
	rBuf      []*recorder.SpinRecorder // 併發紀錄員
}

func newSimulator(ts *spec.ThemeSetting, pf core.PRNGFactory, seed int64) (*Simulator, error) {
	s := &Simulator{
		ThemeName: ts.ThemeName,
		ThemeId:   ts.ThemeID,
		ts:        ts,
		pf:        pf,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		sBuf:      make([]*reel.Session, 0, capPrepare),
		rBuf:      make([]*recorder.SpinRecorder, 0, capPrepare),
	}
	sess, err := s.newSession(seed)
	if err != nil {
		return nil, err
	}
	s.sBuf = append(s.sBuf, sess)
	return s, nil
}

// SetObserver 讓每一局結果同時送給 o（例如歷史紀錄）。不可在模擬進行中呼叫。
func (s *Simulator) SetObserver(o reel.Observer) { s.obs = o }

// simObserver 把 Session 的結果轉給 Simulator 目前的 Observer。
type simObserver struct{ s *Simulator }

func (o simObserver) OnSpin(theme string, r reel.Result) {
	if o.s.obs != nil {
		o.s.obs.OnSpin(theme, r)
	}
}

func (o simObserver) OnReject(theme string) {
	if o.s.obs != nil {
		o.s.obs.OnReject(theme)
	}
}

// Seed 回傳初始 seed。
func (s *Simulator) Seed() int64 { return s.initSeed }

func (s *Simulator) newSession(seed int64) (*reel.Session, error) {
	return reel.NewSession(s.ts, reel.Options{
		Seed:     seed,
		Observer: simObserver{s},
		Log:      slog.New(slog.DiscardHandler),
		Factory:  s.pf,
	})
}

func (s *Simulator) prepare(mult float64, mp int) error {
	for len(s.sBuf) < mp {
		sess, err := s.newSession(s.seedmaker.next())
		if err != nil {
			return err
		}
		s.sBuf = append(s.sBuf, sess)
	}
	for i := 0; i < mp; i++ {
		sess := s.sBuf[i]
		t, err := sess.SetOddsMultiplier(mult)
		if err != nil {
			return err
		}
		r, err := recorder.NewSpinRecorder(s.ts, t)
		if err != nil {
			return err
		}
		s.rBuf = append(s.rBuf, r)
	}
	return nil
}

// Sim 單線模擬：以一個 Session 在倍率 mult 下連續跑 round 局，回傳統計結果與用時。
func (s *Simulator) Sim(mult float64, round int, showpb bool) (*stats.StatReport, time.Duration, error) {
	return s.SimMP(mult, round, 1, showpb)
}

// SimMP 平行執行 mp 個 Session，總計 rounds*mp 局，合併統計結果後回傳統計結果與用時。
func (s *Simulator) SimMP(mult float64, rounds int, mp int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if rounds < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	if err := s.prepare(mult, mp); err != nil {
		return nil, 0, err
	}

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(rounds * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			sess := s.sBuf[i]
			rec := s.rBuf[i]
			for range rounds {
				res, ok := sess.Resolve()
				if !ok {
					continue
				}
				rec.Record(res)
				bar.Increment()
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	st, err := recorder.MergeSpinRecorder(s.rBuf)
	if err != nil {
		return nil, 0, err
	}
	return st.Done(), used, nil
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// next 以全週期 LCG 推進 state，再用可逆 mix63 打散。
// 可能被多個 goroutine 同時呼叫，state 以 CAS 推進。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用可逆的 bit 操作與乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
