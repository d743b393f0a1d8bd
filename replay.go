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
	"log/slog"

	"github.com/zintix-labs/trireel/corefmt"
	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/sdk/reel"
	"github.com/zintix-labs/trireel/spec"
)

// ReplayReport 是重播審計的結果。
//
// Before / After 是重播前後主亂數核心的快照（base64url）；Mismatch 為 -1 表示全部一致。
type ReplayReport struct {
	Theme    string       `json:"theme"`
	Seed     int64        `json:"seed"`
	Rounds   int          `json:"rounds"`
	Before   string       `json:"start_b64u"`
	After    string       `json:"after_b64u"`
	Mismatch int          `json:"mismatch"`
	Expected *reel.Result `json:"expected,omitempty"`
	Got      *reel.Result `json:"got,omitempty"`
}

// Replay 以同一個 seed 重建 Session，依序重跑 results 並比對每一局的轉輪。
//
// results 必須來自同一個 Session（單一 worker），且依序號排列。
// 每局重跑前會套用該局紀錄的必中旗標與倍率，因此中途切換過設定也能重現。
func (l *Lab) Replay(id spec.TID, seed int64, results []reel.Result) (ReplayReport, error) {
	if len(results) == 0 {
		return ReplayReport{}, errs.NewWarn("nothing to replay")
	}
	ts, err := l.Theme(id)
	if err != nil {
		return ReplayReport{}, err
	}
	sess, err := reel.NewSession(ts, reel.Options{
		Seed:    seed,
		Log:     slog.New(slog.DiscardHandler),
		Factory: l.pf,
	})
	if err != nil {
		return ReplayReport{}, err
	}
	be, err := sess.SnapshotCore()
	if err != nil {
		return ReplayReport{}, errs.Wrap(err, "snapshot core")
	}
	rep := ReplayReport{
		Theme:    ts.ThemeName,
		Seed:     seed,
		Before:   corefmt.EncodeBase64URL(be),
		Mismatch: -1,
	}

	for i, want := range results {
		if want.Multiplier != sess.Table().Multiplier() {
			if _, err := sess.SetOddsMultiplier(want.Multiplier); err != nil {
				return rep, errs.Wrap(err, "replay multiplier")
			}
		}
		sess.SetGuaranteedWin(want.Guaranteed)
		got, _ := sess.Resolve()
		rep.Rounds++
		if got.Reels != want.Reels || got.Outcome != want.Outcome {
			rep.Mismatch = i
			rep.Expected = &results[i]
			rep.Got = &got
			break
		}
	}

	af, err := sess.SnapshotCore()
	if err != nil {
		return rep, errs.Wrap(err, "snapshot core")
	}
	rep.After = corefmt.EncodeBase64URL(af)
	return rep, nil
}
