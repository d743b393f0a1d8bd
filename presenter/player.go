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

package presenter

import (
	"time"

	"github.com/zintix-labs/trireel/sdk/reel"
)

// Clock 提供等待；測試以假時鐘替換。
type Clock interface {
	Sleep(d time.Duration)
}

// RealClock 使用 time.Sleep。
type RealClock struct{}

func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

// Finisher 是 Play 結束時要通知的對象（通常是 *reel.Session）。
type Finisher interface {
	Finish(seq uint64) bool
}

// Player 依 Plan 的時間軸播放事件。
//
// 沒有取消機制：一局開始就會播完，最後呼叫 Finish 讓 Session 回到 Idle。
type Player struct {
	Clock Clock
	Sink  Sink
	Audio AudioSink
}

// NewPlayer 建立使用真實時鐘的 Player。
func NewPlayer(sink Sink, audio AudioSink) *Player {
	return &Player{Clock: RealClock{}, Sink: sink, Audio: audio}
}

// Play 播放整個 plan 並在結果公布後呼叫 f.Finish。
// 回傳 Finish 的結果。
func (p *Player) Play(f Finisher, plan *reel.Plan) bool {
	clk := p.Clock
	if clk == nil {
		clk = RealClock{}
	}
	var cursor time.Duration
	for _, e := range plan.Effects {
		if e.At > cursor {
			clk.Sleep(e.At - cursor)
			cursor = e.At
		}
		Dispatch(e, p.Sink, p.Audio)
	}
	if plan.Done > cursor {
		clk.Sleep(plan.Done - cursor)
	}
	if f == nil {
		return false
	}
	return f.Finish(plan.Seq)
}
