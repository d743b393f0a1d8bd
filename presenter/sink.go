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

// Package presenter 把 reel.Plan 的事件依時間送到表現層與音效層。
//
// 核心只產生事件，不知道畫面或聲音怎麼實作；Sink 與 AudioSink 是唯一的出口。
package presenter

import (
	"time"

	"github.com/zintix-labs/trireel/sdk/reel"
	"github.com/zintix-labs/trireel/spec"
)

// Sink 接收畫面事件，呼叫順序即發送順序。
type Sink interface {
	SpinStart()
	ReelSpinStart(reel int, settle time.Duration)
	ReelTick(reel int, placeholder spec.SymbolID)
	ReelSettle(reel int, symbol spec.SymbolID)
	ReelStopCue(reel int)
	Outcome(o reel.Outcome)
	WinHighlight(symbol spec.SymbolID, color string, d time.Duration)
}

// AudioSink 接收音效 token（spin-tick、reel-stop、win:<symbol>、lose）。
type AudioSink interface {
	Cue(token string, notes []reel.Note)
}

// Dispatch 把單一事件交給對應的 sink。sink 或 audio 可為 nil。
func Dispatch(e reel.Effect, sink Sink, audio AudioSink) {
	if e.Kind == reel.EffectAudio {
		if audio != nil {
			audio.Cue(e.Cue, e.Notes)
		}
		return
	}
	if sink == nil {
		return
	}
	switch e.Kind {
	case reel.EffectSpinStart:
		sink.SpinStart()
	case reel.EffectReelSpinStart:
		sink.ReelSpinStart(e.Reel, e.Duration)
	case reel.EffectReelTick:
		sink.ReelTick(e.Reel, e.Symbol)
	case reel.EffectReelSettle:
		sink.ReelSettle(e.Reel, e.Symbol)
	case reel.EffectReelStopCue:
		sink.ReelStopCue(e.Reel)
	case reel.EffectOutcome:
		if e.Outcome != nil {
			sink.Outcome(*e.Outcome)
		}
	case reel.EffectWinHighlight:
		sink.WinHighlight(e.Symbol, e.Color, e.Duration)
	}
}

// Nop 不做任何事。
type Nop struct{}

func (Nop) SpinStart()                                        {}
func (Nop) ReelSpinStart(int, time.Duration)                  {}
func (Nop) ReelTick(int, spec.SymbolID)                       {}
func (Nop) ReelSettle(int, spec.SymbolID)                     {}
func (Nop) ReelStopCue(int)                                   {}
func (Nop) Outcome(reel.Outcome)                              {}
func (Nop) WinHighlight(spec.SymbolID, string, time.Duration) {}
func (Nop) Cue(string, []reel.Note)                           {}
