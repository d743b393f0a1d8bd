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
	"time"

	"github.com/zintix-labs/trireel/sdk/core"
	"github.com/zintix-labs/trireel/spec"
)

// EffectKind 是表現層事件的種類。
type EffectKind uint8

const (
	EffectSpinStart EffectKind = iota
	EffectReelSpinStart
	EffectReelTick
	EffectReelSettle
	EffectReelStopCue
	EffectOutcome
	EffectWinHighlight
	EffectAudio
)

var effectNames = [...]string{
	EffectSpinStart:     "spin_start",
	EffectReelSpinStart: "reel_spin_start",
	EffectReelTick:      "reel_tick",
	EffectReelSettle:    "reel_settle",
	EffectReelStopCue:   "reel_stop_cue",
	EffectOutcome:       "outcome",
	EffectWinHighlight:  "win_highlight",
	EffectAudio:         "audio",
}

func (k EffectKind) String() string {
	if int(k) < len(effectNames) {
		return effectNames[k]
	}
	return "unknown"
}

func (k EffectKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// 音效 token
const (
	CueSpinTick = "spin-tick"
	CueReelStop = "reel-stop"
	CueLose     = "lose"
	CueWinPfx   = "win:"
)

// Note 是一個音符。
type Note struct {
	Hz  float64       `json:"hz"`
	Dur time.Duration `json:"dur"`
}

// Effect 是時間軸上的一個事件，At 為相對於旋轉開始的偏移。
// 依 Kind 不同只有部分欄位有意義。
type Effect struct {
	At       time.Duration `json:"at"`
	Kind     EffectKind    `json:"kind"`
	Reel     int           `json:"reel"`
	Symbol   spec.SymbolID `json:"symbol,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Color    string        `json:"color,omitempty"`
	Outcome  *Outcome      `json:"outcome,omitempty"`
	Cue      string        `json:"cue,omitempty"`
	Notes    []Note        `json:"notes,omitempty"`
}

// Plan 是一局完整的表現時間軸。
//
// Effects 依發送順序排列（At 非遞減）。Finish 時間點為 Done，
// 勝利高亮在 Done 之後仍會持續到 End。
type Plan struct {
	Seq     uint64        `json:"seq"`
	Result  Result        `json:"result"`
	Effects []Effect      `json:"effects"`
	Done    time.Duration `json:"done"`
	End     time.Duration `json:"end"`
}

// WinCue 回傳某個符號的勝利音效 token。
func WinCue(id spec.SymbolID) string { return CueWinPfx + string(id) }

// Melody 把符號的旋律轉成音符序列（含延音）。
func Melody(d spec.SymbolDef) []Note {
	notes := make([]Note, 0, len(d.Melody)+1)
	for _, hz := range d.Melody {
		notes = append(notes, Note{Hz: hz, Dur: time.Duration(d.NoteMS) * time.Millisecond})
	}
	if d.TailHz > 0 && d.TailMS > 0 {
		notes = append(notes, Note{Hz: d.TailHz, Dur: time.Duration(d.TailMS) * time.Millisecond})
	}
	return notes
}

// planBuilder 依結果組出時間軸。fx 只用來挑轉動中的佔位符號，與結果無關。
type planBuilder struct {
	ss     *spec.SymbolSetting
	timing spec.TimingSetting
	fx     *core.Core
	sound  bool
}

func (pb *planBuilder) build(res Result) *Plan {
	settle := pb.timing.Settle()
	tick := pb.timing.Tick()
	ticks := 0
	if tick > 0 {
		ticks = int((settle - 1) / tick)
	}
	effs := make([]Effect, 0, 4+Reels*(4+ticks)+3)
	audio := func(at time.Duration, cue string, notes []Note) {
		if pb.sound {
			effs = append(effs, Effect{At: at, Kind: EffectAudio, Reel: -1, Cue: cue, Notes: notes})
		}
	}

	effs = append(effs, Effect{At: 0, Kind: EffectSpinStart, Reel: -1})
	audio(0, CueSpinTick, nil)

	ids := pb.ss.IDs()
	for p := 0; p < Reels; p++ {
		base := time.Duration(p) * settle
		effs = append(effs, Effect{At: base, Kind: EffectReelSpinStart, Reel: p, Duration: settle})
		for k := 1; k <= ticks; k++ {
			ph, _ := core.Pick(pb.fx, ids)
			effs = append(effs, Effect{At: base + time.Duration(k)*tick, Kind: EffectReelTick, Reel: p, Symbol: ph})
		}
		stop := base + settle
		effs = append(effs,
			Effect{At: stop, Kind: EffectReelSettle, Reel: p, Symbol: res.Reels[p]},
			Effect{At: stop, Kind: EffectReelStopCue, Reel: p},
		)
		audio(stop, CueReelStop, nil)
	}

	done := pb.timing.OutcomeAt(Reels)
	out := res.Outcome
	effs = append(effs, Effect{At: done, Kind: EffectOutcome, Reel: -1, Outcome: &out})
	end := done
	if out.Kind == FullMatch {
		d, _ := pb.ss.Def(out.Symbol)
		hl := pb.timing.Highlight()
		effs = append(effs, Effect{At: done, Kind: EffectWinHighlight, Reel: -1, Symbol: out.Symbol, Color: d.Color, Duration: hl})
		audio(done, WinCue(out.Symbol), Melody(d))
		end = done + hl
	} else {
		audio(done, CueLose, nil)
	}

	return &Plan{Seq: res.Seq, Result: res, Effects: effs, Done: done, End: end}
}
