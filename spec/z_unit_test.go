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

package spec

import (
	"testing"
	"time"

	"github.com/zintix-labs/trireel/errs"
)

const themeYAML = `
theme_name: mini
theme_id: 7
symbols:
  - id: A
    weight: 30
    payout: 2
    color: "#e74c3c"
    melody: [523, 587, 659]
  - id: B
    weight: 2
    payout: 50
    note_ms: 180
    tail_hz: 1047
    tail_ms: 400
timing:
  reel_settle_ms: 500
`

func TestThemeByYAML(t *testing.T) {
	ts, err := GetThemeSettingByYAML([]byte(themeYAML))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ts.ThemeName != "mini" || ts.ThemeID != 7 {
		t.Fatalf("unexpected header: %s/%d", ts.ThemeName, ts.ThemeID)
	}
	if ts.Catalog.Len() != 2 {
		t.Fatalf("expected 2 symbols, got %d", ts.Catalog.Len())
	}
	if ids := ts.Catalog.IDs(); ids[0] != "A" || ids[1] != "B" {
		t.Fatalf("catalog order broken: %v", ids)
	}
	a, _ := ts.Catalog.Def("A")
	if a.NoteMS != DefaultNoteMS {
		t.Fatalf("expected default note length, got %d", a.NoteMS)
	}
	if ts.Timing.Settle() != 500*time.Millisecond {
		t.Fatalf("settle override lost: %v", ts.Timing.Settle())
	}
	if ts.Timing.Tick() != DefaultReelTickMS*time.Millisecond {
		t.Fatalf("tick default missing: %v", ts.Timing.Tick())
	}
	if got := ts.Timing.OutcomeAt(3); got != 1800*time.Millisecond {
		t.Fatalf("outcome offset = %v", got)
	}
}

func TestThemeByJSON(t *testing.T) {
	raw := []byte(`{"theme_name":"j","theme_id":1,"symbols":[{"id":"X","weight":1,"payout":3}]}`)
	ts, err := GetThemeSettingByJSON(raw)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ts.Timing != DefaultTiming() {
		t.Fatalf("expected default timing, got %+v", ts.Timing)
	}
	if _, err := GetThemeSettingByJSON([]byte(`{"theme_name":"j","oops":1}`)); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestSymbolSettingInvalid(t *testing.T) {
	cases := map[string][]SymbolDef{
		"empty":          nil,
		"empty id":       {{ID: " ", Weight: 1, Payout: 1}},
		"duplicate":      {{ID: "A", Weight: 1, Payout: 1}, {ID: "A", Weight: 2, Payout: 2}},
		"zero weight":    {{ID: "A", Weight: 0, Payout: 1}},
		"negative pay":   {{ID: "A", Weight: 1, Payout: -1}},
		"bad melody":     {{ID: "A", Weight: 1, Payout: 1, Melody: []float64{0}}},
		"negative notes": {{ID: "A", Weight: 1, Payout: 1, NoteMS: -5}},
	}
	for name, defs := range cases {
		_, err := NewSymbolSetting(defs)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if errs.LevelOf(err) != errs.Fatal {
			t.Fatalf("%s: expected fatal level, got %s", name, errs.LevelOf(err))
		}
	}
}

func TestTimingInvalid(t *testing.T) {
	ts := TimingSetting{ReelSettleMS: 100, ReelTickMS: 200}
	if err := ts.Init(); err == nil {
		t.Fatalf("expected tick > settle to fail")
	}
	ts = TimingSetting{ResultPauseMS: -1}
	if err := ts.Init(); err == nil {
		t.Fatalf("expected negative pause to fail")
	}
}

func TestSymbolSettingIsCopy(t *testing.T) {
	defs := []SymbolDef{{ID: "A", Weight: 1, Payout: 1, Melody: []float64{440}}}
	ss, err := NewSymbolSetting(defs)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	defs[0].Weight = 99
	defs[0].Melody[0] = 1
	if d := ss.At(0); d.Weight != 1 || d.Melody[0] != 440 {
		t.Fatalf("catalog must not alias caller slice: %+v", d)
	}
}
