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
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/trireel/sdk/reel"
	"github.com/zintix-labs/trireel/spec"
)

// ============================================================
// ** LogSink **
// ============================================================

// LogSink 把每個事件寫成一筆 Debug 日誌（結果與音效為 Info）。
type LogSink struct {
	Log *slog.Logger
}

func (l LogSink) SpinStart() { l.Log.Debug("spin start") }
func (l LogSink) ReelSpinStart(r int, d time.Duration) {
	l.Log.Debug("reel spin start", "reel", r, "settle", d)
}
func (l LogSink) ReelTick(r int, ph spec.SymbolID) {
	l.Log.Debug("reel tick", "reel", r, "placeholder", string(ph))
}
func (l LogSink) ReelSettle(r int, sym spec.SymbolID) {
	l.Log.Debug("reel settle", "reel", r, "symbol", string(sym))
}
func (l LogSink) ReelStopCue(r int) { l.Log.Debug("reel stop", "reel", r) }
func (l LogSink) Outcome(o reel.Outcome) {
	l.Log.Info("outcome", "kind", o.Kind.String(), "symbol", string(o.Symbol), "payout", o.Payout)
}
func (l LogSink) WinHighlight(sym spec.SymbolID, color string, d time.Duration) {
	l.Log.Debug("win highlight", "symbol", string(sym), "color", color, "duration", d)
}
func (l LogSink) Cue(token string, notes []reel.Note) {
	l.Log.Debug("audio cue", "cue", token, "notes", len(notes))
}

// ============================================================
// ** TermSink **
// ============================================================

// TermSink 在終端機上以單行重繪三個轉輪，結果另起一行。
// 符號可能是 emoji，欄寬以 runewidth 計算。
type TermSink struct {
	mu    sync.Mutex
	w     io.Writer
	reels [reel.Reels]string
	cell  int
	bell  bool
}

// NewTermSink 建立終端機輸出；cell 為每個轉輪的顯示寬度。
func NewTermSink(w io.Writer, ss *spec.SymbolSetting) *TermSink {
	cell := 1
	for _, id := range ss.IDs() {
		if n := runewidth.StringWidth(string(id)); n > cell {
			cell = n
		}
	}
	t := &TermSink{w: w, cell: cell, bell: true}
	t.reset()
	return t
}

func (t *TermSink) reset() {
	for i := range t.reels {
		t.reels[i] = "?"
	}
}

func (t *TermSink) draw() {
	cells := make([]string, len(t.reels))
	for i, s := range t.reels {
		cells[i] = runewidth.FillRight(s, t.cell)
	}
	fmt.Fprintf(t.w, "\r[ %s ]", strings.Join(cells, " | "))
}

func (t *TermSink) SpinStart() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reset()
	fmt.Fprint(t.w, "Spinning...\n")
	t.draw()
}

func (t *TermSink) ReelSpinStart(int, time.Duration) {}

func (t *TermSink) ReelTick(r int, ph spec.SymbolID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reels[r] = string(ph)
	t.draw()
}

func (t *TermSink) ReelSettle(r int, sym spec.SymbolID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reels[r] = string(sym)
	t.draw()
}

func (t *TermSink) ReelStopCue(int) {}

func (t *TermSink) Outcome(o reel.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "\n%s\n", o.Status())
}

func (t *TermSink) WinHighlight(spec.SymbolID, string, time.Duration) {}

// Cue 只在中獎時響鈴。
func (t *TermSink) Cue(token string, _ []reel.Note) {
	if !t.bell || !strings.HasPrefix(token, reel.CueWinPfx) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.w, "\a")
}

// ============================================================
// ** RecordSink **
// ============================================================

// Event 是 RecordSink 收到的一筆事件。
type Event struct {
	Name   string
	Reel   int
	Symbol spec.SymbolID
	Detail string
}

// RecordSink 依序記下所有事件，測試與 HTTP 回放使用。
type RecordSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *RecordSink) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events 回傳目前為止的事件副本。
func (r *RecordSink) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *RecordSink) SpinStart() { r.add(Event{Name: "spin_start", Reel: -1}) }
func (r *RecordSink) ReelSpinStart(p int, d time.Duration) {
	r.add(Event{Name: "reel_spin_start", Reel: p, Detail: d.String()})
}
func (r *RecordSink) ReelTick(p int, ph spec.SymbolID) {
	r.add(Event{Name: "reel_tick", Reel: p, Symbol: ph})
}
func (r *RecordSink) ReelSettle(p int, sym spec.SymbolID) {
	r.add(Event{Name: "reel_settle", Reel: p, Symbol: sym})
}
func (r *RecordSink) ReelStopCue(p int) { r.add(Event{Name: "reel_stop_cue", Reel: p}) }
func (r *RecordSink) Outcome(o reel.Outcome) {
	r.add(Event{Name: "outcome", Reel: -1, Symbol: o.Symbol, Detail: o.Kind.String()})
}
func (r *RecordSink) WinHighlight(sym spec.SymbolID, color string, d time.Duration) {
	r.add(Event{Name: "win_highlight", Reel: -1, Symbol: sym, Detail: color})
}
func (r *RecordSink) Cue(token string, _ []reel.Note) {
	r.add(Event{Name: "audio", Reel: -1, Detail: token})
}
