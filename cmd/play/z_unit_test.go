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

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zintix-labs/trireel/settings"
)

// fakeClock 只累計等待時間。
type fakeClock struct{ slept time.Duration }

func (c *fakeClock) Sleep(d time.Duration) { c.slept += d }

func TestRunGuaranteedSpin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	clk := &fakeClock{}
	var out bytes.Buffer
	in := strings.NewReader("r\n\no 1e308\nq\n")

	err := run(in, &out, playOpts{theme: "fruit", seed: 9, path: path, mode: "silence", clock: clk})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, want := range []string{"[fruit] odds x1", "guaranteed win: true", "Spinning...", "YOU WIN!", "odds multiplier must be in"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	if clk.slept <= 0 {
		t.Fatalf("player should wait on the injected clock")
	}

	saved, err := settings.NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if saved.GuaranteedWin || saved.OddsMultiplier != 1 {
		t.Fatalf("guaranteed win should be consumed and odds kept: %+v", saved)
	}
}

func TestRunUnknownTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	err := run(strings.NewReader("q\n"), &bytes.Buffer{}, playOpts{theme: "nope", path: path, mode: "silence", clock: &fakeClock{}})
	if err == nil {
		t.Fatalf("expected error for unknown theme")
	}
}
