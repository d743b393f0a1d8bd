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
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/zintix-labs/trireel"
	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/optimizer"
	"github.com/zintix-labs/trireel/recorder"
	"github.com/zintix-labs/trireel/sdk/core"
	"github.com/zintix-labs/trireel/sdk/reel"
	"github.com/zintix-labs/trireel/stats"
	"github.com/zintix-labs/trireel/themes"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	theme     string
	mult      float64
	targetRTP float64
	worker    int
	rounds    int
	seed      int64
	format    string
	out       string
	dump      string
	replay    string
	themesDir string
	quiet     bool
	pprofmode string
}

func bindVar() {
	flag.StringVar(&cfg.theme, "theme", "fruit", "theme name")
	flag.Float64Var(&cfg.mult, "mult", 1, "odds multiplier (> 0)")
	flag.Float64Var(&cfg.targetRTP, "target-rtp", 0, "tune the multiplier to this theoretical RTP within [1, 10] before simulating")
	flag.IntVar(&cfg.worker, "workers", 1, "number of workers")
	flag.IntVar(&cfg.rounds, "rounds", 1000000, "spins per worker")
	flag.Int64Var(&cfg.seed, "seed", 0, "int64 seed; 0 = random")
	flag.StringVar(&cfg.format, "format", "text", "report format: text|json|yaml")
	flag.StringVar(&cfg.out, "o", "", "write report to file instead of stdout")
	flag.StringVar(&cfg.dump, "dump", "", "write every spin to a zstd history file (single worker only)")
	flag.StringVar(&cfg.replay, "replay", "", "replay a history file with -seed and report the first mismatch")
	flag.StringVar(&cfg.themesDir, "themes", "", "extra theme directory (yaml/json)")
	flag.BoolVar(&cfg.quiet, "q", false, "hide progress bar")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()

	if cfg.seed == 0 {
		seed, err := core.NewSeed()
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed
	}
}

func newLab() (*trireel.Lab, error) {
	cfgs := trireel.Configs(themes.FS)
	if cfg.themesDir != "" {
		cfgs = append(cfgs, os.DirFS(cfg.themesDir))
	}
	return trireel.NewAuto(core.Default(), cfgs)
}

// executeSimulator 執行模擬並輸出報表。
func executeSimulator() error {
	if err := cfg.valid(); err != nil {
		return err
	}
	lab, err := newLab()
	if err != nil {
		return err
	}
	ent, ok := lab.EntryByName(cfg.theme)
	if !ok {
		return errs.NewWarn("theme not found: " + cfg.theme)
	}
	s, err := lab.NewSimulatorWithSeed(ent.TID, cfg.seed)
	if err != nil {
		return err
	}
	if cfg.targetRTP > 0 {
		ts, err := lab.Theme(ent.TID)
		if err != nil {
			return err
		}
		res, err := optimizer.Tune(ts.Catalog, optimizer.Goal{RTP: cfg.targetRTP, Lo: 1, Hi: 10})
		if err != nil {
			return err
		}
		cfg.mult = res.Multiplier
	}

	var hist *recorder.History
	if cfg.dump != "" {
		f, err := os.Create(cfg.dump)
		if err != nil {
			return errs.Wrap(err, "create dump file")
		}
		defer f.Close()
		if hist, err = recorder.NewHistory(f); err != nil {
			return err
		}
		s.SetObserver(hist)
	}

	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	p.Fprintf(os.Stderr, "%s[WORKERS:%d] [THEME:%s] [MULT:%g] [SPINS:%d] [SEED:%d]%s\n",
		green, cfg.worker, ent.Name, cfg.mult, cfg.worker*cfg.rounds, cfg.seed, reset)

	st, used, err := s.SimMP(cfg.mult, cfg.rounds, cfg.worker, !cfg.quiet)
	if err != nil {
		return err
	}
	if hist != nil {
		if err := hist.Close(); err != nil {
			return err
		}
		p.Fprintf(os.Stderr, "history: %d records -> %s\n", hist.Count(), cfg.dump)
	}
	return writeReport(st, used)
}

func writeReport(st *stats.StatReport, used time.Duration) error {
	w := os.Stdout
	if cfg.out != "" {
		f, err := os.Create(cfg.out)
		if err != nil {
			return errs.Wrap(err, "create report file")
		}
		defer f.Close()
		w = f
	}
	if cfg.format == "text" && cfg.out == "" {
		st.Fprint(w, used)
		return nil
	}
	render, ok := stats.RenderByName(cfg.format)
	if !ok {
		return errs.NewWarn("unknown format: " + cfg.format)
	}
	return st.WriteWith(w, render)
}

// executeReplay 讀取歷史檔，以 -seed 重建 Session 逐局比對。
func executeReplay() error {
	lab, err := newLab()
	if err != nil {
		return err
	}
	f, err := os.Open(cfg.replay)
	if err != nil {
		return errs.Wrap(err, "open history")
	}
	defer f.Close()

	var (
		theme   string
		results []reel.Result
	)
	err = recorder.ReadHistory(f, func(h recorder.HistoryRecord) error {
		if theme == "" {
			theme = h.Theme
		} else if theme != h.Theme {
			return errs.NewWarn("history mixes themes")
		}
		results = append(results, h.Result)
		return nil
	})
	if err != nil {
		return err
	}
	ent, ok := lab.EntryByName(theme)
	if !ok {
		return errs.NewWarn("theme not found: " + theme)
	}
	rep, err := lab.Replay(ent.TID, cfg.seed, results)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return err
	}
	if rep.Mismatch >= 0 {
		return errs.NewWarn("replay mismatch")
	}
	return nil
}

func (cfg *config) valid() error {
	if cfg.worker < 1 {
		return errs.NewWarn("value err : workers must > 0")
	}
	if cfg.rounds < 1 {
		return errs.NewWarn("value err : rounds must > 0")
	}
	if !(cfg.mult > 0) {
		return errs.NewWarn("value err : mult must > 0")
	}
	// 歷史檔只能由單一 Session 重播
	if cfg.dump != "" && cfg.worker != 1 {
		return errs.NewWarn("value err : -dump requires -workers 1")
	}
	return nil
}
