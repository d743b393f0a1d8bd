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
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/trireel"
	"github.com/zintix-labs/trireel/presenter"
	"github.com/zintix-labs/trireel/sdk/core"
	"github.com/zintix-labs/trireel/sdk/reel"
	"github.com/zintix-labs/trireel/server/logger"
	"github.com/zintix-labs/trireel/settings"
	"github.com/zintix-labs/trireel/themes"
)

const help = `Enter spin | r guaranteed win | s sound | o <mult> odds | t <theme> theme | p paytable | q quit`

// playOpts 是 run 的參數；clock 為 nil 時使用真實時鐘。
type playOpts struct {
	theme string
	seed  int64
	path  string
	mode  string
	clock presenter.Clock
}

// 終端機版拉霸機。設定（倍率、必中、音效）存在使用者設定目錄。
func main() {
	var o playOpts
	flag.StringVar(&o.theme, "theme", "fruit", "theme name")
	flag.Int64Var(&o.seed, "seed", 0, "int64 seed; 0 = random")
	flag.StringVar(&o.path, "settings", "", "settings file; empty = user config dir")
	flag.StringVar(&o.mode, "log", "silence", "log mode: dev|prod|silence")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, o); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, o playOpts) error {
	lm, err := logger.ParseMode(o.mode)
	if err != nil {
		return err
	}
	path := o.path
	if path == "" {
		if path, err = settings.DefaultPath(); err != nil {
			return err
		}
	}
	lab, err := trireel.NewAuto(core.Default(), trireel.Configs(themes.FS))
	if err != nil {
		return err
	}
	sess, err := lab.NewSessionByName(o.theme, reel.Options{
		Seed:  o.seed,
		Store: settings.NewFileStore(path),
		Log:   logger.NewDefaultLogger(lm),
	})
	if err != nil {
		return err
	}

	term := presenter.NewTermSink(out, sess.Theme().Catalog)
	player := presenter.NewPlayer(term, term)
	if o.clock != nil {
		player.Clock = o.clock
	}
	fmt.Fprintln(out, help)
	status(out, sess)

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		cmd, arg, _ := strings.Cut(strings.TrimSpace(sc.Text()), " ")
		switch cmd {
		case "":
			plan, ok := sess.Spin()
			if !ok {
				continue
			}
			player.Play(sess, plan)
		case "r":
			fmt.Fprintf(out, "guaranteed win: %v\n", sess.ToggleGuaranteedWin())
		case "s":
			fmt.Fprintf(out, "sound: %v\n", sess.ToggleSound())
		case "o":
			m, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
			if err != nil {
				fmt.Fprintln(out, "usage: o <multiplier>")
				continue
			}
			if _, err := sess.SetOddsMultiplier(m); err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			paytable(out, sess)
		case "t":
			ts, err := lab.ThemeByName(strings.TrimSpace(arg))
			if err == nil {
				err = sess.SetTheme(ts)
			}
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			term = presenter.NewTermSink(out, ts.Catalog)
			player.Sink, player.Audio = term, term
			status(out, sess)
		case "p":
			paytable(out, sess)
		case "q":
			return nil
		default:
			fmt.Fprintln(out, help)
		}
	}
	return sc.Err()
}

func status(out io.Writer, sess *reel.Session) {
	s := sess.Snapshot()
	fmt.Fprintf(out, "[%s] odds x%g | guaranteed %v | sound %v\n", s.Theme, s.OddsMult, s.GuaranteedWin, s.SoundEnabled)
}

func paytable(out io.Writer, sess *reel.Session) {
	for _, l := range sess.Paytable() {
		fmt.Fprintf(out, "%s  x%-4g weight %-8.2f p=%.4f\n", runewidth.FillRight(string(l.Symbol), 2), l.Payout, l.Weight, l.Probability)
	}
}
