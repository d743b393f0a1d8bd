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

// Package perf 為模擬器加上 pprof 取樣。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/trireel/errs"
)

// DefaultDir 是 profile 檔的預設輸出目錄。
const DefaultDir = "build/profiling"

// Modes 列出支援的取樣模式；空字串代表不取樣。
var Modes = []string{"", "cpu", "heap", "allocs"}

// RunPProf 依 mode 執行 exe 並把 profile 寫到 dir/<mode>.pprof。
//
//	go run ./cmd/run -theme fruit -p cpu
func RunPProf(exe func() error, mode string, dir string) error {
	if mode == "" {
		return exe()
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(err, "create profiling dir")
	}
	path := filepath.Join(dir, mode+".pprof")

	switch mode {
	case "cpu":
		return withFile(path, func(f *os.File) error {
			if err := pprof.StartCPUProfile(f); err != nil {
				return errs.Wrap(err, "start cpu profile")
			}
			defer pprof.StopCPUProfile()
			return exe()
		})
	case "heap", "allocs":
		if err := exe(); err != nil {
			return err
		}
		// heap 快照取 live objects，先 GC
		if mode == "heap" {
			runtime.GC()
		}
		return withFile(path, func(f *os.File) error {
			prof := pprof.Lookup(mode)
			if prof == nil {
				return errs.NewFatal("profile not found: " + mode)
			}
			if err := prof.WriteTo(f, 0); err != nil {
				return errs.Wrap(err, "write "+mode+" profile")
			}
			return nil
		})
	default:
		return errs.NewWarn("unknown pprof mode: " + mode)
	}
}

func withFile(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "create "+path)
	}
	err = fn(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errs.Wrap(cerr, "close "+path)
	}
	return err
}
