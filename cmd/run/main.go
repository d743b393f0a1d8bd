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
	"fmt"
	"os"

	"github.com/zintix-labs/trireel/sdk/perf"
)

// 模擬器入口
//
//	go run ./cmd/run -theme fruit -rounds 1000000 -workers 4
//	go run ./cmd/run -theme fruit -rounds 5000 -seed 42 -dump build/fruit.zst
//	go run ./cmd/run -replay build/fruit.zst -seed 42
func main() {
	bindVar()
	exe := executeSimulator
	if cfg.replay != "" {
		exe = executeReplay
	}
	if err := perf.RunPProf(exe, cfg.pprofmode, ""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
