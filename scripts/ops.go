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

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).PrintlnFunc()
	red    = color.New(color.FgRed).PrintlnFunc()
	yellow = color.New(color.FgYellow).PrintlnFunc()
)

var tasks = map[string]func() error{
	"test":        runTest,
	"test-all":    runTestAll,
	"test-detail": runTestDetail,
	"test-race":   runTestRace,
	"sim-check":   runSimCheck,
}

// go run ./scripts <task>
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts [test|test-all|test-detail|test-race|sim-check]")
		os.Exit(1)
	}
	task, ok := tasks[os.Args[1]]
	if !ok {
		yellow("Unknown task: " + os.Args[1])
		os.Exit(1)
	}
	if err := task(); err != nil {
		red(err.Error())
		os.Exit(1)
	}
}
