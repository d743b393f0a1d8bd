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
	"fmt"
	"os"
	"os/exec"
	"strings"
)

func cleanCache() error {
	cmd := exec.Command("go", "clean", "-testcache")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go clean -testcache failed: %w", err)
	}
	return nil
}

// stream 執行指令並逐行交給 filter（stdout/stderr 合併）；filter 回 false 的行不印。
func stream(filter func(line string) bool, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		line := sc.Text()
		if !filter(line) {
			continue
		}
		switch {
		case strings.HasPrefix(line, "ok"):
			green(line)
		case strings.HasPrefix(line, "FAIL"), strings.HasPrefix(line, "panic:"):
			red(line)
		default:
			fmt.Println(line)
		}
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s %s finished with errors", name, strings.Join(args, " "))
	}
	return nil
}

// runTest 只印每個套件的 ok / FAIL 與編譯錯誤。
func runTest() error {
	green("running tests")
	if err := cleanCache(); err != nil {
		return err
	}
	return stream(func(line string) bool {
		return strings.HasPrefix(line, "ok") || strings.HasPrefix(line, "FAIL") ||
			strings.Contains(line, "build failed") || strings.Contains(line, "setup failed")
	}, "go", "test", "./...", "-cover", "-count=1")
}

func runTestAll() error {
	green("running tests (all with coverage)")
	if err := cleanCache(); err != nil {
		return err
	}
	return stream(func(string) bool { return true }, "go", "test", "./...", "-cover")
}

func runTestDetail() error {
	green("running tests (detail)")
	if err := cleanCache(); err != nil {
		return err
	}
	return stream(func(line string) bool {
		return !strings.Contains(line, "[no test files]")
	}, "go", "test", "./...", "-v", "-count=1")
}

// runTestRace 以 race detector 跑 Session 與 Runtime 相關套件。
func runTestRace() error {
	green("running tests (race)")
	return stream(func(line string) bool {
		return !strings.Contains(line, "[no test files]")
	}, "go", "test", "-race", "-count=1", ".", "./sdk/...", "./recorder/...", "./server/...")
}

// runSimCheck 每個內建主題各跑一次固定 seed 的模擬，報表中含理論值與卡方檢定。
func runSimCheck() error {
	for _, theme := range []string{"fruit", "classic"} {
		green("sim-check " + theme)
		err := stream(func(string) bool { return true },
			"go", "run", "./cmd/run", "-theme", theme, "-rounds", "500000", "-workers", "4", "-seed", "20250101", "-q")
		if err != nil {
			return err
		}
	}
	return nil
}
