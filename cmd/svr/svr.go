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
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/zintix-labs/trireel"
	"github.com/zintix-labs/trireel/metrics"
	"github.com/zintix-labs/trireel/sdk/core"
	"github.com/zintix-labs/trireel/server"
	"github.com/zintix-labs/trireel/server/logger"
	"github.com/zintix-labs/trireel/server/svrcfg"
	"github.com/zintix-labs/trireel/themes"
)

// 服務入口。設定來自環境變數與 .env（見 svrcfg.EnvCfg）。
func main() {
	envFile := flag.String("env", ".env", "dotenv file; missing file is ignored")
	flag.Parse()

	if err := run(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(envFile string) error {
	env, err := svrcfg.LoadEnv(envFile)
	if err != nil {
		return err
	}

	log, ah := logger.NewAsync(4096, env.LogMode)
	defer ah.Close()

	cfgs := []fs.FS{themes.FS}
	if env.ThemesDir != "" {
		cfgs = append(cfgs, os.DirFS(env.ThemesDir))
	}
	lab, err := trireel.NewAuto(core.Default(), cfgs)
	if err != nil {
		return err
	}

	m := metrics.New()
	rt, err := lab.BuildRuntime(trireel.RuntimeOptions{
		Cap:      env.SessionCap,
		TTL:      env.SessionTTL,
		Observer: m,
		Gauge:    m,
		Log:      log,
	})
	if err != nil {
		return err
	}

	return server.Run(&svrcfg.SvrCfg{
		Log:     log,
		Lab:     lab,
		Runtime: rt,
		Metrics: m,
		Env:     env,
	})
}
