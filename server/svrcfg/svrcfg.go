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

package svrcfg

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/zintix-labs/trireel"
	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/metrics"
	"github.com/zintix-labs/trireel/server/logger"
)

// EnvCfg 是從環境變數（與 .env）讀入的服務設定。
type EnvCfg struct {
	Addr          string         `env:"TRIREEL_ADDR"            envDefault:":5808"    validate:"required"`
	LogMode       logger.LogMode `env:"TRIREEL_LOG_MODE"        envDefault:"dev"`
	SessionCap    int            `env:"TRIREEL_SESSION_CAP"     envDefault:"1024"     validate:"min=1,max=1000000"`
	SessionTTL    time.Duration  `env:"TRIREEL_SESSION_TTL"     envDefault:"30m"      validate:"min=1s"`
	SimMaxRounds  int            `env:"TRIREEL_SIM_MAX_ROUNDS"  envDefault:"1000000"  validate:"min=1"`
	SimMaxWorkers int            `env:"TRIREEL_SIM_MAX_WORKERS" envDefault:"8"        validate:"min=1,max=64"`
	ThemesDir     string         `env:"TRIREEL_THEMES_DIR"`
}

// LoadEnv 先載入 .env 檔（不存在時略過），再解析環境變數並檢查範圍。
func LoadEnv(files ...string) (EnvCfg, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return EnvCfg{}, errs.Wrap(err, "load .env")
	}
	var c EnvCfg
	if err := env.Parse(&c); err != nil {
		return EnvCfg{}, errs.NewFatal("parse env: " + err.Error())
	}
	if err := c.Valid(); err != nil {
		return EnvCfg{}, err
	}
	return c, nil
}

// Valid 檢查設定範圍。
func (c *EnvCfg) Valid() error {
	if err := validator.New().Struct(c); err != nil {
		return errs.NewFatal("invalid server env: " + err.Error())
	}
	if !strings.Contains(c.Addr, ":") {
		return errs.NewFatal("TRIREEL_ADDR must be host:port or :port")
	}
	return nil
}

// SvrCfg 是組裝服務需要的所有依賴。
type SvrCfg struct {
	Log     *slog.Logger
	Lab     *trireel.Lab
	Runtime *trireel.Runtime
	Metrics *metrics.Metrics
	Env     EnvCfg
}

// Valid 檢查必要依賴，並補上可省略的部分（Logger、Metrics）。
func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log = logger.NewDefaultLogger(logger.ModeSilence)
	}
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	if sc.Runtime == nil {
		return errs.NewFatal("runtime is required")
	}
	if sc.Metrics == nil {
		sc.Metrics = metrics.New()
	}
	sc.Env.SimMaxRounds = max(1, sc.Env.SimMaxRounds)
	sc.Env.SimMaxWorkers = min(64, max(1, sc.Env.SimMaxWorkers))
	return nil
}
