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

package api

import (
	"net/http"

	"github.com/zintix-labs/trireel/server/api/dev"
	v1 "github.com/zintix-labs/trireel/server/api/v1"
	"github.com/zintix-labs/trireel/server/netsvr"
	"github.com/zintix-labs/trireel/server/netsvr/middleware"
	"github.com/zintix-labs/trireel/server/svrcfg"
)

const metricsPath = "/metrics"

// RegisterRoutes 註冊 middleware 與所有路由。sCfg 需已通過 Valid。
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) {
	registerMiddleware(svr, sCfg) // 1. 註冊 middleware
	registerIndex(svr)            // 2. 主頁導到機台頁
	svr.Handle(metricsPath, sCfg.Metrics.Handler())
	dev.Register(svr, sCfg.Lab) // 3. 開發者工具頁
	registerV1API(svr, sCfg)    // 4. 註冊 v1 api
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(sCfg.Log))
	svr.Use(middleware.Observe(sCfg.Metrics))
	svr.Use(middleware.Recover(sCfg.Log))
	svr.Use(middleware.CompressionExcept(metricsPath)) // promhttp 自行壓縮
}

func registerIndex(svr netsvr.NetRouter) {
	svr.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dev", http.StatusFound)
	})
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) {
	th := v1.NewThemeHandler(sCfg.Lab)
	ss := v1.NewSessionHandler(sCfg.Runtime, sCfg.Log)
	sm := v1.NewSimHandler(sCfg.Lab, sCfg.Env.SimMaxRounds, sCfg.Env.SimMaxWorkers)

	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/themes", th.List)
		vOne.Get("/themes/{name}", th.Get)
		vOne.Get("/themes/{name}/theory", th.Theory)
		vOne.Get("/themes/{name}/tune", th.Tune)

		vOne.Post("/sessions", ss.Create)
		vOne.Get("/sessions/{id}", ss.Get)
		vOne.Delete("/sessions/{id}", ss.Delete)
		vOne.Post("/sessions/{id}/spin", ss.Spin)
		vOne.Put("/sessions/{id}/odds", ss.SetOdds)
		vOne.Post("/sessions/{id}/guaranteed-win", ss.Guaranteed)
		vOne.Post("/sessions/{id}/sound", ss.Sound)
		vOne.Get("/sessions/{id}/symbols", ss.Symbols)

		vOne.Post("/sim", sm.Sim)
		vOne.Post("/sim/config", sm.SimByCfg)
	})
}
