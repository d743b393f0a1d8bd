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

package server

import (
	"fmt"
	"os"

	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/server/api"
	"github.com/zintix-labs/trireel/server/app"
	"github.com/zintix-labs/trireel/server/netsvr"
	"github.com/zintix-labs/trireel/server/svrcfg"
)

// Run 組裝並啟動服務：驗證 SvrCfg、建立 chi server、註冊路由，
// 然後把 HTTP server 與 Session Runtime 交給 app 管理，直到收到停止信號。
//
// Run 不讀取環境變數或檔案；所有依賴都由 SvrCfg 注入（見 cmd/svr）。
func Run(sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Valid(); err != nil {
		// logger 可能不可用
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return RunWithSvr(sCfg, netsvr.NewChiServer(sCfg.Env.Addr))
}

// RunWithSvr 與 Run 相同，但使用呼叫端提供的 NetSvr。
//
// svr 必須非 nil；若是 ChiAdapter 會要求 Ready() 為 true。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		err := errs.NewFatal("svr is required")
		sCfg.Log.Error(err.Error())
		return err
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		err := errs.NewFatal("default server is not ready")
		sCfg.Log.Error(err.Error())
		return err
	}

	api.RegisterRoutes(svr, sCfg)

	// 關閉順序與註冊相反：先停 HTTP，再關 Runtime
	a := app.NewWith(sCfg.Log, sCfg.Runtime, svr)
	if s, ok := svr.(*netsvr.ChiAdapter); ok {
		sCfg.Log.Info("[trireel] listening", "addr", s.Address())
	} else {
		sCfg.Log.Info("[trireel] listening")
	}
	return a.Run()
}
