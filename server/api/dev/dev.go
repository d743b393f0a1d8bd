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

// Package dev 提供開發期使用的 HTTP endpoints：
//   - 瀏覽器版的拉霸機台，直接使用 /v1 的 Session API 並依時間軸播放動畫與音效
//   - 重播審計：給定 seed 與逐局紀錄，重建 Session 驗證每一局可以重現
//
// 這不是 production API。
package dev

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/zintix-labs/trireel"
	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/recorder"
	"github.com/zintix-labs/trireel/sdk/reel"
	"github.com/zintix-labs/trireel/server/httperr"
	"github.com/zintix-labs/trireel/server/netsvr"
)

// 重播上限，避免一次上傳過大的紀錄。
const (
	maxReplayRounds = 100_000
	maxReplayBody   = 32 << 20
)

// replayRequest 是 POST /dev/replay 的 body。
type replayRequest struct {
	Theme   string        `json:"theme"`
	Seed    int64         `json:"seed"`
	Results []reel.Result `json:"results"`
}

// Register 註冊 Dev routes。
//
// Routes：
//   - GET  /dev                 ：機台頁面（內嵌 JS）
//   - GET  /favicon.svg
//   - POST /dev/replay          ：JSON {theme, seed, results}
//   - POST /dev/replay/history  ：body 為 recorder.History 的 zstd 串流，seed 放在 query
func Register(svr netsvr.NetRouter, lab *trireel.Lab) {
	svr.Get("/dev", devPage)
	svr.Get("/favicon.svg", favicon)
	svr.Post("/dev/replay", replayJSON(lab))
	svr.Post("/dev/replay/history", replayHistory(lab))
}

func devPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(devPageHTML))
}

func favicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(faviconSVG))
}

func replayJSON(lab *trireel.Lab) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := new(replayRequest)
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReplayBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(req); err != nil {
			httperr.Errs(w, errs.NewWarn("invalid json: "+err.Error()))
			return
		}
		replay(w, lab, req)
	}
}

// replayHistory 讀取 cmd/run -dump 產生的紀錄檔。所有紀錄必須屬於同一個主題。
func replayHistory(lab *trireel.Lab) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seed, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("seed")), 10, 64)
		if err != nil {
			httperr.Errs(w, errs.NewWarn("seed must be int64"))
			return
		}
		req := &replayRequest{Seed: seed}
		err = recorder.ReadHistory(http.MaxBytesReader(w, r.Body, maxReplayBody), func(h recorder.HistoryRecord) error {
			if req.Theme == "" {
				req.Theme = h.Theme
			} else if h.Theme != req.Theme {
				return errs.NewWarn("history mixes themes: " + req.Theme + ", " + h.Theme)
			}
			if len(req.Results) >= maxReplayRounds {
				return errs.NewWarn("too many records")
			}
			req.Results = append(req.Results, h.Result)
			return nil
		})
		if err != nil {
			httperr.Errs(w, asWarn(err))
			return
		}
		replay(w, lab, req)
	}
}

func replay(w http.ResponseWriter, lab *trireel.Lab, req *replayRequest) {
	if len(req.Results) > maxReplayRounds {
		httperr.Errs(w, errs.NewWarn("too many records"))
		return
	}
	ent, ok := lab.EntryByName(strings.TrimSpace(req.Theme))
	if !ok {
		httperr.Errs(w, errs.NewWarn("theme not found: "+req.Theme))
		return
	}
	rep, err := lab.Replay(ent.TID, req.Seed, req.Results)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rep)
}

// 上傳內容損壞屬於使用者錯誤
func asWarn(err error) error {
	if errs.LevelOf(err) == errs.Warn {
		return err
	}
	return errs.NewWarn("invalid history: " + err.Error())
}
