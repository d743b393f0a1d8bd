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

package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/zintix-labs/trireel"
	"github.com/zintix-labs/trireel/sdk/reel"
	"github.com/zintix-labs/trireel/server/httperr"
)

// SessionHandler 處理 /sessions 底下的請求。
type SessionHandler struct {
	rt  *trireel.Runtime
	log *slog.Logger
}

func NewSessionHandler(rt *trireel.Runtime, log *slog.Logger) *SessionHandler {
	return &SessionHandler{rt: rt, log: log}
}

// SessionView 是 Session 的對外表示。
type SessionView struct {
	ID string `json:"id"`
	reel.Snapshot
}

// SpinResponse 是 Spin 的回應：結果與完整時間軸。
type SpinResponse struct {
	Status string     `json:"status"`
	Plan   *reel.Plan `json:"plan"`
}

func (h *SessionHandler) fail(w http.ResponseWriter, msg string, err error) {
	httperr.Log(h.log, msg, err)
	httperr.Errs(w, err)
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (string, *reel.Session, bool) {
	id := r.PathValue("id")
	sess, err := h.rt.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get session", err)
		return "", nil, false
	}
	return id, sess, true
}

// Create POST /sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Theme string `json:"theme" validate:"required"`
		Seed  int64  `json:"seed"`
	}{}
	if err := decode(w, r, &req); err != nil {
		h.fail(w, "create session", err)
		return
	}
	id, sess, err := h.rt.Open(r.Context(), req.Theme, req.Seed)
	if err != nil {
		h.fail(w, "create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionView{ID: id, Snapshot: sess.Snapshot()})
}

// Get GET /sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SessionView{ID: id, Snapshot: sess.Snapshot()})
}

// Delete DELETE /sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.rt.Drop(r.PathValue("id")) {
		h.fail(w, "delete session", trireel.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Spin POST /sessions/{id}/spin
//
// 旋轉中再次呼叫回 409，不排隊。
func (h *SessionHandler) Spin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	plan, err := h.rt.Spin(ctx, r.PathValue("id"))
	if err != nil {
		h.fail(w, "spin", err)
		return
	}
	writeJSON(w, http.StatusOK, SpinResponse{Status: plan.Result.Outcome.Status(), Plan: plan})
}

// SetOdds PUT /sessions/{id}/odds
func (h *SessionHandler) SetOdds(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Multiplier float64 `json:"multiplier" validate:"gt=0"`
	}{}
	if err := decode(w, r, &req); err != nil {
		h.fail(w, "set odds", err)
		return
	}
	_, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := sess.SetOddsMultiplier(req.Multiplier); err != nil {
		h.fail(w, "set odds", err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Paytable())
}

type toggleReq struct {
	On *bool `json:"on"`
}

// Guaranteed POST /sessions/{id}/guaranteed-win
//
// body 帶 on 時設定為該值，否則切換。
func (h *SessionHandler) Guaranteed(w http.ResponseWriter, r *http.Request) {
	var req toggleReq
	if err := decode(w, r, &req); err != nil {
		h.fail(w, "guaranteed win", err)
		return
	}
	id, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if req.On != nil {
		sess.SetGuaranteedWin(*req.On)
	} else {
		sess.ToggleGuaranteedWin()
	}
	writeJSON(w, http.StatusOK, SessionView{ID: id, Snapshot: sess.Snapshot()})
}

// Sound POST /sessions/{id}/sound
func (h *SessionHandler) Sound(w http.ResponseWriter, r *http.Request) {
	var req toggleReq
	if err := decode(w, r, &req); err != nil {
		h.fail(w, "sound", err)
		return
	}
	id, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if req.On != nil {
		sess.SetSound(*req.On)
	} else {
		sess.ToggleSound()
	}
	writeJSON(w, http.StatusOK, SessionView{ID: id, Snapshot: sess.Snapshot()})
}

// Symbols GET /sessions/{id}/symbols
func (h *SessionHandler) Symbols(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Paytable())
}
