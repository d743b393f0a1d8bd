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
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/zintix-labs/trireel"
	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/sdk/core"
	"github.com/zintix-labs/trireel/server/httperr"
	"github.com/zintix-labs/trireel/stats"
)

// SimHandler 處理模擬請求，局數與 worker 數有上限。
type SimHandler struct {
	lab        *trireel.Lab
	maxRounds  int
	maxWorkers int
}

func NewSimHandler(lab *trireel.Lab, maxRounds, maxWorkers int) *SimHandler {
	return &SimHandler{lab: lab, maxRounds: max(1, maxRounds), maxWorkers: max(1, maxWorkers)}
}

// SimResponse 是模擬結果。
type SimResponse struct {
	Seed     int64             `json:"seed"`
	Stats    *stats.StatReport `json:"stats"`
	UsedTime int64             `json:"used_ms"`
}

type simParams struct {
	Multiplier float64 `json:"multiplier" validate:"omitempty,gt=0"`
	Rounds     int     `json:"rounds"     validate:"required,min=1"`
	Workers    int     `json:"workers"    validate:"omitempty,min=1"`
	Seed       *int64  `json:"seed,omitempty"`
}

func (h *SimHandler) check(p *simParams) error {
	if p.Multiplier == 0 {
		p.Multiplier = 1
	}
	if p.Workers == 0 {
		p.Workers = 1
	}
	if p.Workers > h.maxWorkers {
		return errs.NewWarn(fmt.Sprintf("workers must be between 1 and %d", h.maxWorkers))
	}
	if p.Rounds*p.Workers > h.maxRounds {
		return errs.NewWarn(fmt.Sprintf("rounds*workers must not exceed %d", h.maxRounds))
	}
	if p.Seed == nil {
		seed, err := core.NewSeed()
		if err != nil {
			return errs.NewFatal("seed generate failed")
		}
		p.Seed = &seed
	}
	return nil
}

func (h *SimHandler) run(w http.ResponseWriter, sim *trireel.Simulator, p simParams) {
	st, used, err := sim.SimMP(p.Multiplier, p.Rounds, p.Workers, false)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}
	writeJSON(w, http.StatusOK, SimResponse{Seed: sim.Seed(), Stats: st, UsedTime: used.Milliseconds()})
}

// Sim POST /sim
func (h *SimHandler) Sim(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Theme string `json:"theme" validate:"required"`
		simParams
	}{}
	if err := decode(w, r, &req); err != nil {
		httperr.Errs(w, err)
		return
	}
	if err := h.check(&req.simParams); err != nil {
		httperr.Errs(w, err)
		return
	}
	e, ok := h.lab.EntryByName(req.Theme)
	if !ok {
		httperr.Errs(w, errs.NewWarn(fmt.Sprintf("theme %q not found", req.Theme)))
		return
	}
	sim, err := h.lab.NewSimulatorWithSeed(e.TID, *req.Seed)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, fmt.Sprintf("build simulator err: %s", req.Theme)))
		return
	}
	h.run(w, sim, req.simParams)
}

// SimByCfg POST /sim/config
//
// 以呼叫端提供的主題設定（JSON 或 YAML 字串）模擬，用來試調權重。
// 設定的 theme_id 與 theme_name 必須對應已註冊的主題。
func (h *SimHandler) SimByCfg(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Cfg  json.RawMessage `json:"cfg"`
		YAML string          `json:"yaml"`
		simParams
	}{}
	if err := decode(w, r, &req); err != nil {
		httperr.Errs(w, err)
		return
	}
	if err := h.check(&req.simParams); err != nil {
		httperr.Errs(w, err)
		return
	}
	var (
		sim *trireel.Simulator
		err error
	)
	switch {
	case len(req.Cfg) > 0:
		sim, err = h.lab.NewSimulatorByJSON(req.Cfg, *req.Seed)
	case req.YAML != "":
		sim, err = h.lab.NewSimulatorByYAML([]byte(req.YAML), *req.Seed)
	default:
		err = errs.NewWarn("cfg or yaml is required")
	}
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	h.run(w, sim, req.simParams)
}
