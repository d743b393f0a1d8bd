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
	"net/http"
	"strconv"

	"github.com/zintix-labs/trireel"
	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/optimizer"
	"github.com/zintix-labs/trireel/sdk/odds"
	"github.com/zintix-labs/trireel/server/httperr"
	"github.com/zintix-labs/trireel/spec"
	"github.com/zintix-labs/trireel/stats"
)

type ThemeHandler struct {
	lab *trireel.Lab
}

func NewThemeHandler(lab *trireel.Lab) *ThemeHandler {
	return &ThemeHandler{lab: lab}
}

// List GET /themes
func (h *ThemeHandler) List(w http.ResponseWriter, r *http.Request) {
	sum, err := h.lab.Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// ThemeView 是單一主題的設定。
type ThemeView struct {
	Name    string             `json:"name"`
	ID      spec.TID           `json:"id"`
	Symbols []spec.SymbolDef   `json:"symbols"`
	Timing  spec.TimingSetting `json:"timing"`
}

// Get GET /themes/{name}
func (h *ThemeHandler) Get(w http.ResponseWriter, r *http.Request) {
	ts, err := h.lab.ThemeByName(r.PathValue("name"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ThemeView{
		Name:    ts.ThemeName,
		ID:      ts.ThemeID,
		Symbols: ts.Catalog.Defs(),
		Timing:  ts.Timing,
	})
}

// TheoryView 是某個倍率下的理論機率。
type TheoryView struct {
	Multiplier    float64             `json:"multiplier"`
	Probabilities map[string]float64  `json:"probabilities"`
	Theory        *stats.TheoryReport `json:"theory"`
}

// Theory GET /themes/{name}/theory?multiplier=m
func (h *ThemeHandler) Theory(w http.ResponseWriter, r *http.Request) {
	ts, err := h.lab.ThemeByName(r.PathValue("name"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	m, err := queryFloat(r, "multiplier", odds.DefaultMultiplier)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	t, err := odds.Build(ts.Catalog, m)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ids := t.IDs()
	probs := t.Probabilities()
	payouts := make([]float64, len(ids))
	view := TheoryView{Multiplier: m, Probabilities: make(map[string]float64, len(ids))}
	for i, id := range ids {
		d, _ := ts.Catalog.Def(id)
		payouts[i] = d.Payout
		view.Probabilities[string(id)] = probs[i]
	}
	view.Theory = stats.Theory(probs, payouts)
	writeJSON(w, http.StatusOK, view)
}

// queryFloat 讀取 query 的浮點數；未提供時回傳 def。
func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errs.NewWarn(key + " must be a number")
	}
	return v, nil
}

// Tune GET /themes/{name}/tune?rtp=x&lo=a&hi=b
//
// 在 [lo, hi] 內找出理論 RTP 等於 rtp 的倍率。
func (h *ThemeHandler) Tune(w http.ResponseWriter, r *http.Request) {
	ts, err := h.lab.ThemeByName(r.PathValue("name"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	var g optimizer.Goal
	for _, q := range []struct {
		key string
		dst *float64
	}{{"rtp", &g.RTP}, {"lo", &g.Lo}, {"hi", &g.Hi}} {
		if *q.dst, err = queryFloat(r, q.key, 0); err != nil {
			httperr.Errs(w, err)
			return
		}
	}
	res, err := optimizer.Tune(ts.Catalog, g)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
