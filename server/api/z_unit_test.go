package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zintix-labs/trireel"
	"github.com/zintix-labs/trireel/metrics"
	v1 "github.com/zintix-labs/trireel/server/api/v1"
	"github.com/zintix-labs/trireel/server/logger"
	"github.com/zintix-labs/trireel/server/netsvr"
	"github.com/zintix-labs/trireel/server/svrcfg"
	"github.com/zintix-labs/trireel/themes"
)

func newTestServer(t *testing.T) (*netsvr.ChiAdapter, *svrcfg.SvrCfg) {
	t.Helper()
	lab, err := trireel.NewAuto(nil, trireel.Configs(themes.FS))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	m := metrics.New()
	log := logger.NewDefaultLogger(logger.ModeSilence)
	rt, err := lab.BuildRuntime(trireel.RuntimeOptions{Observer: m, Gauge: m, Log: log})
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	t.Cleanup(rt.Close)
	cfg := &svrcfg.SvrCfg{
		Log:     log,
		Lab:     lab,
		Runtime: rt,
		Metrics: m,
		Env:     svrcfg.EnvCfg{SimMaxRounds: 100_000, SimMaxWorkers: 4},
	}
	if err := cfg.Valid(); err != nil {
		t.Fatalf("valid: %v", err)
	}
	svr := netsvr.NewChiServer("")
	RegisterRoutes(svr, cfg)
	return svr, cfg
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSessionFlow(t *testing.T) {
	svr, _ := newTestServer(t)

	rec := do(t, svr, http.MethodGet, "/v1/themes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("themes status %d", rec.Code)
	}
	var list []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 2 {
		t.Fatalf("themes body %s (%v)", rec.Body.String(), err)
	}

	rec = do(t, svr, http.MethodPost, "/v1/sessions", map[string]any{"theme": "fruit", "seed": 7})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", rec.Code, rec.Body.String())
	}
	var sv v1.SessionView
	if err := json.Unmarshal(rec.Body.Bytes(), &sv); err != nil || sv.ID == "" {
		t.Fatalf("create body %s (%v)", rec.Body.String(), err)
	}
	base := "/v1/sessions/" + sv.ID

	rec = do(t, svr, http.MethodPost, base+"/spin", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("spin status %d: %s", rec.Code, rec.Body.String())
	}
	var sr v1.SpinResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &sr); err != nil || sr.Plan == nil {
		t.Fatalf("spin body %s (%v)", rec.Body.String(), err)
	}
	if sr.Plan.Done <= 0 || len(sr.Plan.Effects) == 0 {
		t.Fatalf("plan should carry a timeline: %+v", sr.Plan)
	}

	// 表現時間內再次 Spin 被拒絕
	rec = do(t, svr, http.MethodPost, base+"/spin", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second spin status %d, want 409", rec.Code)
	}

	for _, m := range []float64{0, 1e308} {
		rec = do(t, svr, http.MethodPut, base+"/odds", map[string]any{"multiplier": m})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("multiplier %v status %d, want 400", m, rec.Code)
		}
	}

	for i := 0; i < 2; i++ {
		rec = do(t, svr, http.MethodPost, base+"/sound", map[string]any{"on": false})
		if rec.Code != http.StatusOK {
			t.Fatalf("sound status %d: %s", rec.Code, rec.Body.String())
		}
	}
	var snd v1.SessionView
	if err := json.Unmarshal(rec.Body.Bytes(), &snd); err != nil || snd.SoundEnabled {
		t.Fatalf("sound should stay off: %s (%v)", rec.Body.String(), err)
	}

	rec = do(t, svr, http.MethodPost, "/dev/replay", map[string]any{
		"theme":   "fruit",
		"seed":    7,
		"results": []any{sr.Plan.Result},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("replay status %d: %s", rec.Code, rec.Body.String())
	}
	var rep trireel.ReplayReport
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("replay body: %v", err)
	}
	if rep.Mismatch != -1 || rep.Rounds != 1 {
		t.Fatalf("replay should match: %+v", rep)
	}

	rec = do(t, svr, http.MethodDelete, base, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status %d", rec.Code)
	}
	rec = do(t, svr, http.MethodGet, base, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted status %d, want 404", rec.Code)
	}
}

func TestSimAndMetrics(t *testing.T) {
	svr, _ := newTestServer(t)

	rec := do(t, svr, http.MethodPost, "/v1/sim", map[string]any{"theme": "fruit", "rounds": 2000, "seed": 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("sim status %d: %s", rec.Code, rec.Body.String())
	}
	var res v1.SimResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || res.Stats == nil {
		t.Fatalf("sim body %s (%v)", rec.Body.String(), err)
	}
	if res.Seed != 3 || res.Stats.Summary.Rounds != 2000 {
		t.Fatalf("unexpected sim summary: seed=%d %+v", res.Seed, res.Stats.Summary)
	}

	rec = do(t, svr, http.MethodPost, "/v1/sim", map[string]any{"theme": "fruit", "rounds": 200_000})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("over limit status %d, want 400", rec.Code)
	}
	rec = do(t, svr, http.MethodPost, "/v1/sim", map[string]any{"theme": "fruit", "rounds": 10, "bogus": 1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status %d, want 400", rec.Code)
	}

	rec = do(t, svr, http.MethodGet, "/v1/themes/fruit/tune?rtp=0.2&lo=1.6&hi=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("tune status %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, svr, http.MethodGet, "/v1/themes/fruit/tune?rtp=5", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unreachable rtp status %d, want 400", rec.Code)
	}

	do(t, svr, http.MethodPost, "/v1/sessions", map[string]any{"theme": "classic"})
	rec = do(t, svr, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"trireel_http_requests_total", "trireel_sessions_active 1"} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}
