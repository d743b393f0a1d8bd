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

// Package metrics 提供 Prometheus 指標。
//
// 每個 Metrics 有自己的 Registry，同一個行程可以建立多份（測試用）。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zintix-labs/trireel/sdk/reel"
)

const namespace = "trireel"

const (
	LabelTheme   = "theme"
	LabelOutcome = "outcome"
	LabelMethod  = "method"
	LabelStatus  = "status"
)

type Metrics struct {
	reg *prometheus.Registry

	spins    *prometheus.CounterVec
	rejected *prometheus.CounterVec
	payout   *prometheus.CounterVec
	sessions prometheus.Gauge
	requests *prometheus.CounterVec
}

// New 建立一組指標並註冊 Go runtime 與 process collector。
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		spins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spins_total",
			Help:      "Finished spins by theme and outcome.",
		}, []string{LabelTheme, LabelOutcome}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spins_rejected_total",
			Help:      "Spin requests ignored because the session was already spinning.",
		}, []string{LabelTheme}),
		payout: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payout_total",
			Help:      "Sum of payout multipliers awarded.",
		}, []string{LabelTheme}),
		sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions currently held in the session cache.",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{LabelMethod, LabelStatus}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler 回傳 /metrics 的 handler。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) OnSpin(theme string, r reel.Result) {
	m.spins.WithLabelValues(theme, r.Outcome.Kind.String()).Inc()
	if r.Outcome.Payout > 0 {
		m.payout.WithLabelValues(theme).Add(r.Outcome.Payout)
	}
}

func (m *Metrics) OnReject(theme string) { m.rejected.WithLabelValues(theme).Inc() }

func (m *Metrics) SessionOpened() { m.sessions.Inc() }
func (m *Metrics) SessionClosed() { m.sessions.Dec() }

// ObserveRequest 紀錄一個已完成的 HTTP 請求。
func (m *Metrics) ObserveRequest(method string, status int) {
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
