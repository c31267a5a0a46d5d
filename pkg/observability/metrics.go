// Copyright 2025 Tom Barlow
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

// Package observability exposes engine metrics and the tracer used to span
// executions. Metrics are optional: a nil *Metrics is safe to use and
// records nothing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the engine.
type Metrics struct {
	executions   *prometheus.CounterVec
	invocations  *prometheus.CounterVec
	tokens       *prometheus.CounterVec
	costUSD      *prometheus.CounterVec
	execDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the engine metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maestro_executions_total",
			Help: "Completed Execute calls by strategy and status.",
		}, []string{"strategy", "status"}),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maestro_invocations_total",
			Help: "Runner invocations by strategy and model.",
		}, []string{"strategy", "model"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maestro_tokens_total",
			Help: "Tokens consumed by model and direction (in/out).",
		}, []string{"model", "direction"}),
		costUSD: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maestro_cost_usd_total",
			Help: "Cost in USD by strategy and model.",
		}, []string{"strategy", "model"}),
		execDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "maestro_execution_duration_seconds",
			Help:    "Wall-clock duration of Execute calls by strategy.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"strategy"}),
	}

	reg.MustRegister(m.executions, m.invocations, m.tokens, m.costUSD, m.execDuration)
	return m
}

// ObserveExecution records a completed Execute call.
func (m *Metrics) ObserveExecution(strategy, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(strategy, status).Inc()
	m.execDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// ObserveInvocation records a single runner invocation.
func (m *Metrics) ObserveInvocation(strategy, model string, tokensIn, tokensOut int, costUSD float64) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(strategy, model).Inc()
	m.tokens.WithLabelValues(model, "in").Add(float64(tokensIn))
	m.tokens.WithLabelValues(model, "out").Add(float64(tokensOut))
	m.costUSD.WithLabelValues(strategy, model).Add(costUSD)
}
