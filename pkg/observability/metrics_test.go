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

package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveInvocation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveInvocation("balanced", "m1", 100, 50, 0.002)
	m.ObserveInvocation("balanced", "m1", 200, 100, 0.004)

	if got := testutil.ToFloat64(m.invocations.WithLabelValues("balanced", "m1")); got != 2 {
		t.Errorf("invocations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.tokens.WithLabelValues("m1", "in")); got != 300 {
		t.Errorf("tokens in = %v, want 300", got)
	}
	if got := testutil.ToFloat64(m.costUSD.WithLabelValues("balanced", "m1")); got != 0.006 {
		t.Errorf("cost = %v, want 0.006", got)
	}
}

func TestObserveExecution(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveExecution("fast", "success", 2*time.Second)
	m.ObserveExecution("fast", "error", time.Second)

	if got := testutil.ToFloat64(m.executions.WithLabelValues("fast", "success")); got != 1 {
		t.Errorf("success executions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.executions.WithLabelValues("fast", "error")); got != 1 {
		t.Errorf("error executions = %v, want 1", got)
	}
}

func TestNilMetricsSafe(t *testing.T) {
	var m *Metrics

	// Must not panic.
	m.ObserveExecution("fast", "success", time.Second)
	m.ObserveInvocation("fast", "m", 1, 1, 0.001)
}
