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

package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/maestro-llm/maestro/internal/config"
	"github.com/maestro-llm/maestro/pkg/errors"
	"github.com/maestro-llm/maestro/pkg/ledger"
	"github.com/maestro-llm/maestro/pkg/pricing"
	"github.com/maestro-llm/maestro/pkg/runner"
	"github.com/maestro-llm/maestro/pkg/strategy"
)

// spyClient records invocations and answers with a fixed result.
type spyClient struct {
	mu    sync.Mutex
	calls []runner.Invocation
}

func (c *spyClient) Run(ctx context.Context, inv runner.Invocation) (*runner.Result, error) {
	c.mu.Lock()
	c.calls = append(c.calls, inv)
	c.mu.Unlock()
	return &runner.Result{
		Model:     inv.Model,
		Output:    "canned output",
		TokensIn:  10,
		TokensOut: 20,
		Cost:      0.001,
	}, nil
}

func (c *spyClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func newOrchestrator(t *testing.T, client runner.Client, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := New(config.Default(), client, pricing.NewTable(), opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return o
}

func TestExecuteFast(t *testing.T) {
	client := &spyClient{}
	o := newOrchestrator(t, client)

	result, err := o.Execute(context.Background(), Request{Prompt: "p", Strategy: "fast"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Strategy != strategy.NameFast {
		t.Errorf("strategy = %q", result.Strategy)
	}
	if client.callCount() != 1 {
		t.Errorf("calls = %d, want 1", client.callCount())
	}
	if result.Output != "canned output" {
		t.Errorf("output = %q", result.Output)
	}
}

func TestExecuteDefaultsToBalanced(t *testing.T) {
	client := &spyClient{}
	o := newOrchestrator(t, client)

	result, err := o.Execute(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Strategy != strategy.NameBalanced {
		t.Errorf("strategy = %q, want balanced by default", result.Strategy)
	}
	if client.callCount() != 2 {
		t.Errorf("calls = %d, want 2 for balanced", client.callCount())
	}
}

func TestExecuteEmptyPrompt(t *testing.T) {
	client := &spyClient{}
	o := newOrchestrator(t, client)

	_, err := o.Execute(context.Background(), Request{Prompt: "   "})
	var ve *errors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if ve.Field != "prompt" {
		t.Errorf("Field = %q", ve.Field)
	}
	if client.callCount() != 0 {
		t.Error("validation must precede any invocation")
	}
}

func TestExecuteUnknownStrategy(t *testing.T) {
	client := &spyClient{}
	o := newOrchestrator(t, client)

	_, err := o.Execute(context.Background(), Request{Prompt: "p", Strategy: "turbo"})
	var ve *errors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if ve.Field != "strategy" {
		t.Errorf("Field = %q", ve.Field)
	}
	if !strings.Contains(ve.Suggestion, "balanced") {
		t.Errorf("suggestion should list valid names: %q", ve.Suggestion)
	}
	if client.callCount() != 0 {
		t.Error("unknown strategy must not invoke the runner")
	}
}

func TestExecuteNegativeBudget(t *testing.T) {
	o := newOrchestrator(t, &spyClient{})

	_, err := o.Execute(context.Background(), Request{Prompt: "p", MaxCost: -1})
	var ve *errors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if ve.Field != "max_cost" {
		t.Errorf("Field = %q", ve.Field)
	}
}

func TestExecutePrependsContext(t *testing.T) {
	client := &spyClient{}
	o := newOrchestrator(t, client)

	_, err := o.Execute(context.Background(), Request{
		Prompt:   "write the summary",
		Strategy: "fast",
		Context:  "background: prior meeting notes",
	})
	if err != nil {
		t.Fatal(err)
	}

	prompt := client.calls[0].Prompt
	if !strings.HasPrefix(prompt, "background: prior meeting notes") {
		t.Errorf("context not prepended: %q", prompt)
	}
	if !strings.Contains(prompt, "write the summary") {
		t.Errorf("prompt text missing: %q", prompt)
	}
}

func TestExecuteAppendsLedgerRecords(t *testing.T) {
	store := ledger.NewMemoryStore()
	o := newOrchestrator(t, &spyClient{}, WithLedger(store))

	ctx := context.Background()
	if _, err := o.Execute(ctx, Request{Prompt: "p", Strategy: "balanced"}); err != nil {
		t.Fatal(err)
	}

	total, err := store.Total(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if total.InvocationCount != 2 {
		t.Fatalf("ledger records = %d, want 2", total.InvocationCount)
	}

	byStrategy, err := store.AggregateByStrategy(ctx)
	if err != nil {
		t.Fatal(err)
	}
	agg, ok := byStrategy["balanced"]
	if !ok {
		t.Fatal("records not attributed to the balanced strategy")
	}
	if agg.TotalCostUSD != 0.002 {
		t.Errorf("ledger cost = %v, want 0.002", agg.TotalCostUSD)
	}
}

// captureStore records every appended ledger record.
type captureStore struct {
	ledger.Store
	mu      sync.Mutex
	records []ledger.Record
}

func (s *captureStore) Append(ctx context.Context, record ledger.Record) error {
	s.mu.Lock()
	s.records = append(s.records, record)
	s.mu.Unlock()
	return s.Store.Append(ctx, record)
}

func TestExecuteDistinctExecutionIDs(t *testing.T) {
	store := &captureStore{Store: ledger.NewMemoryStore()}
	o := newOrchestrator(t, &spyClient{}, WithLedger(store))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := o.Execute(ctx, Request{Prompt: "p", Strategy: "fast"}); err != nil {
			t.Fatal(err)
		}
	}

	if len(store.records) != 2 {
		t.Fatalf("records = %d, want 2", len(store.records))
	}
	first, second := store.records[0], store.records[1]
	if first.ExecutionID == "" || first.ExecutionID == second.ExecutionID {
		t.Errorf("execution IDs not distinct: %q vs %q", first.ExecutionID, second.ExecutionID)
	}
}

func TestStrategies(t *testing.T) {
	o := newOrchestrator(t, &spyClient{})
	want := []string{"balanced", "cost-optimized", "fast", "quality"}
	got := o.Strategies()
	if len(got) != len(want) {
		t.Fatalf("strategies = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("strategies[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
