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

// Package orchestrator is the engine entry point: it validates requests,
// selects a strategy from the registry, and surrounds execution with
// identification, accounting, metrics and tracing.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/maestro-llm/maestro/internal/config"
	"github.com/maestro-llm/maestro/internal/log"
	"github.com/maestro-llm/maestro/pkg/errors"
	"github.com/maestro-llm/maestro/pkg/ledger"
	"github.com/maestro-llm/maestro/pkg/observability"
	"github.com/maestro-llm/maestro/pkg/pricing"
	"github.com/maestro-llm/maestro/pkg/quality"
	"github.com/maestro-llm/maestro/pkg/runner"
	"github.com/maestro-llm/maestro/pkg/strategy"
)

// Request describes one execution to perform.
type Request struct {
	// Prompt is the user's task. Required.
	Prompt string

	// Strategy selects the execution policy by name. Empty selects
	// "balanced".
	Strategy string

	// MaxCost is an optional USD budget ceiling. Zero means unbudgeted
	// (strategies with a mandatory budget apply their own default).
	MaxCost float64

	// Context is optional background text prepended to the prompt.
	Context string
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithLedger sets the cost ledger; every runner invocation appends a record.
func WithLedger(store ledger.Store) Option {
	return func(o *Orchestrator) { o.ledger = store }
}

// WithMetrics sets the Prometheus metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithTracer sets the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// Orchestrator routes requests to strategies and owns the cross-cutting
// concerns around them. It is safe for concurrent use; the registry is
// built once at construction and never mutated.
type Orchestrator struct {
	strategies map[string]strategy.Strategy
	pricing    *pricing.Table
	ledger     ledger.Store
	metrics    *observability.Metrics
	tracer     trace.Tracer
	logger     *slog.Logger
}

// New builds an orchestrator with all four strategies registered. The
// runner client is shared across strategies, wrapped so each invocation
// lands in the ledger and metrics.
func New(cfg *config.Config, client runner.Client, table *pricing.Table, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		pricing: table,
		tracer:  noop.NewTracerProvider().Tracer(""),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	deps := strategy.Deps{
		Client:    &recordingClient{inner: client, ledger: o.ledger, metrics: o.metrics},
		Evaluator: quality.NewEvaluator(),
		Pricing:   table,
		Tiers:     cfg.Tiers,
		Logger:    o.logger,
	}

	q, err := strategy.NewQuality(deps, cfg.Quality)
	if err != nil {
		return nil, err
	}

	o.strategies = map[string]strategy.Strategy{}
	for _, s := range []strategy.Strategy{
		strategy.NewFast(deps),
		strategy.NewBalanced(deps),
		q,
		strategy.NewCostOptimized(deps),
	} {
		o.strategies[s.Name()] = s
	}
	return o, nil
}

// Strategies returns the registered strategy names, sorted.
func (o *Orchestrator) Strategies() []string {
	names := make([]string, 0, len(o.strategies))
	for name := range o.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs one request end to end and returns the aggregated result.
// Validation failures return a ValidationError before any invocation.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (*strategy.Result, error) {
	s, prompt, err := o.resolve(req)
	if err != nil {
		return nil, err
	}

	executionID := uuid.NewString()
	ctx = withExecution(ctx, execution{id: executionID, strategy: s.Name()})

	logger := o.logger.With(log.ExecutionIDKey, executionID, log.StrategyKey, s.Name())
	logger.Info("execution started", "prompt_tokens", runner.EstimateTokens(prompt))

	ctx, span := o.tracer.Start(ctx, "maestro.execute", trace.WithAttributes(
		attribute.String("maestro.execution_id", executionID),
		attribute.String("maestro.strategy", s.Name()),
	))
	defer span.End()

	start := time.Now()
	result, err := s.Execute(ctx, prompt, req.MaxCost)
	elapsed := time.Since(start)
	if err != nil {
		o.metrics.ObserveExecution(s.Name(), "error", elapsed)
		span.RecordError(err)
		logger.Error("execution failed", log.EventKey, "execution_failed", "error", err)
		return nil, err
	}

	o.metrics.ObserveExecution(s.Name(), "success", elapsed)
	span.SetAttributes(
		attribute.Float64("maestro.cost_usd", result.TotalCost),
		attribute.Float64("maestro.quality_score", result.QualityScore),
		attribute.Int("maestro.iterations", result.Iterations),
	)
	logger.Info("execution complete",
		log.CostKey, result.TotalCost,
		log.QualityKey, result.QualityScore,
		log.DurationKey, result.Duration,
		log.IterationKey, result.Iterations,
	)
	return result, nil
}

// resolve validates the request and picks the strategy and effective prompt.
func (o *Orchestrator) resolve(req Request) (strategy.Strategy, string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, "", &errors.ValidationError{
			Field:      "prompt",
			Message:    "prompt must not be empty",
			Suggestion: "provide the task text to execute",
		}
	}
	if req.MaxCost < 0 {
		return nil, "", &errors.ValidationError{
			Field:      "max_cost",
			Message:    fmt.Sprintf("budget %v is negative", req.MaxCost),
			Suggestion: "use a positive USD amount, or zero for no budget",
		}
	}

	name := req.Strategy
	if name == "" {
		name = strategy.NameBalanced
	}
	s, ok := o.strategies[name]
	if !ok {
		return nil, "", &errors.ValidationError{
			Field:      "strategy",
			Message:    fmt.Sprintf("unknown strategy %q", name),
			Suggestion: "one of: " + strings.Join(o.Strategies(), ", "),
		}
	}

	prompt := req.Prompt
	if req.Context != "" {
		prompt = req.Context + "\n\n" + req.Prompt
	}
	return s, prompt, nil
}
