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

// Package strategy implements the execution policies composing one or more
// runner invocations into a final answer. All four strategies share one
// contract; the orchestrator selects among them by name.
package strategy

import (
	"context"
	"log/slog"
	"time"

	"github.com/maestro-llm/maestro/internal/config"
	"github.com/maestro-llm/maestro/pkg/pricing"
	"github.com/maestro-llm/maestro/pkg/quality"
	"github.com/maestro-llm/maestro/pkg/runner"
)

// Strategy names as selected by callers.
const (
	NameFast          = "fast"
	NameBalanced      = "balanced"
	NameQuality       = "quality"
	NameCostOptimized = "cost-optimized"
)

// Result is the aggregated outcome of one strategy execution.
// It is constructed once, at the end of a fully successful execution, and
// never mutated afterwards: a failed invocation loses all prior partial work.
type Result struct {
	// Output is the final generated text.
	Output string

	// ModelsUsed lists model IDs in call order; duplicates allowed.
	ModelsUsed []string

	// TotalCost is the exact sum of every invocation's cost in USD.
	TotalCost float64

	// Duration is the wall clock from strategy entry to exit.
	Duration time.Duration

	// QualityScore is the heuristic quality estimate in [0,1].
	QualityScore float64

	// Strategy is the name of the strategy that produced this result.
	Strategy string

	// Iterations is the count of runner invocations made.
	Iterations int
}

// Strategy composes one or more runner invocations into a final answer with
// a cost/quality/latency tradeoff.
type Strategy interface {
	// Name returns the registry name of this strategy.
	Name() string

	// Execute runs the strategy against the prompt. maxCost is a USD budget
	// ceiling; zero or negative means unbudgeted. Runner failures propagate
	// unchanged and no partial result is returned.
	Execute(ctx context.Context, prompt string, maxCost float64) (*Result, error)
}

// Deps carries the shared collaborators injected into every strategy.
type Deps struct {
	// Client performs runner invocations.
	Client runner.Client

	// Evaluator scores output text.
	Evaluator *quality.Evaluator

	// Pricing is the cost table, used for proactive budget math.
	Pricing *pricing.Table

	// Tiers maps model tiers to concrete model IDs.
	Tiers config.TierConfig

	// Logger is the structured logger. Nil falls back to slog.Default().
	Logger *slog.Logger
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// track accumulates per-invocation accounting during one execution.
// It only ever grows; on failure it is discarded along with all partial work.
type track struct {
	models []string
	cost   float64
	calls  int
}

func (t *track) add(res *runner.Result) {
	t.models = append(t.models, res.Model)
	t.cost += res.Cost
	t.calls++
}
