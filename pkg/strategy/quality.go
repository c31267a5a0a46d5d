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

package strategy

import (
	"context"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/maestro-llm/maestro/internal/config"
	"github.com/maestro-llm/maestro/internal/log"
	"github.com/maestro-llm/maestro/pkg/errors"
	"github.com/maestro-llm/maestro/pkg/runner"
)

const (
	// qualityOutlineTokens bounds the cheap outline pass.
	qualityOutlineTokens = 1000

	// qualityAnalysisTokens bounds the detailed analysis and refinement passes.
	qualityAnalysisTokens = 4000

	// defaultGate is the built-in refinement loop predicate.
	defaultGate = "score < threshold && iterations < max_iterations"
)

// gateEnv is the environment visible to the gate expression.
type gateEnv struct {
	Score         float64 `expr:"score"`
	Iterations    int     `expr:"iterations"`
	Threshold     float64 `expr:"threshold"`
	MaxIterations int     `expr:"max_iterations"`
}

// Quality runs a bounded, quality-gated refinement loop: a cheap outline, a
// detailed analysis pass on the strategic tier, then refinement invocations
// while the gate holds. Successive refinements alternate between the two
// strategic models for diversity of failure modes, not randomness.
type Quality struct {
	deps      Deps
	threshold float64
	maxIter   int
	gate      *vm.Program
}

// NewQuality creates the quality strategy, compiling the gate predicate once.
func NewQuality(deps Deps, cfg config.QualityConfig) (*Quality, error) {
	gate := cfg.Gate
	if gate == "" {
		gate = defaultGate
	}

	program, err := expr.Compile(gate, expr.Env(gateEnv{}), expr.AsBool())
	if err != nil {
		return nil, &errors.ConfigError{Key: "quality.gate", Reason: "gate expression does not compile", Cause: err}
	}

	return &Quality{
		deps:      deps,
		threshold: cfg.Threshold,
		maxIter:   cfg.MaxIterations,
		gate:      program,
	}, nil
}

// Name returns the registry name.
func (s *Quality) Name() string { return NameQuality }

// Execute performs the outline, analysis and gated refinement invocations.
// Iterations never exceed the configured cap, by construction: the gate is a
// pure predicate over the current score and call count.
func (s *Quality) Execute(ctx context.Context, prompt string, maxCost float64) (*Result, error) {
	start := time.Now()
	var acc track

	outline, err := s.deps.Client.Run(ctx, runner.Invocation{
		Model:     s.deps.Tiers.Fast,
		Prompt:    buildOutlinePrompt(prompt),
		MaxTokens: qualityOutlineTokens,
	})
	if err != nil {
		return nil, err
	}
	acc.add(outline)

	candidate, err := s.deps.Client.Run(ctx, runner.Invocation{
		Model:     s.deps.Tiers.Strategic,
		Prompt:    buildAnalysisPrompt(prompt, outline.Output),
		MaxTokens: qualityAnalysisTokens,
	})
	if err != nil {
		return nil, err
	}
	acc.add(candidate)

	best := candidate.Output
	bestScore := s.deps.Evaluator.Evaluate(best)

	for s.shouldRefine(bestScore, acc.calls) {
		model := s.refinementModel(acc.calls)

		refined, err := s.deps.Client.Run(ctx, runner.Invocation{
			Model:     model,
			Prompt:    buildDeepenPrompt(prompt, best),
			MaxTokens: qualityAnalysisTokens,
		})
		if err != nil {
			return nil, err
		}
		acc.add(refined)

		// Keep the refinement only when it actually improves the score.
		if score := s.deps.Evaluator.Evaluate(refined.Output); score >= bestScore {
			best = refined.Output
			bestScore = score
		}

		s.deps.logger().Debug("refinement iteration complete",
			log.StrategyKey, NameQuality,
			log.IterationKey, acc.calls,
			log.ModelKey, model,
			log.QualityKey, bestScore,
		)
	}

	s.deps.logger().Info("quality execution complete",
		log.StrategyKey, NameQuality,
		log.IterationKey, acc.calls,
		log.CostKey, acc.cost,
		log.QualityKey, bestScore,
	)

	return &Result{
		Output:       best,
		ModelsUsed:   acc.models,
		TotalCost:    acc.cost,
		Duration:     time.Since(start),
		QualityScore: bestScore,
		Strategy:     NameQuality,
		Iterations:   acc.calls,
	}, nil
}

// shouldRefine evaluates the gate predicate. A gate that fails to evaluate
// stops the loop: refinement is an optimization, never worth an error.
func (s *Quality) shouldRefine(score float64, iterations int) bool {
	out, err := expr.Run(s.gate, gateEnv{
		Score:         score,
		Iterations:    iterations,
		Threshold:     s.threshold,
		MaxIterations: s.maxIter,
	})
	if err != nil {
		s.deps.logger().Warn("quality gate evaluation failed", "error", err)
		return false
	}
	proceed, _ := out.(bool)
	// Hard cap regardless of what the configured gate says.
	return proceed && iterations < s.maxIter
}

// refinementModel alternates between the two strategic models, starting
// with the alternate: the analysis candidate was just produced by the
// strategic model, so the first refinement must come from a different one.
func (s *Quality) refinementModel(iterations int) string {
	if iterations%2 == 0 {
		return s.deps.Tiers.StrategicAlt
	}
	return s.deps.Tiers.Strategic
}
