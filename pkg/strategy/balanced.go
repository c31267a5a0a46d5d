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

	"github.com/maestro-llm/maestro/internal/log"
	"github.com/maestro-llm/maestro/pkg/runner"
)

const (
	// balancedOutlineTokens bounds the cheap outline pass.
	balancedOutlineTokens = 1000

	// balancedRefineTokens bounds the refinement pass.
	balancedRefineTokens = 4000
)

// Balanced runs two sequential invocations: a cheap outline pass whose
// output is embedded verbatim into a refinement prompt for a higher-quality
// model. The evaluator scores the refined output only.
type Balanced struct {
	deps Deps
}

// NewBalanced creates the balanced strategy.
func NewBalanced(deps Deps) *Balanced {
	return &Balanced{deps: deps}
}

// Name returns the registry name.
func (s *Balanced) Name() string { return NameBalanced }

// Execute performs the outline and refinement invocations in order.
func (s *Balanced) Execute(ctx context.Context, prompt string, maxCost float64) (*Result, error) {
	start := time.Now()
	var acc track

	outline, err := s.deps.Client.Run(ctx, runner.Invocation{
		Model:     s.deps.Tiers.Fast,
		Prompt:    buildOutlinePrompt(prompt),
		MaxTokens: balancedOutlineTokens,
	})
	if err != nil {
		return nil, err
	}
	acc.add(outline)

	refined, err := s.deps.Client.Run(ctx, runner.Invocation{
		Model:     s.deps.Tiers.Balanced,
		Prompt:    buildRefinePrompt(prompt, outline.Output),
		MaxTokens: balancedRefineTokens,
	})
	if err != nil {
		return nil, err
	}
	acc.add(refined)

	score := s.deps.Evaluator.Evaluate(refined.Output)

	s.deps.logger().Info("balanced execution complete",
		log.StrategyKey, NameBalanced,
		log.CostKey, acc.cost,
		log.QualityKey, score,
	)

	return &Result{
		Output:       refined.Output,
		ModelsUsed:   acc.models,
		TotalCost:    acc.cost,
		Duration:     time.Since(start),
		QualityScore: score,
		Strategy:     NameBalanced,
		Iterations:   acc.calls,
	}, nil
}
