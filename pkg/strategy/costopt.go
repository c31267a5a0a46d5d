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
	"github.com/maestro-llm/maestro/pkg/errors"
	"github.com/maestro-llm/maestro/pkg/runner"
)

const (
	// costOptDefaultBudget applies when the caller supplies no budget.
	costOptDefaultBudget = 0.01

	// costOptTokenCap is the absolute output ceiling regardless of budget.
	costOptTokenCap = 1000

	// costOptMinTokens is the smallest ceiling worth invoking for.
	costOptMinTokens = 16

	// costOptQualityScore reflects the deliberate quality/cost tradeoff.
	costOptQualityScore = 0.5
)

// CostOptimized answers with exactly one cheap-tier invocation whose output
// token ceiling is derived from the budget before the call is issued.
// Enforcement is proactive: there is no mechanism to claw back spend once
// an invocation has started.
type CostOptimized struct {
	deps Deps
}

// NewCostOptimized creates the cost-optimized strategy.
func NewCostOptimized(deps Deps) *CostOptimized {
	return &CostOptimized{deps: deps}
}

// Name returns the registry name.
func (s *CostOptimized) Name() string { return NameCostOptimized }

// Execute performs one invocation bounded by the budget-derived token ceiling.
func (s *CostOptimized) Execute(ctx context.Context, prompt string, maxCost float64) (*Result, error) {
	start := time.Now()

	budget := maxCost
	if budget <= 0 {
		budget = costOptDefaultBudget
	}

	maxTokens, err := s.tokenCeiling(prompt, budget)
	if err != nil {
		return nil, err
	}

	res, err := s.deps.Client.Run(ctx, runner.Invocation{
		Model:     s.deps.Tiers.Fast,
		Prompt:    prompt,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, err
	}

	s.deps.logger().Info("cost-optimized execution complete",
		log.StrategyKey, NameCostOptimized,
		log.ModelKey, res.Model,
		log.CostKey, res.Cost,
		"max_tokens", maxTokens,
	)

	return &Result{
		Output:       res.Output,
		ModelsUsed:   []string{res.Model},
		TotalCost:    res.Cost,
		Duration:     time.Since(start),
		QualityScore: costOptQualityScore,
		Strategy:     NameCostOptimized,
		Iterations:   1,
	}, nil
}

// tokenCeiling converts the budget into an output token ceiling.
// The input cost estimate is reserved first, the remaining allowance is
// halved as a safety margin against pricing-estimate error, and an absolute
// cap applies on top.
func (s *CostOptimized) tokenCeiling(prompt string, budget float64) (int, error) {
	model := s.deps.Tiers.Fast

	inputRate, _ := s.deps.Pricing.Lookup(model)
	estInputCost := float64(runner.EstimateTokens(prompt)) / 1_000_000.0 * inputRate.InputPricePerMillion

	allowance := budget - estInputCost
	outputRate := s.deps.Pricing.OutputTokenRate(model)
	if outputRate <= 0 {
		// Unknown model pricing: fall back to the absolute cap.
		return costOptTokenCap, nil
	}

	maxTokens := int(allowance / outputRate / 2)
	if maxTokens > costOptTokenCap {
		maxTokens = costOptTokenCap
	}
	if maxTokens < costOptMinTokens {
		return 0, &errors.BudgetError{
			Limit:    budget,
			Needed:   estInputCost + float64(costOptMinTokens)*outputRate*2,
			Strategy: NameCostOptimized,
		}
	}

	return maxTokens, nil
}
