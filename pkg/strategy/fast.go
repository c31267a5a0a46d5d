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
	// fastMaxTokens is the fixed output ceiling for the fast strategy.
	fastMaxTokens = 2000

	// fastQualityScore is the assumed quality of a single cheap-tier pass.
	// The fast strategy targets throughput over accuracy and deliberately
	// skips the evaluator.
	fastQualityScore = 0.6
)

// Fast answers with exactly one invocation of the cheapest model tier.
type Fast struct {
	deps Deps
}

// NewFast creates the fast strategy.
func NewFast(deps Deps) *Fast {
	return &Fast{deps: deps}
}

// Name returns the registry name.
func (s *Fast) Name() string { return NameFast }

// Execute performs a single cheap-tier invocation with a fixed token ceiling.
func (s *Fast) Execute(ctx context.Context, prompt string, maxCost float64) (*Result, error) {
	start := time.Now()

	res, err := s.deps.Client.Run(ctx, runner.Invocation{
		Model:     s.deps.Tiers.Fast,
		Prompt:    prompt,
		MaxTokens: fastMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	s.deps.logger().Info("fast execution complete",
		log.StrategyKey, NameFast,
		log.ModelKey, res.Model,
		log.CostKey, res.Cost,
	)

	return &Result{
		Output:       res.Output,
		ModelsUsed:   []string{res.Model},
		TotalCost:    res.Cost,
		Duration:     time.Since(start),
		QualityScore: fastQualityScore,
		Strategy:     NameFast,
		Iterations:   1,
	}, nil
}
