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
	"time"

	"github.com/maestro-llm/maestro/pkg/runner"
	"github.com/maestro-llm/maestro/pkg/strategy"
)

// EstimateResult is a forecast of what executing a request would cost.
// It is computed entirely locally; no model is ever invoked.
type EstimateResult struct {
	// Strategy is the resolved strategy name.
	Strategy string

	// ExpectedCost is the forecast spend in USD.
	ExpectedCost float64

	// ExpectedDuration is the forecast wall-clock time.
	ExpectedDuration time.Duration

	// ExpectedQuality is the forecast heuristic quality score.
	ExpectedQuality float64

	// ExpectedInvocations is the forecast runner invocation count.
	ExpectedInvocations int
}

// profile holds the nominal per-strategy forecast for a short prompt.
// Costs and durations scale up with prompt length in Estimate.
type profile struct {
	cost        float64
	duration    time.Duration
	quality     float64
	invocations int
}

var profiles = map[string]profile{
	strategy.NameFast:          {cost: 0.004, duration: 8 * time.Second, quality: 0.6, invocations: 1},
	strategy.NameBalanced:      {cost: 0.015, duration: 25 * time.Second, quality: 0.65, invocations: 2},
	strategy.NameQuality:       {cost: 0.06, duration: 55 * time.Second, quality: 0.8, invocations: 3},
	strategy.NameCostOptimized: {cost: 0.01, duration: 8 * time.Second, quality: 0.5, invocations: 1},
}

// promptScaleTokens is the prompt length at which forecasts double.
const promptScaleTokens = 4000

// Estimate forecasts cost, duration and quality for a request without
// performing any invocation. Validation matches Execute: an invalid
// request fails the same way here as it would there.
func (o *Orchestrator) Estimate(req Request) (*EstimateResult, error) {
	s, prompt, err := o.resolve(req)
	if err != nil {
		return nil, err
	}

	p := profiles[s.Name()]

	// Longer prompts raise input cost and latency roughly linearly.
	scale := 1 + float64(runner.EstimateTokens(prompt))/promptScaleTokens

	cost := p.cost * scale
	if s.Name() == strategy.NameCostOptimized {
		// Proactive enforcement guarantees spend never exceeds the budget.
		budget := req.MaxCost
		if budget <= 0 {
			budget = p.cost
		}
		if cost > budget {
			cost = budget
		}
	}

	return &EstimateResult{
		Strategy:            s.Name(),
		ExpectedCost:        cost,
		ExpectedDuration:    time.Duration(float64(p.duration) * scale),
		ExpectedQuality:     p.quality,
		ExpectedInvocations: p.invocations,
	}, nil
}
