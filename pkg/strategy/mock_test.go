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
	"sync"

	"github.com/maestro-llm/maestro/internal/config"
	"github.com/maestro-llm/maestro/pkg/pricing"
	"github.com/maestro-llm/maestro/pkg/quality"
	"github.com/maestro-llm/maestro/pkg/runner"
)

// mockClient scripts runner responses without spawning processes.
type mockClient struct {
	mu    sync.Mutex
	calls []runner.Invocation

	// respond produces the result for the nth call (zero-based).
	respond func(n int, inv runner.Invocation) (*runner.Result, error)
}

func (m *mockClient) Run(ctx context.Context, inv runner.Invocation) (*runner.Result, error) {
	m.mu.Lock()
	n := len(m.calls)
	m.calls = append(m.calls, inv)
	m.mu.Unlock()

	return m.respond(n, inv)
}

func (m *mockClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockClient) call(n int) runner.Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[n]
}

// canned builds a respond function returning fixed results in order.
func canned(results ...runner.Result) func(int, runner.Invocation) (*runner.Result, error) {
	return func(n int, inv runner.Invocation) (*runner.Result, error) {
		r := results[n%len(results)]
		if r.Model == "" {
			r.Model = inv.Model
		}
		return &r, nil
	}
}

func testTiers() config.TierConfig {
	return config.TierConfig{
		Fast:         "tier-fast",
		Balanced:     "tier-balanced",
		Strategic:    "tier-strategic",
		StrategicAlt: "tier-strategic-alt",
	}
}

func testDeps(client runner.Client) Deps {
	return Deps{
		Client:    client,
		Evaluator: quality.NewEvaluator(),
		Pricing:   pricing.NewTable(),
		Tiers:     testTiers(),
	}
}

// structuredText saturates the evaluator: long, headed, listed, fenced and
// technical, it scores well above the quality threshold.
const structuredText = `# Design

## Architecture

- The api layer handles validation and authentication for every request.
- The database schema keeps transaction integrity across writes.
- The cache middleware reduces latency and improves throughput.
- The protocol layer isolates transport from business concerns.
- The configuration loader validates settings before startup.

## Implementation

The implementation separates concurrency concerns from the protocol layer.
Performance and scalability follow from the infrastructure choices below,
including encryption at the endpoint and careful dependency management.
The deployment pipeline runs the optimization pass before rollout, trimming
complexity from the algorithm hot path. Each service boundary is documented
with an interface contract so that integration points stay stable while the
internals evolve. Observability hooks record latency percentiles per
endpoint, and the security review covers both authentication flows and the
encryption of data at rest. Capacity planning assumes linear growth in
transaction volume with seasonal peaks absorbed by the cache tier.

` + "```" + `
GET /records
POST /records
` + "```" + `

## Deployment

Each deployment step validates configuration before rollout, and the
scalability targets are revisited after every capacity review. Rollbacks
are automated: a failed health check restores the previous release and
flags the middleware configuration for inspection.

` + "```" + `
maestro run --strategy quality "Design an API"
` + "```" + `

The remaining work tracks schema migration tooling and a performance
harness for the database layer.`

// flatText scores below the quality threshold.
const flatText = "A short, unstructured reply."
