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
	"time"

	"github.com/maestro-llm/maestro/pkg/ledger"
	"github.com/maestro-llm/maestro/pkg/observability"
	"github.com/maestro-llm/maestro/pkg/runner"
)

type executionKey struct{}

// execution identifies the in-flight Execute call. It travels on the
// context so one shared client can attribute invocations correctly under
// concurrent executions.
type execution struct {
	id       string
	strategy string
}

func withExecution(ctx context.Context, e execution) context.Context {
	return context.WithValue(ctx, executionKey{}, e)
}

func executionFrom(ctx context.Context) execution {
	e, _ := ctx.Value(executionKey{}).(execution)
	return e
}

// recordingClient decorates a runner client so every successful invocation
// is appended to the ledger and counted in metrics. Failures pass through
// untouched.
type recordingClient struct {
	inner   runner.Client
	ledger  ledger.Store
	metrics *observability.Metrics
}

func (c *recordingClient) Run(ctx context.Context, inv runner.Invocation) (*runner.Result, error) {
	res, err := c.inner.Run(ctx, inv)
	if err != nil {
		return nil, err
	}

	e := executionFrom(ctx)
	c.metrics.ObserveInvocation(e.strategy, res.Model, res.TokensIn, res.TokensOut, res.Cost)
	if c.ledger != nil {
		record := ledger.Record{
			ExecutionID: e.id,
			Strategy:    e.strategy,
			Model:       res.Model,
			TokensIn:    res.TokensIn,
			TokensOut:   res.TokensOut,
			CostUSD:     res.Cost,
			Timestamp:   time.Now().UTC(),
		}
		// Accounting failures must not fail the execution.
		_ = c.ledger.Append(ctx, record)
	}
	return res, nil
}
