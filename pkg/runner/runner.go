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

// Package runner abstracts the external text-generation capability behind a
// single-call client interface. The concrete implementation spawns one CLI
// process per invocation; tests substitute a canned client.
package runner

import (
	"context"
	"time"
)

// Invocation is one request to the external text-generation capability.
// It is a value type constructed once per call and never mutated.
type Invocation struct {
	// Model is the model identifier to invoke.
	Model string

	// Prompt is the full prompt text sent to the model.
	Prompt string

	// MaxTokens is the output token ceiling for this invocation.
	MaxTokens int
}

// Result is the normalized outcome of one successful invocation.
// It is produced exactly once and never mutated afterwards.
type Result struct {
	// Model is the model that handled the invocation.
	Model string

	// Output is the generated text.
	Output string

	// TokensIn is the number of input (prompt) tokens.
	TokensIn int

	// TokensOut is the number of output (completion) tokens.
	TokensOut int

	// Cost is the invocation cost in USD, derived locally from the pricing
	// table, never trusted from the external side.
	Cost float64

	// WallTime is the wall-clock duration of the invocation, measured by
	// bracketing the external call.
	WallTime time.Duration
}

// Client invokes the external text-generation capability once per call.
// Implementations must be safe for concurrent use: each Run is independent
// and shares no mutable state with other calls.
type Client interface {
	// Run performs one invocation and returns its normalized result.
	// It blocks until the external process completes, fails, or the context
	// is cancelled. Failures surface as *errors.RunnerError; no partial
	// result is ever returned alongside an error.
	Run(ctx context.Context, inv Invocation) (*Result, error)
}
