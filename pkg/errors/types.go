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

// Package errors defines the typed error taxonomy shared across the engine.
// Validation failures are rejected at the orchestrator boundary before any
// external call; runner failures are fatal to the current execution and
// propagate unchanged.
package errors

import (
	"fmt"
	"time"
)

// ValidationError represents user input validation failures.
// Use this for invalid requests: empty prompts, unknown strategy names,
// non-positive budgets.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// RunnerStage identifies where a runner invocation failed.
type RunnerStage string

const (
	// StageSpawn indicates the external process could not be started.
	StageSpawn RunnerStage = "spawn"

	// StageExit indicates the external process exited non-zero.
	StageExit RunnerStage = "exit"

	// StageDecode indicates the process output could not be parsed.
	StageDecode RunnerStage = "decode"

	// StageTimeout indicates the invocation exceeded its deadline.
	StageTimeout RunnerStage = "timeout"
)

// RunnerError represents a failed invocation of the external model runner.
// A RunnerError is fatal to the whole execution: strategies never downgrade
// it to a partial result.
type RunnerError struct {
	// Stage identifies which phase of the invocation failed
	Stage RunnerStage

	// Model is the model ID the invocation targeted
	Model string

	// Message is the human-readable error message
	Message string

	// Stderr holds a bounded excerpt of the process stderr, if any
	Stderr string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *RunnerError) Error() string {
	msg := fmt.Sprintf("runner %s failure", e.Stage)

	if e.Model != "" {
		msg = fmt.Sprintf("%s (model %s)", msg, e.Model)
	}

	msg = fmt.Sprintf("%s: %s", msg, e.Message)

	if e.Stderr != "" {
		msg = fmt.Sprintf("%s (stderr: %s)", msg, e.Stderr)
	}

	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *RunnerError) Unwrap() error {
	return e.Cause
}

// TimeoutError represents operation timeouts.
// Use this when an external invocation exceeds its configured timeout.
type TimeoutError struct {
	// Operation describes what timed out (e.g., "runner invocation")
	Operation string

	// Duration is how long the operation ran before timing out
	Duration time.Duration

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s operation timed out after %v", e.Operation, e.Duration)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// BudgetError represents a budget too small to afford any invocation.
// Budgets are enforced proactively: the token ceiling is computed before the
// invocation is issued, so a BudgetError surfaces before any spend occurs.
type BudgetError struct {
	// Limit is the caller-supplied budget in USD
	Limit float64

	// Needed is the minimum cost required to issue one invocation
	Needed float64

	// Strategy is the strategy that rejected the budget
	Strategy string
}

// Error implements the error interface.
func (e *BudgetError) Error() string {
	return fmt.Sprintf("budget $%.4f too small for strategy %s (minimum $%.4f)", e.Limit, e.Strategy, e.Needed)
}

// ConfigError represents configuration problems.
// Use this for configuration file errors, missing settings, or invalid config values.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "tiers.fast")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
