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

package runner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/maestro-llm/maestro/internal/log"
	"github.com/maestro-llm/maestro/pkg/errors"
	"github.com/maestro-llm/maestro/pkg/pricing"
)

// DefaultTimeout bounds a single invocation. The process is killed and the
// call surfaced as a RunnerError when it expires.
const DefaultTimeout = 120 * time.Second

// maxStderrExcerpt bounds how much stderr is carried into error messages.
const maxStderrExcerpt = 512

// CLIClient implements Client by spawning the model CLI once per invocation.
// It holds no mutable per-call state and is safe for concurrent use.
type CLIClient struct {
	command string
	path    string
	timeout time.Duration
	table   *pricing.Table
	limiter *rate.Limiter
	logger  *slog.Logger

	// resolved is the command actually spawned. Written exactly once inside
	// detectOnce and read only after Do returns, so no lock is needed.
	detectOnce sync.Once
	resolved   string
}

// CLIOption configures a CLIClient.
type CLIOption func(*CLIClient)

// WithTimeout overrides the per-invocation timeout.
func WithTimeout(d time.Duration) CLIOption {
	return func(c *CLIClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCommand pins the CLI command instead of auto-detecting it.
func WithCommand(command string) CLIOption {
	return func(c *CLIClient) {
		c.command = command
	}
}

// WithRateLimit throttles invocations to n per second with the given burst.
// Useful when many concurrent executions share one client. A non-positive
// rate disables throttling: a zero-rate limiter would never replenish and
// permanently block every call after the burst.
func WithRateLimit(n float64, burst int) CLIOption {
	return func(c *CLIClient) {
		if n <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(n), burst)
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) CLIOption {
	return func(c *CLIClient) {
		c.logger = logger
	}
}

// NewCLIClient creates a CLI-backed runner client. The pricing table is
// required: invocation cost is always derived locally from token counts.
func NewCLIClient(table *pricing.Table, opts ...CLIOption) *CLIClient {
	c := &CLIClient{
		timeout: DefaultTimeout,
		table:   table,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run spawns one CLI process for the invocation and returns its normalized
// result. Spawn failure, non-zero exit, timeout, and undecodable output all
// surface as *errors.RunnerError. No retries are performed.
func (c *CLIClient) Run(ctx context.Context, inv Invocation) (*Result, error) {
	if inv.Model == "" {
		return nil, &errors.RunnerError{Stage: errors.StageSpawn, Message: "invocation has no model"}
	}
	if inv.Prompt == "" {
		return nil, &errors.RunnerError{Stage: errors.StageSpawn, Model: inv.Model, Message: "invocation has no prompt"}
	}

	command, ok := c.resolveCommand()
	if !ok {
		return nil, &errors.RunnerError{
			Stage:   errors.StageSpawn,
			Model:   inv.Model,
			Message: fmt.Sprintf("model CLI not found in PATH (tried %s)", strings.Join(cliCandidates, ", ")),
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &errors.RunnerError{Stage: errors.StageSpawn, Model: inv.Model, Message: "cancelled while rate limited", Cause: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, command, c.buildArgs(inv)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	wallTime := time.Since(start)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &errors.RunnerError{
				Stage:   errors.StageTimeout,
				Model:   inv.Model,
				Message: "invocation exceeded timeout",
				Cause:   &errors.TimeoutError{Operation: "runner invocation", Duration: c.timeout, Cause: err},
			}
		}

		stage := errors.StageExit
		if _, ok := err.(*exec.ExitError); !ok {
			stage = errors.StageSpawn
		}
		return nil, &errors.RunnerError{
			Stage:   stage,
			Model:   inv.Model,
			Message: err.Error(),
			Stderr:  excerpt(stderr.String()),
			Cause:   err,
		}
	}

	env, err := parseEnvelope(stdout.Bytes())
	if err != nil {
		return nil, &errors.RunnerError{
			Stage:   errors.StageDecode,
			Model:   inv.Model,
			Message: "undecodable runner output",
			Cause:   err,
		}
	}

	tokensIn := env.TokensIn
	if tokensIn <= 0 {
		tokensIn = EstimateTokens(inv.Prompt)
	}
	tokensOut := env.TokensOut
	if tokensOut <= 0 {
		tokensOut = EstimateTokens(env.Output)
	}

	result := &Result{
		Model:     inv.Model,
		Output:    env.Output,
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
		Cost:      c.table.Cost(inv.Model, tokensIn, tokensOut),
		WallTime:  wallTime,
	}

	c.logger.Debug("runner invocation complete",
		log.ModelKey, inv.Model,
		"tokens_in", result.TokensIn,
		"tokens_out", result.TokensOut,
		log.CostKey, result.Cost,
		log.DurationKey, wallTime.Milliseconds(),
	)

	return result, nil
}

// buildArgs constructs the command-line arguments for the model CLI.
func (c *CLIClient) buildArgs(inv Invocation) []string {
	args := []string{"--model", inv.Model}

	if inv.MaxTokens > 0 {
		args = append(args, "--max-tokens", fmt.Sprintf("%d", inv.MaxTokens))
	}

	args = append(args, "--output-format", "json")
	args = append(args, "-p", inv.Prompt)

	return args
}

// excerpt bounds stderr text carried into error messages.
func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrExcerpt {
		return s[:maxStderrExcerpt] + "..."
	}
	return s
}

// EstimateTokens approximates a token count from text length.
// Roughly four characters per token; used when the CLI reports no usage and
// for pre-invocation estimates.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}
