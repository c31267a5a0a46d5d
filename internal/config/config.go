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

// Package config loads and validates engine configuration from YAML.
// Configuration is read once at startup; the resulting struct is treated as
// read-only for the life of the process.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/maestro-llm/maestro/pkg/errors"
)

// Config is the engine configuration.
type Config struct {
	// Runner configures the external model CLI.
	Runner RunnerConfig `yaml:"runner"`

	// Tiers maps model tiers to concrete model IDs.
	Tiers TierConfig `yaml:"tiers"`

	// Quality configures the quality-gated refinement loop.
	Quality QualityConfig `yaml:"quality"`

	// PricingPath points to an optional pricing overrides YAML file.
	PricingPath string `yaml:"pricing_path"`

	// LedgerPath points to the SQLite cost ledger database.
	// Empty means the in-memory ledger is used.
	LedgerPath string `yaml:"ledger_path"`
}

// RunnerConfig configures the external model CLI invocation.
type RunnerConfig struct {
	// Command pins the CLI binary. Empty means auto-detect from PATH.
	Command string `yaml:"command"`

	// TimeoutSeconds bounds each invocation. Default: 120.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// RateLimitPerSecond throttles invocations. Zero disables throttling.
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`

	// RateLimitBurst is the burst size when throttling is enabled.
	RateLimitBurst int `yaml:"rate_limit_burst"`
}

// Timeout returns the invocation timeout as a duration.
func (r RunnerConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// TierConfig maps model tiers to concrete model IDs.
// Strategies select models by tier, never by hard-coded ID.
type TierConfig struct {
	// Fast is the cheap, low-latency tier.
	Fast string `yaml:"fast"`

	// Balanced is the mid-tier default.
	Balanced string `yaml:"balanced"`

	// Strategic is the high-quality tier.
	Strategic string `yaml:"strategic"`

	// StrategicAlt is the alternate high-quality model used on successive
	// refinement iterations for diversity of failure modes.
	StrategicAlt string `yaml:"strategic_alt"`
}

// QualityConfig configures the quality-gated refinement loop.
type QualityConfig struct {
	// Threshold is the score at which refinement stops. Default: 0.75.
	Threshold float64 `yaml:"threshold"`

	// MaxIterations caps runner invocations per quality execution. Default: 3.
	MaxIterations int `yaml:"max_iterations"`

	// Gate optionally overrides the loop predicate as an expression over
	// `score`, `iterations`, `threshold` and `max_iterations`. Empty means
	// the built-in "score < threshold && iterations < max_iterations" gate.
	Gate string `yaml:"gate"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Runner: RunnerConfig{
			TimeoutSeconds: 120,
			RateLimitBurst: 1,
		},
		Tiers: TierConfig{
			Fast:         "claude-3-5-haiku-20241022",
			Balanced:     "claude-sonnet-4-20250514",
			Strategic:    "claude-opus-4-20250514",
			StrategicAlt: "claude-sonnet-4-20250514",
		},
		Quality: QualityConfig{
			Threshold:     0.75,
			MaxIterations: 3,
		},
	}
}

// DefaultPath returns the default config file location (~/.maestro/config.yaml).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".maestro", "config.yaml"), nil
}

// Load reads configuration from path, merged over the defaults.
// A missing file is not an error; the defaults apply unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, &errors.ConfigError{Reason: "failed to read config file", Cause: err}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &errors.ConfigError{Reason: "failed to parse config file", Cause: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Runner.TimeoutSeconds <= 0 {
		return &errors.ConfigError{Key: "runner.timeout_seconds", Reason: "must be positive"}
	}
	if c.Runner.RateLimitPerSecond < 0 {
		return &errors.ConfigError{Key: "runner.rate_limit_per_second", Reason: "must not be negative"}
	}
	if c.Tiers.Fast == "" {
		return &errors.ConfigError{Key: "tiers.fast", Reason: "model ID is required"}
	}
	if c.Tiers.Balanced == "" {
		return &errors.ConfigError{Key: "tiers.balanced", Reason: "model ID is required"}
	}
	if c.Tiers.Strategic == "" {
		return &errors.ConfigError{Key: "tiers.strategic", Reason: "model ID is required"}
	}
	if c.Tiers.StrategicAlt == "" {
		return &errors.ConfigError{Key: "tiers.strategic_alt", Reason: "model ID is required"}
	}
	if c.Quality.Threshold <= 0 || c.Quality.Threshold > 1 {
		return &errors.ConfigError{Key: "quality.threshold", Reason: "must be in (0, 1]"}
	}
	if c.Quality.MaxIterations < 2 {
		return &errors.ConfigError{Key: "quality.max_iterations", Reason: "must be at least 2"}
	}
	return nil
}
