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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestro-llm/maestro/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 120, cfg.Runner.TimeoutSeconds)
	assert.Equal(t, 0.75, cfg.Quality.Threshold)
	assert.Equal(t, 3, cfg.Quality.MaxIterations)
	assert.NoError(t, cfg.Validate())
}

func TestRunnerTimeout(t *testing.T) {
	r := RunnerConfig{TimeoutSeconds: 30}
	assert.Equal(t, 30*time.Second, r.Timeout())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err, "missing file should fall back to defaults")
	assert.NotEmpty(t, cfg.Tiers.Fast, "defaults should be populated")
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
runner:
  timeout_seconds: 60
quality:
  threshold: 0.8
  max_iterations: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Runner.TimeoutSeconds)
	assert.Equal(t, 0.8, cfg.Quality.Threshold)
	// Unspecified values keep defaults
	assert.Equal(t, "claude-opus-4-20250514", cfg.Tiers.Strategic)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("runner: [not a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err, "malformed YAML should fail")

	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"zero timeout", func(c *Config) { c.Runner.TimeoutSeconds = 0 }, "runner.timeout_seconds"},
		{"negative rate", func(c *Config) { c.Runner.RateLimitPerSecond = -1 }, "runner.rate_limit_per_second"},
		{"missing fast tier", func(c *Config) { c.Tiers.Fast = "" }, "tiers.fast"},
		{"missing strategic alt", func(c *Config) { c.Tiers.StrategicAlt = "" }, "tiers.strategic_alt"},
		{"threshold too high", func(c *Config) { c.Quality.Threshold = 1.5 }, "quality.threshold"},
		{"threshold zero", func(c *Config) { c.Quality.Threshold = 0 }, "quality.threshold"},
		{"max iterations too low", func(c *Config) { c.Quality.MaxIterations = 1 }, "quality.max_iterations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var cfgErr *errors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.key, cfgErr.Key)
		})
	}
}
