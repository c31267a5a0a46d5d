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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/maestro-llm/maestro/internal/config"
	"github.com/maestro-llm/maestro/internal/ledgerdb"
	"github.com/maestro-llm/maestro/internal/log"
	"github.com/maestro-llm/maestro/pkg/ledger"
	"github.com/maestro-llm/maestro/pkg/observability"
	"github.com/maestro-llm/maestro/pkg/orchestrator"
	"github.com/maestro-llm/maestro/pkg/pricing"
	"github.com/maestro-llm/maestro/pkg/runner"
)

// rootFlags holds the persistent flags shared by every subcommand.
type rootFlags struct {
	configPath string
	jsonOut    bool
	verbose    bool
	traceOut   bool
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "maestro",
		Short: "Maestro - multi-strategy LLM execution",
		Long: `Maestro runs a single prompt through a named execution strategy,
trading off cost, latency and output quality per strategy. It drives a
local CLI-backed model runner and accounts for every invocation.

Run 'maestro estimate' to forecast cost before spending anything.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to config file (default: ~/.maestro/config.yaml)")
	cmd.PersistentFlags().BoolVar(&flags.jsonOut, "json", false, "Output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.traceOut, "trace", false, "Emit execution traces to stderr")

	cmd.AddCommand(
		newRunCommand(flags),
		newEstimateCommand(flags),
		newStatsCommand(flags),
		newVersionCommand(flags),
	)
	return cmd
}

// engine bundles everything a subcommand needs to execute or estimate.
type engine struct {
	orchestrator *orchestrator.Orchestrator
	ledger       ledger.Store
	shutdown     func(context.Context) error
}

func (e *engine) close(ctx context.Context) {
	if e.ledger != nil {
		_ = e.ledger.Close()
	}
	if e.shutdown != nil {
		_ = e.shutdown(ctx)
	}
}

// buildEngine loads configuration and wires the orchestrator stack.
func buildEngine(flags *rootFlags) (*engine, error) {
	path := flags.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logCfg := log.FromEnv()
	if flags.verbose {
		logCfg.Level = "debug"
	}
	logger := log.New(logCfg)

	table := pricing.NewTable()
	if cfg.PricingPath != "" {
		if table, err = pricing.NewTableWithOverrides(cfg.PricingPath); err != nil {
			return nil, err
		}
	}

	client := runner.NewCLIClient(table,
		runner.WithCommand(cfg.Runner.Command),
		runner.WithTimeout(cfg.Runner.Timeout()),
		runner.WithRateLimit(cfg.Runner.RateLimitPerSecond, cfg.Runner.RateLimitBurst),
		runner.WithLogger(log.WithComponent(logger, "runner")),
	)

	var store ledger.Store
	if cfg.LedgerPath != "" {
		if store, err = ledgerdb.Open(cfg.LedgerPath); err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
	} else {
		store = ledger.NewMemoryStore()
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	tracer, shutdown, err := buildTracer(flags.traceOut)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	o, err := orchestrator.New(cfg, client, table,
		orchestrator.WithLogger(logger),
		orchestrator.WithLedger(store),
		orchestrator.WithMetrics(metrics),
		orchestrator.WithTracer(tracer),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &engine{orchestrator: o, ledger: store, shutdown: shutdown}, nil
}

// buildTracer returns a stderr-exporting tracer when enabled, otherwise a
// no-op tracer from the default provider.
func buildTracer(enabled bool) (trace.Tracer, func(context.Context) error, error) {
	if !enabled {
		return sdktrace.NewTracerProvider().Tracer("maestro"), nil, nil
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(os.Stderr),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	return tp.Tracer("maestro"), tp.Shutdown, nil
}
