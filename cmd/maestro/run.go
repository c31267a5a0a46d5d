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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/maestro-llm/maestro/pkg/orchestrator"
)

func newRunCommand(flags *rootFlags) *cobra.Command {
	var (
		strategyName string
		maxCost      float64
		contextFile  string
	)

	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Execute a prompt with a strategy",
		Long: `Execute a prompt through the selected strategy and print the result.

The prompt is taken from the arguments, or from stdin when no argument
is given. Cost, quality score and models used are reported on stderr.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := promptFrom(args)
			if err != nil {
				return err
			}

			var background string
			if contextFile != "" {
				data, err := os.ReadFile(contextFile)
				if err != nil {
					return fmt.Errorf("read context file: %w", err)
				}
				background = string(data)
			}

			eng, err := buildEngine(flags)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer eng.close(ctx)

			result, err := eng.orchestrator.Execute(ctx, orchestrator.Request{
				Prompt:   prompt,
				Strategy: strategyName,
				MaxCost:  maxCost,
				Context:  background,
			})
			if err != nil {
				return err
			}

			if flags.jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"output":        result.Output,
					"strategy":      result.Strategy,
					"models_used":   result.ModelsUsed,
					"total_cost":    result.TotalCost,
					"duration_ms":   result.Duration.Milliseconds(),
					"quality_score": result.QualityScore,
					"iterations":    result.Iterations,
				})
			}

			fmt.Println(result.Output)
			fmt.Fprintf(os.Stderr, "\nstrategy=%s models=%s cost=$%.4f quality=%.2f duration=%s\n",
				result.Strategy,
				strings.Join(result.ModelsUsed, ","),
				result.TotalCost,
				result.QualityScore,
				result.Duration.Round(time.Millisecond),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&strategyName, "strategy", "s", "", "Execution strategy (fast, balanced, quality, cost-optimized)")
	cmd.Flags().Float64Var(&maxCost, "max-cost", 0, "Budget ceiling in USD (0 = unbudgeted)")
	cmd.Flags().StringVar(&contextFile, "context-file", "", "File with background text prepended to the prompt")
	return cmd
}

// promptFrom joins the argument words, falling back to stdin when piped.
func promptFrom(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	stat, err := os.Stdin.Stat()
	if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return "", nil
}
