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
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/maestro-llm/maestro/pkg/orchestrator"
)

func newEstimateCommand(flags *rootFlags) *cobra.Command {
	var (
		strategyName string
		maxCost      float64
	)

	cmd := &cobra.Command{
		Use:   "estimate [prompt]",
		Short: "Forecast cost without executing",
		Long: `Forecast cost, duration and quality for a prompt and strategy
without invoking any model. With no --strategy, all strategies are
compared side by side.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := promptFrom(args)
			if err != nil {
				return err
			}

			eng, err := buildEngine(flags)
			if err != nil {
				return err
			}
			defer eng.close(cmd.Context())

			names := []string{strategyName}
			if strategyName == "" {
				names = eng.orchestrator.Strategies()
			}

			estimates := make([]*orchestrator.EstimateResult, 0, len(names))
			for _, name := range names {
				est, err := eng.orchestrator.Estimate(orchestrator.Request{
					Prompt:   prompt,
					Strategy: name,
					MaxCost:  maxCost,
				})
				if err != nil {
					return err
				}
				estimates = append(estimates, est)
			}

			if flags.jsonOut {
				return json.NewEncoder(os.Stdout).Encode(estimates)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STRATEGY\tCOST\tDURATION\tQUALITY\tINVOCATIONS")
			for _, est := range estimates {
				fmt.Fprintf(w, "%s\t$%.4f\t%s\t%.2f\t%d\n",
					est.Strategy,
					est.ExpectedCost,
					est.ExpectedDuration.Round(time.Second),
					est.ExpectedQuality,
					est.ExpectedInvocations,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&strategyName, "strategy", "s", "", "Strategy to estimate (default: all)")
	cmd.Flags().Float64Var(&maxCost, "max-cost", 0, "Budget ceiling in USD (0 = unbudgeted)")
	return cmd
}
