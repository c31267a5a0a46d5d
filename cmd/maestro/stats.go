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
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/maestro-llm/maestro/pkg/ledger"
)

func newStatsCommand(flags *rootFlags) *cobra.Command {
	var byStrategy bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show accumulated spend from the cost ledger",
		Long: `Summarize every recorded invocation: tokens, cost and call counts
grouped by model (default) or by strategy. Requires a persistent ledger
(ledger_path in the config file); in-memory runs leave nothing behind.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(flags)
			if err != nil {
				return err
			}
			defer eng.close(cmd.Context())

			ctx := cmd.Context()
			var groups map[string]ledger.Aggregate
			if byStrategy {
				groups, err = eng.ledger.AggregateByStrategy(ctx)
			} else {
				groups, err = eng.ledger.AggregateByModel(ctx)
			}
			if err != nil {
				return err
			}
			total, err := eng.ledger.Total(ctx)
			if err != nil {
				return err
			}

			if flags.jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"groups": groups,
					"total":  total,
				})
			}

			keys := make([]string, 0, len(groups))
			for k := range groups {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			header := "MODEL"
			if byStrategy {
				header = "STRATEGY"
			}
			fmt.Fprintf(w, "%s\tCALLS\tTOKENS IN\tTOKENS OUT\tCOST\n", header)
			for _, k := range keys {
				g := groups[k]
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t$%.4f\n",
					k, g.InvocationCount, g.TotalTokensIn, g.TotalTokensOut, g.TotalCostUSD)
			}
			fmt.Fprintf(w, "total\t%d\t%d\t%d\t$%.4f\n",
				total.InvocationCount, total.TotalTokensIn, total.TotalTokensOut, total.TotalCostUSD)
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&byStrategy, "by-strategy", false, "Group by strategy instead of model")
	return cmd
}
