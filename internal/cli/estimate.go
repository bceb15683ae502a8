// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-bench/internal/bench"
)

var (
	estimateRequests  int
	estimateModel     string
	estimateTier      string
	estimateInTokens  int
	estimateOutTokens int
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate the cost of a planned run",
	Long: `Projects the cost of a planned benchmark from average token
assumptions and checks it against the budget tier, without dispatching
any requests. The default assumption (50 input / 100 output tokens per
request) under-estimates long-form runs; adjust with the token flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ledger, cleanup, err := buildLedger(cfg, estimateTier)
		if err != nil {
			return err
		}
		defer cleanup()

		estimate := ledger.EstimateRunCost(estimateModel, estimateRequests, estimateInTokens, estimateOutTokens)
		ok, reason := ledger.CanAfford(estimateModel, estimateRequests, estimateInTokens, estimateOutTokens)
		budget := ledger.Budget()

		fmt.Printf("Model:     %s\n", estimateModel)
		fmt.Printf("Requests:  %d (%d in / %d out tokens each)\n",
			estimateRequests, estimateInTokens, estimateOutTokens)
		fmt.Printf("Estimate:  $%.4f\n", estimate)
		fmt.Printf("Budget:    %s tier ($%.2f/run, $%.2f/day)\n",
			budget.Tier, budget.PerRunLimit, budget.DailyLimit)
		if ok {
			fmt.Println("Verdict:   within budget")
		} else {
			fmt.Printf("Verdict:   REJECTED: %s\n", reason)
		}
		return nil
	},
}

func init() {
	estimateCmd.Flags().IntVarP(&estimateRequests, "requests", "n", 10, "number of requests")
	estimateCmd.Flags().StringVar(&estimateModel, "model", "gpt-3.5-turbo", "model to price")
	estimateCmd.Flags().StringVar(&estimateTier, "tier", "", "budget tier override")
	estimateCmd.Flags().IntVar(&estimateInTokens, "input-tokens", bench.DefaultEstimateInputTokens, "assumed input tokens per request")
	estimateCmd.Flags().IntVar(&estimateOutTokens, "output-tokens", bench.DefaultEstimateOutputTokens, "assumed output tokens per request")

	rootCmd.AddCommand(estimateCmd)
}
