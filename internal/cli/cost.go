// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var costDays int

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Show spend summary and optimization suggestions",
	Long: `Aggregates recorded spend over a trailing window: totals, per-model
breakdown, daily series, and budget status. History comes from the
configured SQLite store; without one, only the current process's spend
is visible.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ledger, cleanup, err := buildLedger(cfg, "")
		if err != nil {
			return err
		}
		defer cleanup()

		summary := ledger.Summarize(costDays)

		fmt.Printf("Spend over the last %d days\n", summary.WindowDays)
		fmt.Printf("  Total:        $%.4f (%d requests)\n", summary.TotalCost, summary.TotalRequests)
		fmt.Printf("  Daily avg:    $%.4f\n", summary.AvgDailyCost)
		if summary.TotalRequests > 0 {
			fmt.Printf("  Per request:  $%.6f\n", summary.AvgCostPerRequest)
		}

		if len(summary.ModelBreakdown) > 0 {
			fmt.Println("  By model:")
			models := make([]string, 0, len(summary.ModelBreakdown))
			for model := range summary.ModelBreakdown {
				models = append(models, model)
			}
			sort.Strings(models)
			for _, model := range models {
				usage := summary.ModelBreakdown[model]
				fmt.Printf("    %-24s $%.4f (%d requests)\n", model, usage.Cost, usage.Requests)
			}
		}

		fmt.Printf("  Budget:       %s tier, $%.2f/$%.2f daily used\n",
			summary.Budget.Tier, summary.Budget.DailyUsed, summary.Budget.DailyLimit)

		fmt.Println("\nSuggestions:")
		for _, s := range ledger.Suggestions() {
			fmt.Printf("  - %s\n", s)
		}
		return nil
	},
}

func init() {
	costCmd.Flags().IntVar(&costDays, "days", 30, "trailing window in days")

	rootCmd.AddCommand(costCmd)
}
