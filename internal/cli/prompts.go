// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-bench/internal/prompts"
)

var (
	promptsCategory string
	promptsCount    int
	promptsUnique   bool
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Inspect or generate benchmark prompts",
	Long: `Without flags, lists the available categories and their template
counts. With --category and --count, prints the prompts a run with
that configuration would dispatch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		generator, err := buildGenerator(cfg)
		if err != nil {
			return err
		}

		if promptsCategory == "" {
			fmt.Println("Available prompt categories:")
			for _, category := range prompts.Categories() {
				fmt.Printf("  %-18s %d templates\n", category, generator.TemplateCount(category))
			}
			return nil
		}

		list, err := generator.Generate(prompts.Category(promptsCategory), promptsCount, !promptsUnique)
		if err != nil {
			return err
		}
		for i, p := range list {
			fmt.Printf("%3d. %s\n", i+1, p)
		}
		return nil
	},
}

func init() {
	promptsCmd.Flags().StringVar(&promptsCategory, "category", "", "category to generate from")
	promptsCmd.Flags().IntVarP(&promptsCount, "count", "n", 10, "number of prompts")
	promptsCmd.Flags().BoolVar(&promptsUnique, "unique", false, "require unique prompts")

	rootCmd.AddCommand(promptsCmd)
}
