// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-bench/internal/bench"
	"github.com/jeranaias/rigrun-bench/internal/export"
	"github.com/jeranaias/rigrun-bench/internal/metrics"
	"github.com/jeranaias/rigrun-bench/internal/prompts"
	"github.com/jeranaias/rigrun-bench/internal/util"
)

var (
	runRequests    int
	runConcurrency int
	runCategory    string
	runPrompts     []string
	runBackend     string
	runModel       string
	runTier        string
	runMaxCost     float64
	runRPS         float64
	runName        string
	runFormat      string
	runOutputDir   string
	runNoSave      bool
	runUnique      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a benchmark run",
	Long: `Dispatches prompts against the configured backend and reports
latency, throughput, token, and cost statistics. The run is gated by
the budget tier's per-run and daily limits; --max-cost overrides a
rejected gate.`,
	Example: `  # 10 sequential mock requests
  rigrun-bench run

  # 50 concurrent code-generation requests against Ollama
  rigrun-bench run --backend ollama -n 50 -c 4 --category code_generation

  # Custom prompts with a budget override
  rigrun-bench run --prompt "Hello" --prompt "Ping" -n 20 --max-cost 2.50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		c, err := buildClient(cfg, runBackend, runModel)
		if err != nil {
			return err
		}
		ledger, cleanup, err := buildLedger(cfg, runTier)
		if err != nil {
			return err
		}
		defer cleanup()
		generator, err := buildGenerator(cfg)
		if err != nil {
			return err
		}

		runCfg := bench.DefaultRunConfig()
		runCfg.Requests = runRequests
		runCfg.Concurrency = runConcurrency
		runCfg.Category = prompts.Category(runCategory)
		runCfg.CustomPrompts = runPrompts
		runCfg.AllowDuplicatePrompts = !runUnique
		runCfg.BudgetTier = ledger.Budget().Tier
		runCfg.RequestsPerSecond = runRPS
		runCfg.Name = runName
		runCfg.SaveResults = !runNoSave
		if cmd.Flags().Changed("max-cost") {
			runCfg.MaxCost = &runMaxCost
		}

		runner := bench.NewRunner(c, generator, ledger)
		runner.Sink = metrics.NewSink()

		if runCfg.SaveResults {
			format := runFormat
			if format == "" {
				format = cfg.Output.Format
			}
			exporter, err := export.ForFormat(format)
			if err != nil {
				return err
			}
			outputDir := runOutputDir
			if outputDir == "" {
				outputDir = cfg.Output.Dir
			}
			runner.Writer = export.NewWriter(exporter, outputDir)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := runner.Run(ctx, runCfg)
		if err != nil {
			return err
		}
		printReport(report)
		return nil
	},
}

func init() {
	runCmd.Flags().IntVarP(&runRequests, "requests", "n", 10, "number of requests")
	runCmd.Flags().IntVarP(&runConcurrency, "concurrency", "c", 1, "concurrent in-flight requests")
	runCmd.Flags().StringVar(&runCategory, "category", "short_qa", "prompt category (short_qa, long_form, code_generation)")
	runCmd.Flags().StringArrayVar(&runPrompts, "prompt", nil, "custom prompt (repeatable, cycled to the request count)")
	runCmd.Flags().StringVar(&runBackend, "backend", "", "backend override (mock, openai, ollama)")
	runCmd.Flags().StringVar(&runModel, "model", "", "model override")
	runCmd.Flags().StringVar(&runTier, "tier", "", "budget tier override (development, demo, production)")
	runCmd.Flags().Float64Var(&runMaxCost, "max-cost", 0, "cost ceiling that overrides a rejected budget gate")
	runCmd.Flags().Float64Var(&runRPS, "rps", 0, "requests per second throttle (0 = unthrottled)")
	runCmd.Flags().StringVar(&runName, "name", "", "run name (default bench_<timestamp>)")
	runCmd.Flags().StringVar(&runFormat, "format", "", "report format (json, csv, markdown)")
	runCmd.Flags().StringVarP(&runOutputDir, "output-dir", "o", "", "report output directory")
	runCmd.Flags().BoolVar(&runNoSave, "no-save", false, "skip writing the report to disk")
	runCmd.Flags().BoolVar(&runUnique, "unique", false, "require unique prompts (fails if the pool is too small)")

	rootCmd.AddCommand(runCmd)
}

// printReport writes a human-readable summary to stdout.
func printReport(report *bench.RunReport) {
	fmt.Printf("\nRun %s (%s)\n", report.Name, report.Model)
	fmt.Printf("  Requests:    %d total, %d ok, %d failed (%.1f%% success)\n",
		report.TotalRequests, report.Successful, report.Failed, report.SuccessRate*100)
	fmt.Printf("  Duration:    %.2fs (%.2f req/s)\n", report.DurationSeconds, report.RequestsPerSecond)
	if report.Successful > 0 {
		fmt.Printf("  Latency:     min %.3fs / median %.3fs / mean %.3fs / p95 %.3fs / max %.3fs\n",
			report.MinLatency, report.MedianLatency, report.AvgLatency,
			report.P95Latency, report.MaxLatency)
		fmt.Printf("  Tokens:      %d\n", report.TotalTokens)
	}
	fmt.Printf("  Cost:        $%.4f total, $%.6f per request\n",
		report.TotalCost, report.AvgCostPerRequest)

	if len(report.Errors) > 0 {
		fmt.Println("  Errors:")
		messages := make([]string, 0, len(report.Errors))
		for msg := range report.Errors {
			messages = append(messages, msg)
		}
		sort.Strings(messages)
		for _, msg := range messages {
			fmt.Printf("    %dx %s\n", report.Errors[msg], util.TruncateRunes(msg, 80))
		}
	}
}
