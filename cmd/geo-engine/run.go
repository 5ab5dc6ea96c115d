// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/geo-engine/internal/history"
	"github.com/pdiddy/geo-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the fan-out pipeline for one keyword",
	Long: `Run executes one full pipeline run: plan sub-queries for the keyword,
gather one context snippet per sub-query, and synthesize validated answer
blocks. Source text, when provided, is analyzed for gaps the blocks should
fill; text longer than the configured cap is truncated silently.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		keyword, _ := cmd.Flags().GetString("keyword")
		sourceFile, _ := cmd.Flags().GetString("source-file")
		asJSON, _ := cmd.Flags().GetBool("json")
		outPath, _ := cmd.Flags().GetString("output")

		var sourceText string
		if sourceFile != "" {
			data, err := os.ReadFile(sourceFile)
			if err != nil {
				return fmt.Errorf("reading source file: %w", err)
			}
			sourceText = string(data)
		}

		cfg := loadConfig()
		engine, err := newEngine(cfg, os.Stderr)
		if err != nil {
			return err
		}

		res := engine.Run(cmd.Context(), keyword, sourceText)
		recordRun(cmd, cfg.History.Path, keyword, res)

		if !res.Succeeded() {
			return fmt.Errorf("run failed: %s", res.Message)
		}

		if outPath != "" {
			if err := writeArtifact(outPath, *res.Result); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %s\n", outPath)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res.Result)
		}

		printResult(*res.Result)
		return nil
	},
}

func init() {
	runCmd.Flags().String("keyword", "", "target keyword to fan out (required)")
	runCmd.Flags().String("source-file", "", "path to source text to analyze (optional)")
	runCmd.Flags().Bool("json", false, "output the result as JSON")
	runCmd.Flags().String("output", "", "write the result to a YAML artifact file")
	runCmd.MarkFlagRequired("keyword")

	rootCmd.AddCommand(runCmd)
}

// recordRun stores the outcome when history is configured; failures warn only.
func recordRun(cmd *cobra.Command, path, keyword string, res types.RunResult) {
	if path == "" {
		return
	}
	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open history store: %v\n", err)
		return
	}
	defer store.Close()
	if err := store.Record(cmd.Context(), keyword, res); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not record run: %v\n", err)
	}
}

// writeArtifact marshals the result to a YAML file.
func writeArtifact(path string, result types.FanOutResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// printResult writes a human-readable rendering of the result to stdout.
func printResult(result types.FanOutResult) {
	fmt.Printf("Keyword:  %s\n", result.MainKeyword)
	fmt.Printf("Analysis: %s\n\n", result.AnalysisSummary)

	for i, b := range result.Blocks {
		fmt.Printf("%d. %s\n", i+1, b.Heading)
		fmt.Printf("   query: %s  [%s]  relevance %d/100  source %d/100\n",
			b.TargetQuery, b.IntentCategory, b.RelevanceScore, b.SourceQualityScore)
		fmt.Printf("   %s\n\n", b.Content)
	}

	fmt.Printf("%d answer blocks\n", len(result.Blocks))
}
