// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/geo-engine/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg := loadConfig()
		if cfg.History.Path == "" {
			return fmt.Errorf("history is not configured: set history.path")
		}

		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.List(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		fmt.Printf("%-5s  %-30s  %-8s  %-6s  %-20s  %s\n",
			"ID", "Keyword", "Status", "Blocks", "When", "Detail")
		fmt.Println(strings.Repeat("-", 100))
		for _, r := range runs {
			detail := r.Summary
			if r.Status == "failure" {
				detail = r.Message
			}
			if len(detail) > 40 {
				detail = detail[:37] + "..."
			}
			keyword := r.Keyword
			if len(keyword) > 30 {
				keyword = keyword[:27] + "..."
			}
			fmt.Printf("%-5d  %-30s  %-8s  %-6d  %-20s  %s\n",
				r.ID, keyword, r.Status, r.BlockCount,
				r.CreatedAt.Format("2006-01-02 15:04:05"), detail)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")

	rootCmd.AddCommand(historyCmd)
}
