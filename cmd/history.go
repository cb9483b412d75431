/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/valpere/tidycsv/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded cleaning runs",
	Long:  `List, inspect, and clear the SQLite history of clean, apply and serve runs.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(context.Background(), historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWHEN\tCOMMAND\tSOURCE\tADVISOR\tROWS\tCHANGED\tDROPPED\tSTATUS")
		for _, r := range runs {
			status := r.Status
			if r.Status == store.StatusFailed && r.Error != "" {
				status = truncate(r.Error, 40)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d→%d\t%d\t%d\t%s\n",
				shortID(r.ID), humanize.Time(r.CreatedAt), r.Command, truncate(r.Source, 30), orDash(r.Provider),
				r.RowsBefore, r.RowsAfter, r.RowsChanged, r.RowsDropped, status)
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run, including its plan",
	Long:  `Show one run. The ID may be abbreviated to any unique prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		r, err := db.GetRun(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load run %s: %w", args[0], err)
		}

		fmt.Printf("ID:          %s\n", r.ID)
		fmt.Printf("When:        %s (%s)\n", r.CreatedAt.Local().Format(time.DateTime), humanize.Time(r.CreatedAt))
		fmt.Printf("Command:     %s\n", r.Command)
		fmt.Printf("Source:      %s (%s)\n", r.Source, humanize.Bytes(uint64(r.InputBytes)))
		fmt.Printf("Advisor:     %s\n", orDash(r.Provider))
		fmt.Printf("Layout:      delimiter %q, header %v\n", r.Delimiter, r.HasHeader)
		fmt.Printf("Duration:    %s\n", r.Duration)
		fmt.Printf("Status:      %s\n", r.Status)
		if r.Error != "" {
			fmt.Printf("Error:       %s\n", r.Error)
			return nil
		}
		fmt.Printf("Rows:        %d → %d (%d columns)\n", r.RowsBefore, r.RowsAfter, r.Columns)
		fmt.Printf("Changed:     %d\n", r.RowsChanged)
		fmt.Printf("Dropped:     %d\n", r.RowsDropped)

		if r.Explanation != "" {
			fmt.Printf("\nExplanation:\n  %s\n", r.Explanation)
		}
		if len(r.Issues) > 0 {
			fmt.Println("\nIssues:")
			for _, issue := range r.Issues {
				fmt.Printf("  - %s\n", issue)
			}
		}

		plan, err := json.MarshalIndent(r.Applied, "  ", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("\nApplied plan:\n  %s\n", plan)
		if skipped := len(r.Actions) - len(r.Applied); skipped > 0 {
			fmt.Printf("(%d suggested action(s) were ignored)\n", skipped)
		}
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show run history statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Total runs:      %d\n", stats.TotalRuns)
		fmt.Printf("Succeeded:       %d\n", stats.OKRuns)
		fmt.Printf("Failed:          %d\n", stats.FailedRuns)
		fmt.Printf("Input cleaned:   %s\n", humanize.Bytes(uint64(stats.InputBytes)))
		fmt.Printf("Rows in / out:   %s / %s\n", humanize.Comma(int64(stats.RowsBefore)), humanize.Comma(int64(stats.RowsAfter)))
		fmt.Printf("Changes:         %s\n", humanize.Comma(int64(stats.RowsChanged)))
		fmt.Printf("Rows dropped:    %s\n", humanize.Comma(int64(stats.RowsDropped)))
		fmt.Printf("Average time:    %s\n", stats.AvgDuration.Round(time.Millisecond))
		if !stats.LastRun.IsZero() {
			fmt.Printf("Last run:        %s\n", humanize.Time(stats.LastRun))
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a run by ID",
	Long:  `Delete a run. The ID may be abbreviated to any unique prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		r, err := db.GetRun(ctx, args[0])
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no run matches %q", args[0])
			}
			return fmt.Errorf("failed to load run: %w", err)
		}
		if err := db.DeleteRun(ctx, r.ID); err != nil {
			return fmt.Errorf("failed to delete run: %w", err)
		}
		fmt.Printf("Deleted run: %s\n", r.ID)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearRuns(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Printf("Cleared %d runs from history.\n", n)
		return nil
	},
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
}
