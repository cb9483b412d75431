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
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/tidycsv/internal/action"
	"github.com/valpere/tidycsv/internal/report"
	"github.com/valpere/tidycsv/internal/store"
)

var (
	applyInputFile    string
	applyOutputFile   string
	applyPlanFile     string
	applyReportFile   string
	applyReportFormat string
	applyNoHistory    bool
	applyLayout       layoutFlags
)

var applyCmd = &cobra.Command{
	Use:   "apply [file]",
	Short: "Clean a CSV file with a saved plan, without an advisor",
	Long: `Pre-clean the input and apply the actions of a YAML plan file, such as one
written by 'tidycsv clean --save-plan' or 'tidycsv analyze --save-plan'.

No advisor is contacted. Actions in the plan go through the same validation as
advisor suggestions, so a hand-edited plan with unknown or malformed actions
is applied without them. Without --plan only pre-clean runs.

Example:
  tidycsv apply data.csv --plan plan.yaml -o clean.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			applyInputFile = args[0]
		}
		if applyInputFile != "" && applyInputFile != "-" && applyInputFile == applyOutputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		var candidates []any
		if applyPlanFile != "" {
			f, err := os.Open(applyPlanFile)
			if err != nil {
				return fmt.Errorf("failed to open plan: %w", err)
			}
			candidates, err = action.ReadPlan(f)
			f.Close()
			if err != nil {
				return err
			}
		}

		input, err := readInput(applyInputFile)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		orch := newOrchestrator(nil)
		opts := applyLayout.options()

		start := time.Now()
		rep := orch.Apply(input, opts, candidates)
		elapsed := time.Since(start)

		recordRun(ctx, applyNoHistory, store.RunInfo{
			Command:    "apply",
			Source:     sourceName(applyInputFile),
			Options:    opts,
			InputBytes: len(input),
			Elapsed:    elapsed,
		}, rep, nil)

		if err := writeOutput(applyOutputFile, rep.CleanedCSV); err != nil {
			return err
		}

		if applyReportFile != "" {
			info := report.Info{
				Source:      sourceName(applyInputFile),
				Delimiter:   opts.Delimiter,
				HasHeader:   opts.HasHeader,
				InputBytes:  len(input),
				GeneratedAt: time.Now(),
			}
			if err := writeReport(applyReportFile, applyReportFormat, rep, info); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Report written to %s\n", applyReportFile)
		}

		printSummary(rep, len(input), elapsed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringVarP(&applyInputFile, "input", "i", "", "Input CSV file (default: stdin)")
	applyCmd.Flags().StringVarP(&applyOutputFile, "output", "o", "", "Output CSV file (default: stdout)")
	applyCmd.Flags().StringVarP(&applyPlanFile, "plan", "p", "", "YAML plan file")
	applyCmd.Flags().StringVar(&applyReportFile, "report", "", "Write a report of the run to this file")
	applyCmd.Flags().StringVar(&applyReportFormat, "report-format", "", "Report format: md, html or json (default: from --report extension)")
	applyCmd.Flags().BoolVar(&applyNoHistory, "no-history", false, "Do not record this run in the history database")
	applyLayout.register(applyCmd)
}
