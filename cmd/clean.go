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

	"github.com/valpere/tidycsv/internal/report"
	"github.com/valpere/tidycsv/internal/store"
)

var (
	cleanInputFile    string
	cleanOutputFile   string
	cleanSavePlan     string
	cleanReportFile   string
	cleanReportFormat string
	cleanNoHistory    bool
	cleanLayout       layoutFlags
)

var cleanCmd = &cobra.Command{
	Use:   "clean [file]",
	Short: "Clean a CSV file with advisor-proposed fixes",
	Long: `Clean a CSV file.

The input is pre-cleaned, a sample of it is sent to the configured advisor, and
the actions it proposes are validated and applied to the whole file. The
cleaned CSV goes to stdout unless -o is given.

Example:
  tidycsv clean data.csv -o clean.csv
  tidycsv clean -i data.csv --report report.html --save-plan plan.yaml
  cat data.csv | tidycsv clean --provider openrouter --model qwen/qwen2.5-72b-instruct:free`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			cleanInputFile = args[0]
		}
		if cleanInputFile != "" && cleanInputFile != "-" && cleanInputFile == cleanOutputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		input, err := readInput(cleanInputFile)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		adv, err := newAdvisor(ctx)
		if err != nil {
			return err
		}
		orch := newOrchestrator(adv)
		opts := cleanLayout.options()

		start := time.Now()
		rep, err := orch.Clean(ctx, input, opts)
		elapsed := time.Since(start)

		recordRun(ctx, cleanNoHistory, store.RunInfo{
			Command:    "clean",
			Source:     sourceName(cleanInputFile),
			Provider:   adv.Name(),
			Options:    opts,
			InputBytes: len(input),
			Elapsed:    elapsed,
		}, rep, err)
		if err != nil {
			return fmt.Errorf("cleaning failed: %w", err)
		}

		if err := writeOutput(cleanOutputFile, rep.CleanedCSV); err != nil {
			return err
		}

		if cleanSavePlan != "" {
			if err := savePlan(cleanSavePlan, rep.Explanation, rep.Applied); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Plan saved to %s\n", cleanSavePlan)
		}

		if cleanReportFile != "" {
			info := report.Info{
				Source:      sourceName(cleanInputFile),
				Provider:    adv.Name(),
				Delimiter:   opts.Delimiter,
				HasHeader:   opts.HasHeader,
				InputBytes:  len(input),
				GeneratedAt: time.Now(),
			}
			if err := writeReport(cleanReportFile, cleanReportFormat, rep, info); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Report written to %s\n", cleanReportFile)
		}

		printSummary(rep, len(input), elapsed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().StringVarP(&cleanInputFile, "input", "i", "", "Input CSV file (default: stdin)")
	cleanCmd.Flags().StringVarP(&cleanOutputFile, "output", "o", "", "Output CSV file (default: stdout)")
	cleanCmd.Flags().StringVar(&cleanSavePlan, "save-plan", "", "Save the applied plan as YAML for later 'tidycsv apply'")
	cleanCmd.Flags().StringVar(&cleanReportFile, "report", "", "Write a report of the run to this file")
	cleanCmd.Flags().StringVar(&cleanReportFormat, "report-format", "", "Report format: md, html or json (default: from --report extension)")
	cleanCmd.Flags().BoolVar(&cleanNoHistory, "no-history", false, "Do not record this run in the history database")
	cleanLayout.register(cleanCmd)
}
