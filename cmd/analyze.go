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

	"github.com/spf13/cobra"

	"github.com/valpere/tidycsv/internal/action"
	"github.com/valpere/tidycsv/internal/report"
)

var (
	analyzeInputFile string
	analyzeSavePlan  string
	analyzeLayout    layoutFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Ask the advisor about a CSV file without changing it",
	Long: `Send a sample of the pre-cleaned input to the advisor and print its
explanation, the issues it found and the plan it proposes.

The file itself is not modified. Use --save-plan to keep the plan and run it
later with 'tidycsv apply'.

Example:
  tidycsv analyze data.csv
  tidycsv analyze data.csv --save-plan plan.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			analyzeInputFile = args[0]
		}

		input, err := readInput(analyzeInputFile)
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
		opts := analyzeLayout.options()

		advice, err := orch.Analyze(ctx, orch.Sample(input, opts), opts)
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		plan := action.Normalize(advice.Actions)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Advisor: %s\n\n", adv.Name())
		if advice.Explanation != "" {
			fmt.Fprintf(out, "%s\n\n", advice.Explanation)
		}

		if len(advice.Issues) > 0 {
			fmt.Fprintln(out, "Issues:")
			for _, issue := range advice.Issues {
				fmt.Fprintf(out, "  - %s\n", issue)
			}
			fmt.Fprintln(out)
		}

		fmt.Fprintln(out, "Plan:")
		if len(plan) == 0 {
			fmt.Fprintln(out, "  (no actions beyond pre-clean)")
		}
		for i, a := range plan {
			fmt.Fprintf(out, "  %d. %s\n", i+1, report.Describe(a))
		}
		if skipped := len(advice.Actions) - len(plan); skipped > 0 {
			fmt.Fprintf(out, "\n%d suggested action(s) were unusable and ignored.\n", skipped)
		}

		if analyzeSavePlan != "" {
			if err := savePlan(analyzeSavePlan, advice.Explanation, plan); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nPlan saved to %s\n", analyzeSavePlan)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeInputFile, "input", "i", "", "Input CSV file (default: stdin)")
	analyzeCmd.Flags().StringVar(&analyzeSavePlan, "save-plan", "", "Save the proposed plan as YAML")
	analyzeLayout.register(analyzeCmd)
}
