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
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/valpere/tidycsv/internal/action"
	"github.com/valpere/tidycsv/internal/advisor"
	"github.com/valpere/tidycsv/internal/orchestrator"
	"github.com/valpere/tidycsv/internal/report"
	"github.com/valpere/tidycsv/internal/store"
	"github.com/valpere/tidycsv/internal/table"
)

// layoutFlags are shared by every command that reads CSV.
type layoutFlags struct {
	delimiter string
	noHeader  bool
}

func (l *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&l.delimiter, "delimiter", "d", ",", "Field delimiter")
	cmd.Flags().BoolVar(&l.noHeader, "no-header", false, "Treat the first line as data rather than a header")
}

func (l *layoutFlags) options() orchestrator.Options {
	return orchestrator.Options{Delimiter: l.delimiter, HasHeader: !l.noHeader}
}

func bindFlag(key string, flag *pflag.Flag) {
	cobra.CheckErr(v.BindPFlag(key, flag))
}

// readInput reads path, or stdin when path is empty or "-". A UTF-8 or
// UTF-16 byte-order mark is honoured.
func readInput(path string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	text, err := table.Decode(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return text, nil
}

// writeOutput writes text to path, or stdout when path is empty or "-".
func writeOutput(path, text string) error {
	if path == "" || path == "-" {
		_, err := fmt.Fprintln(os.Stdout, text)
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

func sourceName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return filepath.Base(path)
}

// newAdvisor builds the configured advisor.
func newAdvisor(ctx context.Context) (advisor.Advisor, error) {
	adv, err := advisor.New(ctx, appCfg.Advisor)
	if err != nil {
		return nil, fmt.Errorf("failed to create advisor: %w", err)
	}
	return adv, nil
}

func newOrchestrator(adv advisor.Advisor) *orchestrator.Orchestrator {
	return orchestrator.New(adv, orchestrator.Config{
		Timeout:     appCfg.Advisor.Timeout,
		SampleLines: appCfg.Sample.MaxLines,
	}, logger)
}

func openStore() (*store.Store, error) {
	if err := ensureDir(appCfg.DB.Path); err != nil {
		return nil, err
	}
	db, err := store.New(appCfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// recordRun stores the run unless history is disabled. Failures to record
// are logged, not returned.
func recordRun(ctx context.Context, noHistory bool, info store.RunInfo, rep *orchestrator.Report, runErr error) {
	if noHistory {
		return
	}
	db, err := openStore()
	if err != nil {
		logger.Sugar().Warnf("run not recorded: %v", err)
		return
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, store.NewRun(info, rep, runErr))
	if err != nil {
		logger.Sugar().Warnf("run not recorded: %v", err)
		return
	}
	logger.Sugar().Debugf("recorded run %s", id)
}

// writeReport renders rep to path. The format comes from reportFormat, or
// from the file extension when reportFormat is empty.
func writeReport(path, reportFormat string, rep *orchestrator.Report, info report.Info) error {
	if reportFormat == "" {
		reportFormat = filepath.Ext(path)
	}
	format, err := report.ParseFormat(reportFormat)
	if err != nil {
		return err
	}

	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	if err := report.Write(f, format, rep, info); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}

func savePlan(path, explanation string, plan []action.Action) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plan file: %w", err)
	}
	defer f.Close()

	if err := action.WritePlan(f, explanation, plan); err != nil {
		return err
	}
	return f.Close()
}

// printSummary writes a short account of the run to stderr, keeping stdout
// for the cleaned CSV.
func printSummary(rep *orchestrator.Report, inputBytes int, elapsed time.Duration) {
	fmt.Fprintf(os.Stderr, "Cleaned %s: %s rows -> %s rows, %d columns (%s changes, %s dropped) in %s\n",
		humanize.Bytes(uint64(inputBytes)),
		humanize.Comma(int64(rep.RowsBefore)),
		humanize.Comma(int64(rep.RowsAfter)),
		rep.Columns,
		humanize.Comma(int64(rep.RowsChanged)),
		humanize.Comma(int64(rep.RowsDropped)),
		elapsed.Round(time.Millisecond))
	if skipped := len(rep.Actions) - len(rep.Applied); skipped > 0 {
		fmt.Fprintf(os.Stderr, "Ignored %d unusable suggested action(s)\n", skipped)
	}
}
