package store

import (
	"time"

	"github.com/valpere/tidycsv/internal/action"
	"github.com/valpere/tidycsv/internal/orchestrator"
)

// RunInfo is what a caller knows about a run besides its report.
type RunInfo struct {
	Command    string
	Source     string
	Provider   string
	Options    orchestrator.Options
	InputBytes int
	Elapsed    time.Duration
}

// NewRun builds the history record for a finished run. When runErr is set
// the run is marked failed and rep is ignored.
func NewRun(info RunInfo, rep *orchestrator.Report, runErr error) Run {
	run := Run{
		Command:    info.Command,
		Source:     info.Source,
		Provider:   info.Provider,
		Delimiter:  info.Options.Delimiter,
		HasHeader:  info.Options.HasHeader,
		InputBytes: info.InputBytes,
		Duration:   info.Elapsed,
		Status:     StatusOK,
	}
	if runErr != nil || rep == nil {
		run.Status = StatusFailed
		if runErr != nil {
			run.Error = runErr.Error()
		}
		return run
	}

	run.Explanation = rep.Explanation
	run.Issues = rep.Issues
	run.Actions = rep.Actions
	run.Applied = action.Encode(rep.Applied)
	run.RowsBefore = rep.RowsBefore
	run.RowsAfter = rep.RowsAfter
	run.Columns = rep.Columns
	run.RowsChanged = rep.RowsChanged
	run.RowsDropped = rep.RowsDropped
	return run
}
