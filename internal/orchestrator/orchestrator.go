// Package orchestrator runs the two-phase cleaning pipeline: a deterministic
// pre-clean, then an advisor-proposed plan applied by the same interpreter.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/valpere/tidycsv/internal/action"
	"github.com/valpere/tidycsv/internal/advisor"
	"github.com/valpere/tidycsv/internal/interpreter"
	"github.com/valpere/tidycsv/internal/table"
)

const DefaultTimeout = 60 * time.Second

type Config struct {
	Timeout     time.Duration
	SampleLines int
}

// Options describe the layout of the CSV text being cleaned.
type Options struct {
	Delimiter string
	HasHeader bool
}

func DefaultOptions() Options {
	return Options{Delimiter: table.DefaultDelimiter, HasHeader: true}
}

func (o Options) delimiter() string {
	if o.Delimiter == "" {
		return table.DefaultDelimiter
	}
	return o.Delimiter
}

// Report is the outcome of one cleaning run.
type Report struct {
	Explanation string          `json:"explanation"`
	Issues      []string        `json:"issues"`
	Actions     []any           `json:"actions"`
	Applied     []action.Action `json:"-"`
	RowsBefore  int             `json:"rowsBefore"`
	RowsAfter   int             `json:"rowsAfter"`
	Columns     int             `json:"columns"`
	RowsChanged int             `json:"rowsChanged"`
	RowsDropped int             `json:"rowsDropped"`
	CleanedCSV  string          `json:"cleanedCsv"`
}

type Orchestrator struct {
	advisor advisor.Advisor
	config  Config
	logger  *zap.Logger
}

func New(adv advisor.Advisor, config Config, logger *zap.Logger) *Orchestrator {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.SampleLines <= 0 {
		config.SampleLines = table.DefaultSampleLines
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		advisor: adv,
		config:  config,
		logger:  logger,
	}
}

// Analyze asks the advisor about sample and decodes its reply.
func (o *Orchestrator) Analyze(ctx context.Context, sample string, opts Options) (*advisor.Advice, error) {
	if o.advisor == nil {
		return nil, errors.New("no advisor configured")
	}

	advCtx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := o.advisor.Advise(advCtx, sample, advisor.Meta{
		Delimiter: opts.delimiter(),
		HasHeader: opts.HasHeader,
	})
	if err != nil {
		if !advisor.IsTransportError(err) && !advisor.IsInputError(err) {
			err = &advisor.TransportError{Provider: o.advisor.Name(), Err: err}
		}
		o.logger.Warn("advisor request failed",
			zap.String("provider", o.advisor.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	o.logger.Debug("advisor replied",
		zap.String("provider", o.advisor.Name()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(raw)))

	advice, err := advisor.Decode(raw)
	if err != nil {
		o.logger.Warn("advisor reply rejected", zap.Error(err))
		return nil, err
	}
	return advice, nil
}

// Sample returns the advisor sample for csvText: the first lines of the
// pre-cleaned text.
func (o *Orchestrator) Sample(csvText string, opts Options) string {
	_, pre, _ := preClean(csvText, opts)
	return table.BuildSample(table.Serialize(pre, opts.delimiter()), o.config.SampleLines)
}

// Clean runs pre-clean, asks the advisor about a sample of the pre-cleaned
// text and applies the plan it proposes.
func (o *Orchestrator) Clean(ctx context.Context, csvText string, opts Options) (*Report, error) {
	parsed, pre, preStats := preClean(csvText, opts)

	sample := table.BuildSample(table.Serialize(pre, opts.delimiter()), o.config.SampleLines)
	advice, err := o.Analyze(ctx, sample, opts)
	if err != nil {
		return nil, err
	}

	report := o.applyPlan(pre, preStats, opts, advice.Actions)
	report.RowsBefore = len(parsed)
	report.Explanation = advice.Explanation
	report.Issues = advice.Issues
	return report, nil
}

// Apply runs pre-clean and then the caller's candidate plan, without
// contacting the advisor.
func (o *Orchestrator) Apply(csvText string, opts Options, candidates []any) *Report {
	parsed, pre, preStats := preClean(csvText, opts)

	report := o.applyPlan(pre, preStats, opts, candidates)
	report.RowsBefore = len(parsed)
	return report
}

func preClean(csvText string, opts Options) (parsed, pre table.Table, st interpreter.Stats) {
	parsed = table.Parse(csvText, opts.delimiter())
	pre, st = interpreter.Apply(parsed, action.PreClean(), opts.HasHeader)
	return parsed, pre, st
}

func (o *Orchestrator) applyPlan(pre table.Table, preStats interpreter.Stats, opts Options, candidates []any) *Report {
	plan := o.normalize(candidates)
	final, planStats := interpreter.Apply(pre, plan, opts.HasHeader)
	stats := preStats.Add(planStats)

	if candidates == nil {
		candidates = []any{}
	}

	report := &Report{
		Issues:      []string{},
		Actions:     candidates,
		Applied:     plan,
		RowsAfter:   len(final),
		Columns:     final.Columns(),
		RowsChanged: stats.RowsChanged,
		RowsDropped: stats.RowsDropped,
		CleanedCSV:  table.Serialize(final, opts.delimiter()),
	}

	o.logger.Info("plan applied",
		zap.Int("candidates", len(candidates)),
		zap.Int("applied", len(plan)),
		zap.Int("rows_after", report.RowsAfter),
		zap.Int("rows_changed", report.RowsChanged),
		zap.Int("rows_dropped", report.RowsDropped))
	return report
}

// normalize mirrors action.Normalize but logs each dropped candidate.
func (o *Orchestrator) normalize(candidates []any) []action.Action {
	plan := make([]action.Action, 0, len(candidates))
	for i, c := range candidates {
		a, ok := action.NormalizeOne(c)
		if !ok {
			o.logger.Debug("dropping unrecognised action", zap.Int("index", i), zap.Any("candidate", c))
			continue
		}
		plan = append(plan, a)
	}
	return plan
}
