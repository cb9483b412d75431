package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound  = errors.New("run not found")
	ErrAmbiguous = errors.New("run ID prefix matches more than one run")
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

type Store struct {
	db *sqlx.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	-- runs records every cleaning run with its plan and outcome
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		provider TEXT NOT NULL DEFAULT '',
		delimiter TEXT NOT NULL DEFAULT ',',
		has_header BOOLEAN NOT NULL DEFAULT TRUE,
		input_bytes INTEGER NOT NULL DEFAULT 0,
		explanation TEXT NOT NULL DEFAULT '',
		issues TEXT NOT NULL DEFAULT '[]',
		actions TEXT NOT NULL DEFAULT '[]',
		applied TEXT NOT NULL DEFAULT '[]',
		rows_before INTEGER NOT NULL DEFAULT 0,
		rows_after INTEGER NOT NULL DEFAULT 0,
		columns INTEGER NOT NULL DEFAULT 0,
		rows_changed INTEGER NOT NULL DEFAULT 0,
		rows_dropped INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'ok',
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Run is one recorded invocation of clean, apply or the HTTP clean endpoint.
type Run struct {
	ID          string
	Command     string
	Source      string
	Provider    string
	Delimiter   string
	HasHeader   bool
	InputBytes  int
	Explanation string
	Issues      []string
	Actions     []any
	Applied     []map[string]any
	RowsBefore  int
	RowsAfter   int
	Columns     int
	RowsChanged int
	RowsDropped int
	Duration    time.Duration
	Status      string
	Error       string
	CreatedAt   time.Time
}

type runRow struct {
	ID          string    `db:"id"`
	Command     string    `db:"command"`
	Source      string    `db:"source"`
	Provider    string    `db:"provider"`
	Delimiter   string    `db:"delimiter"`
	HasHeader   bool      `db:"has_header"`
	InputBytes  int       `db:"input_bytes"`
	Explanation string    `db:"explanation"`
	Issues      string    `db:"issues"`
	Actions     string    `db:"actions"`
	Applied     string    `db:"applied"`
	RowsBefore  int       `db:"rows_before"`
	RowsAfter   int       `db:"rows_after"`
	Columns     int       `db:"columns"`
	RowsChanged int       `db:"rows_changed"`
	RowsDropped int       `db:"rows_dropped"`
	DurationMs  int64     `db:"duration_ms"`
	Status      string    `db:"status"`
	Error       string    `db:"error"`
	CreatedAt   time.Time `db:"created_at"`
}

const runColumns = `id, command, source, provider, delimiter, has_header, input_bytes, explanation, issues, actions, applied,
	rows_before, rows_after, columns, rows_changed, rows_dropped, duration_ms, status, error, created_at`

// SaveRun stores run and returns its ID. An ID and creation time are
// assigned when missing.
func (s *Store) SaveRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = StatusOK
	}

	row, err := toRow(run)
	if err != nil {
		return "", err
	}

	_, err = s.db.NamedExecContext(ctx, `INSERT INTO runs (`+runColumns+`) VALUES (
		:id, :command, :source, :provider, :delimiter, :has_header, :input_bytes, :explanation, :issues, :actions, :applied,
		:rows_before, :rows_after, :columns, :rows_changed, :rows_dropped, :duration_ms, :status, :error, :created_at)`, row)
	if err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}
	return run.ID, nil
}

// GetRun returns the run whose ID is id or starts with id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	var rows []runRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+runColumns+` FROM runs WHERE substr(id, 1, ?) = ? ORDER BY id = ? DESC LIMIT 2`,
		len(id), id, id)
	if err != nil {
		return nil, err
	}

	switch {
	case len(rows) == 0:
		return nil, ErrNotFound
	case rows[0].ID == id, len(rows) == 1:
		return fromRow(rows[0])
	default:
		return nil, ErrAmbiguous
	}
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	results := make([]Run, 0, len(rows))
	for _, r := range rows {
		run, err := fromRow(r)
		if err != nil {
			return nil, err
		}
		results = append(results, *run)
	}
	return results, nil
}

// DeleteRun permanently removes a run by its full ID.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearRuns removes all runs.
func (s *Store) ClearRuns(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RunStats summarises the run history.
type RunStats struct {
	TotalRuns   int
	OKRuns      int
	FailedRuns  int
	RowsBefore  int
	RowsAfter   int
	RowsChanged int
	RowsDropped int
	InputBytes  int64
	AvgDuration time.Duration
	LastRun     time.Time
}

// Stats returns summary statistics for the run history.
func (s *Store) Stats(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{}

	var avgMs float64
	var lastRun sql.NullString
	err := s.db.QueryRowxContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'ok' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status != 'ok' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(rows_before), 0),
			COALESCE(SUM(rows_after), 0),
			COALESCE(SUM(rows_changed), 0),
			COALESCE(SUM(rows_dropped), 0),
			COALESCE(SUM(input_bytes), 0),
			COALESCE(AVG(duration_ms), 0),
			MAX(created_at)
		FROM runs`).Scan(
		&stats.TotalRuns,
		&stats.OKRuns,
		&stats.FailedRuns,
		&stats.RowsBefore,
		&stats.RowsAfter,
		&stats.RowsChanged,
		&stats.RowsDropped,
		&stats.InputBytes,
		&avgMs,
		&lastRun,
	)
	if err != nil {
		return nil, err
	}

	stats.AvgDuration = time.Duration(avgMs * float64(time.Millisecond))
	if lastRun.Valid {
		if t, ok := parseTime(lastRun.String); ok {
			stats.LastRun = t
		}
	}
	return stats, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func toRow(run Run) (runRow, error) {
	issues, err := marshalJSON(run.Issues, "[]")
	if err != nil {
		return runRow{}, fmt.Errorf("failed to encode issues: %w", err)
	}
	actions, err := marshalJSON(run.Actions, "[]")
	if err != nil {
		return runRow{}, fmt.Errorf("failed to encode actions: %w", err)
	}
	applied, err := marshalJSON(run.Applied, "[]")
	if err != nil {
		return runRow{}, fmt.Errorf("failed to encode plan: %w", err)
	}

	return runRow{
		ID:          run.ID,
		Command:     run.Command,
		Source:      run.Source,
		Provider:    run.Provider,
		Delimiter:   run.Delimiter,
		HasHeader:   run.HasHeader,
		InputBytes:  run.InputBytes,
		Explanation: run.Explanation,
		Issues:      issues,
		Actions:     actions,
		Applied:     applied,
		RowsBefore:  run.RowsBefore,
		RowsAfter:   run.RowsAfter,
		Columns:     run.Columns,
		RowsChanged: run.RowsChanged,
		RowsDropped: run.RowsDropped,
		DurationMs:  run.Duration.Milliseconds(),
		Status:      run.Status,
		Error:       run.Error,
		CreatedAt:   run.CreatedAt,
	}, nil
}

func fromRow(r runRow) (*Run, error) {
	run := &Run{
		ID:          r.ID,
		Command:     r.Command,
		Source:      r.Source,
		Provider:    r.Provider,
		Delimiter:   r.Delimiter,
		HasHeader:   r.HasHeader,
		InputBytes:  r.InputBytes,
		Explanation: r.Explanation,
		RowsBefore:  r.RowsBefore,
		RowsAfter:   r.RowsAfter,
		Columns:     r.Columns,
		RowsChanged: r.RowsChanged,
		RowsDropped: r.RowsDropped,
		Duration:    time.Duration(r.DurationMs) * time.Millisecond,
		Status:      r.Status,
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
	}
	if err := json.Unmarshal([]byte(r.Issues), &run.Issues); err != nil {
		return nil, fmt.Errorf("run %s: bad issues: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.Actions), &run.Actions); err != nil {
		return nil, fmt.Errorf("run %s: bad actions: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.Applied), &run.Applied); err != nil {
		return nil, fmt.Errorf("run %s: bad plan: %w", r.ID, err)
	}
	return run, nil
}

func marshalJSON(v any, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// parseTime reads the aggregate MAX(created_at), which the driver returns as
// plain text rather than a typed timestamp.
func parseTime(s string) (time.Time, bool) {
	if i := strings.Index(s, " m="); i >= 0 {
		s = s[:i]
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
