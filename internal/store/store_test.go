package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/valpere/tidycsv/internal/action"
	"github.com/valpere/tidycsv/internal/orchestrator"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun() Run {
	return Run{
		Command:     "clean",
		Source:      "prices.csv",
		Provider:    "ollama",
		Delimiter:   ",",
		HasHeader:   true,
		InputBytes:  120,
		Explanation: "price should be numeric",
		Issues:      []string{"non-numeric price"},
		Actions: []any{
			map[string]any{"type": "COERCE_NUMERIC", "columnIndex": 1.0, "onError": "set-zero"},
			"junk",
		},
		Applied:     []map[string]any{{"type": "COERCE_NUMERIC", "columnIndex": 1.0, "onError": "set-zero"}},
		RowsBefore:  5,
		RowsAfter:   4,
		Columns:     2,
		RowsChanged: 5,
		RowsDropped: 1,
		Duration:    1500 * time.Millisecond,
	}
}

func TestStore_New(t *testing.T) {
	s := newTestStore(t)
	if s == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestStore_New_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_New_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	id, err := s.SaveRun(context.Background(), sampleRun())
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s.Close()

	if _, err := s.GetRun(context.Background(), id); err != nil {
		t.Errorf("run lost after reopen: %v", err)
	}
}

func TestStore_SaveAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, sampleRun())
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("expected a UUID, got %q", id)
	}

	run, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Command != "clean" || run.Source != "prices.csv" || run.Provider != "ollama" {
		t.Errorf("unexpected run: %+v", run)
	}
	if !run.HasHeader || run.Delimiter != "," {
		t.Errorf("layout not preserved: %+v", run)
	}
	if run.Status != StatusOK {
		t.Errorf("expected default status ok, got %q", run.Status)
	}
	if run.Duration != 1500*time.Millisecond {
		t.Errorf("duration = %v", run.Duration)
	}
	if len(run.Issues) != 1 || run.Issues[0] != "non-numeric price" {
		t.Errorf("issues = %v", run.Issues)
	}
	if len(run.Actions) != 2 || run.Actions[1] != "junk" {
		t.Errorf("actions not stored verbatim: %v", run.Actions)
	}
	if len(run.Applied) != 1 || run.Applied[0]["type"] != "COERCE_NUMERIC" {
		t.Errorf("applied = %v", run.Applied)
	}
	if run.RowsBefore != 5 || run.RowsAfter != 4 || run.Columns != 2 || run.RowsChanged != 5 || run.RowsDropped != 1 {
		t.Errorf("stats not preserved: %+v", run)
	}
	if run.CreatedAt.IsZero() {
		t.Error("expected creation time")
	}
}

func TestStore_SaveRun_NilSlices(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, Run{Command: "apply", Status: StatusFailed, Error: "boom"})
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	run, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Issues == nil || run.Actions == nil || run.Applied == nil {
		t.Error("expected empty, non-nil slices")
	}
	if run.Status != StatusFailed || run.Error != "boom" {
		t.Errorf("status = %q error = %q", run.Status, run.Error)
	}
}

func TestStore_GetRun_Prefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := sampleRun()
	a.ID = "abc-111"
	b := sampleRun()
	b.ID = "abc-222"
	for _, r := range []Run{a, b} {
		if _, err := s.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	run, err := s.GetRun(ctx, "abc-2")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.ID != "abc-222" {
		t.Errorf("expected abc-222, got %q", run.ID)
	}

	if _, err := s.GetRun(ctx, "abc"); !errors.Is(err, ErrAmbiguous) {
		t.Errorf("expected ErrAmbiguous, got %v", err)
	}
	if _, err := s.GetRun(ctx, "zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetRun(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty ID, got %v", err)
	}
}

func TestStore_ListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		r := sampleRun()
		r.ID = id
		r.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if _, err := s.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != "r3" || runs[2].ID != "r1" {
		t.Errorf("expected newest first, got %s..%s", runs[0].ID, runs[2].ID)
	}

	runs, err = s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected limit 2, got %d", len(runs))
	}
}

func TestStore_ListRuns_Empty(t *testing.T) {
	s := newTestStore(t)

	runs, err := s.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestStore_DeleteRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, sampleRun())
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	if err := s.DeleteRun(ctx, id); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := s.GetRun(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteRun(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStore_ClearRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.SaveRun(ctx, sampleRun()); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	n, err := s.ClearRuns(ctx)
	if err != nil {
		t.Fatalf("ClearRuns failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 removed, got %d", n)
	}

	runs, _ := s.ListRuns(ctx, 0)
	if len(runs) != 0 {
		t.Errorf("expected empty history, got %d", len(runs))
	}
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalRuns != 0 || !stats.LastRun.IsZero() {
		t.Errorf("expected empty stats, got %+v", stats)
	}

	last := time.Date(2026, 10, 2, 8, 30, 0, 0, time.UTC)
	ok := sampleRun()
	ok.CreatedAt = last.Add(-time.Hour)
	failed := Run{Command: "clean", Status: StatusFailed, Error: "timeout", Duration: 500 * time.Millisecond, CreatedAt: last}
	for _, r := range []Run{ok, failed} {
		if _, err := s.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	stats, err = s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalRuns != 2 || stats.OKRuns != 1 || stats.FailedRuns != 1 {
		t.Errorf("run counts = %+v", stats)
	}
	if stats.RowsBefore != 5 || stats.RowsAfter != 4 || stats.RowsChanged != 5 || stats.RowsDropped != 1 {
		t.Errorf("row sums = %+v", stats)
	}
	if stats.InputBytes != 120 {
		t.Errorf("input bytes = %d", stats.InputBytes)
	}
	if stats.AvgDuration != time.Second {
		t.Errorf("avg duration = %v, want 1s", stats.AvgDuration)
	}
	if !stats.LastRun.Equal(last) {
		t.Errorf("last run = %v, want %v", stats.LastRun, last)
	}
}

func TestNewRun(t *testing.T) {
	rep := &orchestrator.Report{
		Explanation: "ok",
		Issues:      []string{"x"},
		Actions:     []any{map[string]any{"type": "TRIM_WHITESPACE"}},
		Applied:     []action.Action{action.TrimWhitespace{}},
		RowsBefore:  3,
		RowsAfter:   2,
		Columns:     4,
		RowsChanged: 1,
		RowsDropped: 1,
	}
	info := RunInfo{
		Command:    "clean",
		Source:     "a.csv",
		Provider:   "ollama",
		Options:    orchestrator.Options{Delimiter: ";", HasHeader: false},
		InputBytes: 42,
		Elapsed:    time.Second,
	}

	run := NewRun(info, rep, nil)
	if run.Status != StatusOK || run.Error != "" {
		t.Errorf("status = %q error = %q", run.Status, run.Error)
	}
	if run.Delimiter != ";" || run.HasHeader || run.InputBytes != 42 || run.Duration != time.Second {
		t.Errorf("info not copied: %+v", run)
	}
	if len(run.Applied) != 1 || run.Applied[0]["type"] != "TRIM_WHITESPACE" {
		t.Errorf("applied = %v", run.Applied)
	}
	if run.RowsAfter != 2 || run.Columns != 4 {
		t.Errorf("stats not copied: %+v", run)
	}

	failed := NewRun(info, nil, errors.New("advisor down"))
	if failed.Status != StatusFailed || failed.Error != "advisor down" {
		t.Errorf("status = %q error = %q", failed.Status, failed.Error)
	}
	if failed.RowsAfter != 0 || failed.Applied != nil {
		t.Error("failed run must not carry results")
	}
}
