package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/valpere/tidycsv/internal/action"
	"github.com/valpere/tidycsv/internal/orchestrator"
)

func sampleReport() *orchestrator.Report {
	return &orchestrator.Report{
		Explanation: "price should be numeric",
		Issues:      []string{"non-numeric price"},
		Actions: []any{
			map[string]any{"type": "COERCE_NUMERIC", "columnIndex": 1, "onError": "set-zero"},
			map[string]any{"type": "BOGUS"},
		},
		Applied:     []action.Action{action.CoerceNumeric{Column: 1, OnError: action.OnErrorSetZero}},
		RowsBefore:  5,
		RowsAfter:   4,
		Columns:     2,
		RowsChanged: 5,
		RowsDropped: 1,
		CleanedCSV:  "name,price\nAl|ice,12.5\nBob,0\nCarol,3",
	}
}

var sampleInfo = Info{
	Source:      "prices.csv",
	Provider:    "ollama",
	Delimiter:   ",",
	HasHeader:   true,
	InputBytes:  2048,
	GeneratedAt: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"md", FormatMarkdown, false},
		{"Markdown", FormatMarkdown, false},
		{".html", FormatHTML, false},
		{"htm", FormatHTML, false},
		{"JSON", FormatJSON, false},
		{"pdf", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleReport(), sampleInfo)

	for _, want := range []string{
		"# CSV cleaning report: prices.csv",
		"using the **ollama** advisor",
		"| Input size | 2.0 kB |",
		"| Rows before | 5 |",
		"| Rows dropped | 1 |",
		"## Explanation\n\nprice should be numeric",
		"- non-numeric price",
		"1. Coerce column 1 to numbers (set-zero on error)",
		"1 suggested action could not be used and was ignored.",
		"| name | price |",
		`| Al\|ice | 12.5 |`,
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
}

func TestMarkdown_NoHeaderPreviewAndTruncation(t *testing.T) {
	rows := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		rows = append(rows, "x;y")
	}
	rep := &orchestrator.Report{CleanedCSV: strings.Join(rows, "\n"), RowsAfter: 15, Columns: 2}

	md := Markdown(rep, Info{Delimiter: ";"})

	if !strings.Contains(md, "| 0 | 1 |") {
		t.Errorf("expected numbered header for headerless preview\n%s", md)
	}
	if got := strings.Count(md, "| x | y |"); got != PreviewRows {
		t.Errorf("expected %d preview rows, got %d", PreviewRows, got)
	}
	if !strings.Contains(md, "and 5 more rows") {
		t.Error("expected truncation note")
	}
	if !strings.Contains(md, "No actions were applied") {
		t.Error("expected empty plan note")
	}
	if strings.Contains(md, "Generated") {
		t.Error("no timestamp expected when GeneratedAt is zero")
	}
}

func TestHTML(t *testing.T) {
	out := HTML(sampleReport(), sampleInfo)

	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Error("expected a standalone HTML document")
	}
	for _, want := range []string{"<h1", "<table>", "<li>non-numeric price</li>", "</html>"} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, sampleReport(), sampleInfo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["source"] != "prices.csv" {
		t.Errorf("source = %v", got["source"])
	}
	if got["rowsAfter"] != 4.0 {
		t.Errorf("rowsAfter = %v", got["rowsAfter"])
	}
	if actions := got["actions"].([]any); len(actions) != 2 {
		t.Errorf("expected verbatim actions, got %d", len(actions))
	}
	applied := got["applied"].([]any)
	if len(applied) != 1 || applied[0].(map[string]any)["type"] != "COERCE_NUMERIC" {
		t.Errorf("applied = %v", applied)
	}
	if _, ok := got["cleanedCsv"]; ok {
		t.Error("JSON report must not embed the cleaned CSV")
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Format("pdf"), sampleReport(), sampleInfo); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestDescribe(t *testing.T) {
	for _, a := range append(action.PreClean(), action.EnsureEqualColumns{Mode: action.ModeDropRow}, action.CoerceNumeric{}) {
		if Describe(a) == "" {
			t.Errorf("empty description for %s", a.Kind())
		}
	}
}
