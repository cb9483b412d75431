// Package report renders the outcome of a cleaning run for humans (Markdown,
// HTML) and machines (JSON).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/valpere/tidycsv/internal/action"
	"github.com/valpere/tidycsv/internal/orchestrator"
	"github.com/valpere/tidycsv/internal/table"
)

type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// PreviewRows is the number of cleaned rows shown in Markdown and HTML
// reports.
const PreviewRows = 10

// ParseFormat accepts the format names used on the command line, as well as
// the matching file extensions.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown report format: %q (use md, html or json)", s)
	}
}

// Info is run metadata that is not part of the cleaning result itself.
type Info struct {
	Source      string
	Provider    string
	Delimiter   string
	HasHeader   bool
	InputBytes  int
	GeneratedAt time.Time
}

type jsonReport struct {
	Source      string           `json:"source,omitempty"`
	Provider    string           `json:"provider,omitempty"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Explanation string           `json:"explanation"`
	Issues      []string         `json:"issues"`
	Actions     []any            `json:"actions"`
	Applied     []map[string]any `json:"applied"`
	RowsBefore  int              `json:"rowsBefore"`
	RowsAfter   int              `json:"rowsAfter"`
	Columns     int              `json:"columns"`
	RowsChanged int              `json:"rowsChanged"`
	RowsDropped int              `json:"rowsDropped"`
}

// Write renders rep in the given format.
func Write(w io.Writer, format Format, rep *orchestrator.Report, info Info) error {
	switch format {
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(rep, info))
		return err
	case FormatHTML:
		_, err := io.WriteString(w, HTML(rep, info))
		return err
	case FormatJSON:
		out := jsonReport{
			Source:      info.Source,
			Provider:    info.Provider,
			GeneratedAt: info.GeneratedAt,
			Explanation: rep.Explanation,
			Issues:      rep.Issues,
			Actions:     rep.Actions,
			Applied:     action.Encode(rep.Applied),
			RowsBefore:  rep.RowsBefore,
			RowsAfter:   rep.RowsAfter,
			Columns:     rep.Columns,
			RowsChanged: rep.RowsChanged,
			RowsDropped: rep.RowsDropped,
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		return fmt.Errorf("unknown report format: %q", format)
	}
}

// Markdown renders rep as a Markdown document.
func Markdown(rep *orchestrator.Report, info Info) string {
	var sb strings.Builder

	title := "CSV cleaning report"
	if info.Source != "" {
		title += ": " + info.Source
	}
	sb.WriteString("# " + title + "\n\n")

	if !info.GeneratedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Generated %s", info.GeneratedAt.Format(time.RFC3339)))
		if info.Provider != "" {
			sb.WriteString(fmt.Sprintf(" using the **%s** advisor", info.Provider))
		}
		sb.WriteString(".\n\n")
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n|---|---|\n")
	if info.InputBytes > 0 {
		sb.WriteString(fmt.Sprintf("| Input size | %s |\n", humanize.Bytes(uint64(info.InputBytes))))
	}
	sb.WriteString(fmt.Sprintf("| Rows before | %s |\n", humanize.Comma(int64(rep.RowsBefore))))
	sb.WriteString(fmt.Sprintf("| Rows after | %s |\n", humanize.Comma(int64(rep.RowsAfter))))
	sb.WriteString(fmt.Sprintf("| Columns | %d |\n", rep.Columns))
	sb.WriteString(fmt.Sprintf("| Changes | %s |\n", humanize.Comma(int64(rep.RowsChanged))))
	sb.WriteString(fmt.Sprintf("| Rows dropped | %s |\n\n", humanize.Comma(int64(rep.RowsDropped))))

	if rep.Explanation != "" {
		sb.WriteString("## Explanation\n\n")
		sb.WriteString(rep.Explanation + "\n\n")
	}

	if len(rep.Issues) > 0 {
		sb.WriteString("## Issues\n\n")
		for _, issue := range rep.Issues {
			sb.WriteString("- " + issue + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Plan\n\n")
	if len(rep.Applied) == 0 {
		sb.WriteString("No actions were applied after pre-clean.\n\n")
	} else {
		for i, a := range rep.Applied {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, Describe(a)))
		}
		sb.WriteString("\n")
	}
	if skipped := len(rep.Actions) - len(rep.Applied); skipped > 0 {
		sb.WriteString(fmt.Sprintf("%d suggested %s could not be used and %s ignored.\n\n",
			skipped, plural(skipped, "action", "actions"), plural(skipped, "was", "were")))
	}

	if rep.CleanedCSV != "" {
		sb.WriteString("## Preview\n\n")
		writePreview(&sb, table.Parse(rep.CleanedCSV, delimiterOf(info)), info.HasHeader, PreviewRows)
	}

	return sb.String()
}

// HTML renders the Markdown report to HTML.
func HTML(rep *orchestrator.Report, info Info) string {
	return ToHTML([]byte(Markdown(rep, info)))
}

// Describe returns a one-line, human-readable account of an action.
func Describe(a action.Action) string {
	switch v := a.(type) {
	case action.TrimWhitespace:
		return "Trim whitespace in every cell"
	case action.StripWrappingQuotes:
		return "Strip wrapping double quotes"
	case action.RemoveEmptyRows:
		return "Remove empty rows"
	case action.EnsureEqualColumns:
		if v.Mode == action.ModePadWithEmpty {
			return "Make rows as wide as the first row (pad short rows, truncate long ones)"
		}
		return "Drop rows that are not as wide as the first row"
	case action.CoerceNumeric:
		return fmt.Sprintf("Coerce column %d to numbers (%s on error)", v.Column, v.OnError)
	default:
		return string(a.Kind())
	}
}

func writePreview(sb *strings.Builder, t table.Table, hasHeader bool, limit int) {
	if len(t) == 0 {
		return
	}
	width := t.Columns()

	var header table.Row
	body := t
	if hasHeader {
		header, body = t[0], t[1:]
	} else {
		header = make(table.Row, width)
		for i := range header {
			header[i] = fmt.Sprintf("%d", i)
		}
	}

	writeMarkdownRow(sb, header, width)
	sb.WriteString("|" + strings.Repeat("---|", width) + "\n")
	for i, row := range body {
		if i == limit {
			break
		}
		writeMarkdownRow(sb, row, width)
	}
	if len(body) > limit {
		sb.WriteString(fmt.Sprintf("\n…and %s more rows.\n", humanize.Comma(int64(len(body)-limit))))
	}
	sb.WriteString("\n")
}

func writeMarkdownRow(sb *strings.Builder, row table.Row, width int) {
	sb.WriteString("|")
	for i := 0; i < width; i++ {
		cell := ""
		if i < len(row) {
			cell = escapeCell(row[i])
		}
		sb.WriteString(" " + cell + " |")
	}
	sb.WriteString("\n")
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\r", " ", "\n", " ")

func escapeCell(s string) string {
	return cellReplacer.Replace(s)
}

func delimiterOf(info Info) string {
	if info.Delimiter == "" {
		return table.DefaultDelimiter
	}
	return info.Delimiter
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
