// Package table holds the in-memory representation of delimited text and the
// round trip between text and rows.
//
// Parsing is deliberately naive: lines are split on the literal delimiter with
// no awareness of quoting, so a quoted cell containing the delimiter becomes
// two cells. Column-count mismatches are repaired later by the interpreter.
package table

import (
	"regexp"
	"strings"
)

// DefaultSampleLines is the number of lines BuildSample keeps when the caller
// does not ask for a specific amount.
const DefaultSampleLines = 50

// DefaultDelimiter is used whenever a caller passes an empty delimiter.
const DefaultDelimiter = ","

var lineBreakRe = regexp.MustCompile(`\r\n|\n|\r`)

// Row is an ordered list of cell values.
type Row []string

// Table is an ordered list of rows. Row 0 is the header when the caller says
// the data has one; the table itself does not record that.
type Table []Row

// Clone returns a deep copy so callers can transform without aliasing.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for i, row := range t {
		out[i] = append(Row(nil), row...)
	}
	return out
}

// Columns returns the column count of the first row, or 0 for an empty table.
func (t Table) Columns() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// SplitLines splits text on any line-ending style.
func SplitLines(text string) []string {
	return lineBreakRe.Split(text, -1)
}

// Parse converts text into a Table. Zero-length lines are discarded; lines
// holding only whitespace are kept.
func Parse(text, delimiter string) Table {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	var t Table
	for _, line := range SplitLines(text) {
		if line == "" {
			continue
		}
		t = append(t, Row(strings.Split(line, delimiter)))
	}
	return t
}

// Serialize joins cells with delimiter and rows with a single "\n".
func Serialize(t Table, delimiter string) string {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	lines := make([]string, len(t))
	for i, row := range t {
		lines[i] = strings.Join(row, delimiter)
	}
	return strings.Join(lines, "\n")
}

// BuildSample returns the first maxLines lines of text, joined by "\n".
// A non-positive maxLines selects DefaultSampleLines.
func BuildSample(text string, maxLines int) string {
	if maxLines <= 0 {
		maxLines = DefaultSampleLines
	}
	lines := SplitLines(text)
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return strings.Join(lines, "\n")
}
