// Package interpreter applies a plan of cleaning actions to a table.
//
// Actions run strictly in order and each one sees the table produced by the
// previous one. Nothing here blocks or shares state, so concurrent calls on
// different tables are safe.
package interpreter

import (
	"fmt"
	"strings"

	"github.com/valpere/tidycsv/internal/action"
	"github.com/valpere/tidycsv/internal/table"
)

// Stats counts the effect of one or more interpreter passes.
type Stats struct {
	RowsChanged int `json:"rowsChanged"`
	RowsDropped int `json:"rowsDropped"`
}

// Add returns the element-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		RowsChanged: s.RowsChanged + o.RowsChanged,
		RowsDropped: s.RowsDropped + o.RowsDropped,
	}
}

// Apply runs plan over a copy of t and returns the result with the summed
// counters. t itself is left untouched.
func Apply(t table.Table, plan []action.Action, hasHeader bool) (table.Table, Stats) {
	rows := t.Clone()
	var total Stats
	for _, a := range plan {
		var st Stats
		rows, st = applyOne(rows, a, hasHeader)
		total = total.Add(st)
	}
	return rows, total
}

func applyOne(rows table.Table, a action.Action, hasHeader bool) (table.Table, Stats) {
	switch v := a.(type) {
	case action.TrimWhitespace:
		return trimWhitespace(rows)
	case action.StripWrappingQuotes:
		return stripWrappingQuotes(rows)
	case action.EnsureEqualColumns:
		return ensureEqualColumns(rows, v.Mode)
	case action.RemoveEmptyRows:
		return removeEmptyRows(rows, hasHeader)
	case action.CoerceNumeric:
		return coerceNumeric(rows, v.Column, v.OnError, hasHeader)
	default:
		// The action set is sealed; reaching this is a programming error.
		panic(fmt.Sprintf("interpreter: unsupported action %T", a))
	}
}

func trimWhitespace(rows table.Table) (table.Table, Stats) {
	var st Stats
	for _, row := range rows {
		for i, cell := range row {
			trimmed := strings.TrimSpace(cell)
			if trimmed != cell {
				row[i] = trimmed
				st.RowsChanged++
			}
		}
	}
	return rows, st
}

func stripWrappingQuotes(rows table.Table) (table.Table, Stats) {
	var st Stats
	for _, row := range rows {
		for i, cell := range row {
			trimmed := strings.TrimSpace(cell)
			if len(trimmed) >= 2 && strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
				row[i] = trimmed[1 : len(trimmed)-1]
				st.RowsChanged++
			}
		}
	}
	return rows, st
}

// ensureEqualColumns measures the first row once, before looking at any
// other row.
func ensureEqualColumns(rows table.Table, mode action.ColumnMode) (table.Table, Stats) {
	var st Stats
	if len(rows) == 0 {
		return rows, st
	}
	expected := len(rows[0])

	out := make(table.Table, 0, len(rows))
	for _, row := range rows {
		switch {
		case len(row) == expected:
			out = append(out, row)
		case mode == action.ModePadWithEmpty && len(row) < expected:
			padded := make(table.Row, expected)
			copy(padded, row)
			out = append(out, padded)
			st.RowsChanged++
		case mode == action.ModeDropRow:
			st.RowsDropped++
		default:
			out = append(out, row[:expected:expected])
			st.RowsChanged++
		}
	}
	return out, st
}

// removeEmptyRows ignores column 0 when a row has more than one column, as
// that column usually holds an identifier that survives when the rest of the
// record is blank.
func removeEmptyRows(rows table.Table, hasHeader bool) (table.Table, Stats) {
	var st Stats
	out := make(table.Table, 0, len(rows))
	for i, row := range rows {
		if i == 0 && hasHeader {
			out = append(out, row)
			continue
		}
		examined := row
		if len(row) > 1 {
			examined = row[1:]
		}
		if allBlank(examined) {
			st.RowsDropped++
			continue
		}
		out = append(out, row)
	}
	return out, st
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func coerceNumeric(rows table.Table, col int, onError action.ErrorPolicy, hasHeader bool) (table.Table, Stats) {
	var st Stats
	start := 0
	if hasHeader {
		start = 1
	}

	for i := start; i < len(rows); {
		row := rows[i]
		if col < 0 || col >= len(row) {
			i++
			continue
		}
		raw := row[col]
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			i++
			continue
		}

		if v, ok := ParseNumber(trimmed); ok {
			if canon := CanonicalNumber(v); canon != raw {
				row[col] = canon
				st.RowsChanged++
			}
			i++
			continue
		}

		switch onError {
		case action.OnErrorSetNull:
			row[col] = ""
			st.RowsChanged++
		case action.OnErrorSetZero:
			row[col] = "0"
			st.RowsChanged++
		default:
			rows = append(rows[:i], rows[i+1:]...)
			st.RowsDropped++
			continue
		}
		i++
	}
	return rows, st
}
