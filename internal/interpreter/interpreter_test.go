package interpreter

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/valpere/tidycsv/internal/action"
	"github.com/valpere/tidycsv/internal/table"
)

func TestApply_PreCleanScenario(t *testing.T) {
	input := "ID,Name,Age\n1, John ,25\n2,\"Anna\",\n,, \n"
	rows := table.Parse(input, ",")

	got, st := Apply(rows, action.PreClean(), true)

	want := table.Table{
		{"ID", "Name", "Age"},
		{"1", "John", "25"},
		{"2", "Anna", ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
	if st.RowsDropped != 1 {
		t.Errorf("expected 1 dropped row, got %d", st.RowsDropped)
	}
	if st.RowsChanged != 3 {
		t.Errorf("expected 3 changed cells, got %d", st.RowsChanged)
	}
	if rows[1][1] != " John " {
		t.Error("Apply must not mutate its input table")
	}
}

func TestApply_PreCleanIdempotent(t *testing.T) {
	inputs := []string{
		"ID,Name,Age\n1, John ,25\n2,\"Anna\",\n,, \n",
		"a;b;c\n\" q \";x\n;;\n1;2;3;4\n",
		"\" a \",b\nc,\"d\"\n",
	}
	delims := []string{",", ";", ","}

	for i, text := range inputs {
		first, _ := Apply(table.Parse(text, delims[i]), action.PreClean(), true)
		second, st := Apply(first, action.PreClean(), true)
		if st != (Stats{}) {
			t.Errorf("input %d: second pass reported changes: %+v", i, st)
		}
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("input %d: second pass changed table (-first +second):\n%s", i, diff)
		}
	}
}

func TestTrimWhitespace(t *testing.T) {
	rows := table.Table{{" a ", "b", "\tc\n"}, {"", "  "}}

	got, st := Apply(rows, []action.Action{action.TrimWhitespace{}}, false)

	want := table.Table{{"a", "b", "c"}, {"", ""}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if st.RowsChanged != 3 {
		t.Errorf("expected 3 changed, got %d", st.RowsChanged)
	}
}

func TestStripWrappingQuotes(t *testing.T) {
	rows := table.Table{{`"a"`, ` "b" `, `"`, `""`, `"c`, `x"y"`, `"say ""hi"""`}}

	got, st := Apply(rows, []action.Action{action.StripWrappingQuotes{}}, false)

	want := table.Table{{"a", "b", `"`, "", `"c`, `x"y"`, `say ""hi""`}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if st.RowsChanged != 4 {
		t.Errorf("expected 4 changed, got %d", st.RowsChanged)
	}
}

func TestStripWrappingQuotes_TrimNotPersisted(t *testing.T) {
	rows := table.Table{{"  plain  "}}
	got, st := Apply(rows, []action.Action{action.StripWrappingQuotes{}}, false)
	if got[0][0] != "  plain  " {
		t.Errorf("expected cell untouched, got %q", got[0][0])
	}
	if st.RowsChanged != 0 {
		t.Errorf("expected no changes, got %d", st.RowsChanged)
	}
}

func TestEnsureEqualColumns_DropRow(t *testing.T) {
	rows := table.Table{{"a", "b", "c"}, {"x", "y"}}

	got, st := Apply(rows, []action.Action{action.EnsureEqualColumns{Mode: action.ModeDropRow}}, true)

	want := table.Table{{"a", "b", "c"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if st.RowsDropped != 1 || st.RowsChanged != 0 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestEnsureEqualColumns_Pad(t *testing.T) {
	rows := table.Table{{"a", "b", "c"}, {"x"}, {"1", "2", "3", "4"}, {"p", "q", "r"}}

	got, st := Apply(rows, []action.Action{action.EnsureEqualColumns{Mode: action.ModePadWithEmpty}}, true)

	want := table.Table{{"a", "b", "c"}, {"x", "", ""}, {"1", "2", "3"}, {"p", "q", "r"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if st.RowsChanged != 2 || st.RowsDropped != 0 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestEnsureEqualColumns_EmptyTable(t *testing.T) {
	got, st := Apply(nil, []action.Action{action.EnsureEqualColumns{Mode: action.ModePadWithEmpty}}, true)
	if len(got) != 0 || st != (Stats{}) {
		t.Errorf("expected no-op on empty table, got %v %+v", got, st)
	}
}

func TestEnsureEqualColumns_SnapshotPerAction(t *testing.T) {
	// Without a header the blank first row is removed, so the column check
	// measures the row that became first.
	rows := table.Table{{"", ""}, {"1", "2", "3"}, {"4"}}
	plan := []action.Action{
		action.RemoveEmptyRows{},
		action.EnsureEqualColumns{Mode: action.ModePadWithEmpty},
	}

	got, st := Apply(rows, plan, false)

	want := table.Table{{"1", "2", "3"}, {"4", "", ""}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if st.RowsDropped != 1 || st.RowsChanged != 1 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestRemoveEmptyRows(t *testing.T) {
	rows := table.Table{
		{"", ""},
		{"7", "", " "},
		{"", "x"},
		{" "},
		{"solo"},
		{"8", "", "y"},
	}

	got, st := Apply(rows, []action.Action{action.RemoveEmptyRows{}}, true)

	want := table.Table{
		{"", ""},
		{"", "x"},
		{"solo"},
		{"8", "", "y"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if st.RowsDropped != 2 {
		t.Errorf("expected 2 dropped, got %d", st.RowsDropped)
	}
}

func TestRemoveEmptyRows_NoHeader(t *testing.T) {
	rows := table.Table{{"id", "", ""}, {"1", "a", ""}}
	got, st := Apply(rows, []action.Action{action.RemoveEmptyRows{}}, false)
	if len(got) != 1 || st.RowsDropped != 1 {
		t.Errorf("expected first row dropped without header, got %v %+v", got, st)
	}
}

func TestCoerceNumeric_SetNull(t *testing.T) {
	rows := table.Table{
		{"ID", "Name", "Age"},
		{"1", "John", "25 "},
		{"2", "Anna", "n/a"},
	}

	got, st := Apply(rows, []action.Action{action.CoerceNumeric{Column: 2, OnError: action.OnErrorSetNull}}, true)

	want := table.Table{
		{"ID", "Name", "Age"},
		{"1", "John", "25"},
		{"2", "Anna", ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if st.RowsChanged != 2 || st.RowsDropped != 0 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestCoerceNumeric_DropRowConsecutive(t *testing.T) {
	rows := table.Table{
		{"v"},
		{"x"},
		{"y"},
		{"3.50"},
		{"z"},
		{""},
	}

	got, st := Apply(rows, []action.Action{action.CoerceNumeric{Column: 0, OnError: action.OnErrorDropRow}}, true)

	want := table.Table{{"v"}, {"3.5"}, {""}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if st.RowsDropped != 3 || st.RowsChanged != 1 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestCoerceNumeric_HeaderAndBounds(t *testing.T) {
	rows := table.Table{{"n", "abc"}, {"1"}, {"2", "x"}}

	got, st := Apply(rows, []action.Action{action.CoerceNumeric{Column: 1, OnError: action.OnErrorSetZero}}, true)

	want := table.Table{{"n", "abc"}, {"1"}, {"2", "0"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if st.RowsChanged != 1 {
		t.Errorf("expected 1 changed, got %d", st.RowsChanged)
	}
}

func TestCoerceNumeric_SetZeroLeavesOnlyNumbers(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	pool := []string{"1", " 2 ", "abc", "", "1,000", "+5", "-0.5", "1e3", "NaN", "  ", "0x10", ".5", "7."}

	for iter := 0; iter < 50; iter++ {
		rows := table.Table{{"h1", "h2"}}
		for i := 0; i < 20; i++ {
			rows = append(rows, table.Row{pool[r.Intn(len(pool))], pool[r.Intn(len(pool))]})
		}

		got, _ := Apply(rows, []action.Action{action.CoerceNumeric{Column: 1, OnError: action.OnErrorSetZero}}, true)

		for i := 1; i < len(got); i++ {
			cell := got[i][1]
			if strings.TrimSpace(cell) == "" {
				continue
			}
			if _, ok := ParseNumber(cell); !ok {
				t.Fatalf("iteration %d row %d: non-numeric value %q survived", iter, i, cell)
			}
		}
	}
}

func TestPadPropertyAndHeaderSurvival(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	cells := []string{"", " ", "a", `"q"`, "1"}

	for iter := 0; iter < 100; iter++ {
		var rows table.Table
		n := 1 + r.Intn(8)
		for i := 0; i < n; i++ {
			width := 1 + r.Intn(5)
			row := make(table.Row, width)
			for j := range row {
				row[j] = cells[r.Intn(len(cells))]
			}
			rows = append(rows, row)
		}
		header := append(table.Row(nil), rows[0]...)

		afterRemove, _ := Apply(rows, []action.Action{action.RemoveEmptyRows{}}, true)
		if len(afterRemove) == 0 || !cmp.Equal(afterRemove[0], header) {
			t.Fatalf("iteration %d: header removed or altered", iter)
		}

		padded, _ := Apply(rows, []action.Action{action.EnsureEqualColumns{Mode: action.ModePadWithEmpty}}, true)
		for i, row := range padded {
			if len(row) != len(header) {
				t.Fatalf("iteration %d row %d: width %d, want %d", iter, i, len(row), len(header))
			}
		}
	}
}

func TestApply_UnknownActionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil action")
		}
	}()
	Apply(table.Table{{"a"}}, []action.Action{nil}, false)
}

func TestStats_Add(t *testing.T) {
	got := Stats{RowsChanged: 2, RowsDropped: 1}.Add(Stats{RowsChanged: 3, RowsDropped: 4})
	if got != (Stats{RowsChanged: 5, RowsDropped: 5}) {
		t.Errorf("unexpected sum %+v", got)
	}
}
