// Package action defines the closed set of cleaning actions and the
// conversion of untrusted advisor suggestions into that set.
package action

// Kind identifies an action on the wire.
type Kind string

const (
	KindTrimWhitespace      Kind = "TRIM_WHITESPACE"
	KindStripWrappingQuotes Kind = "STRIP_WRAPPING_QUOTES"
	KindEnsureEqualColumns  Kind = "ENSURE_EQUAL_COLUMNS"
	KindRemoveEmptyRows     Kind = "REMOVE_EMPTY_ROWS"
	KindCoerceNumeric       Kind = "COERCE_NUMERIC"
)

// ColumnMode selects how ENSURE_EQUAL_COLUMNS treats a row whose width
// differs from the first row.
type ColumnMode string

const (
	ModeDropRow      ColumnMode = "drop-row"
	ModePadWithEmpty ColumnMode = "pad-with-empty"
)

// ErrorPolicy selects what COERCE_NUMERIC does with a value that is not a
// number.
type ErrorPolicy string

const (
	OnErrorDropRow ErrorPolicy = "drop-row"
	OnErrorSetNull ErrorPolicy = "set-null"
	OnErrorSetZero ErrorPolicy = "set-zero"
)

// Action is one cleaning operation. The set of implementations is closed:
// only the types in this package satisfy it.
type Action interface {
	Kind() Kind
	sealed()
}

type TrimWhitespace struct{}

type StripWrappingQuotes struct{}

type EnsureEqualColumns struct {
	Mode ColumnMode
}

type RemoveEmptyRows struct{}

// CoerceNumeric rewrites Column to canonical numbers. Column is 0-based.
type CoerceNumeric struct {
	Column  int
	OnError ErrorPolicy
}

func (TrimWhitespace) Kind() Kind      { return KindTrimWhitespace }
func (StripWrappingQuotes) Kind() Kind { return KindStripWrappingQuotes }
func (EnsureEqualColumns) Kind() Kind  { return KindEnsureEqualColumns }
func (RemoveEmptyRows) Kind() Kind     { return KindRemoveEmptyRows }
func (CoerceNumeric) Kind() Kind       { return KindCoerceNumeric }

func (TrimWhitespace) sealed()      {}
func (StripWrappingQuotes) sealed() {}
func (EnsureEqualColumns) sealed()  {}
func (RemoveEmptyRows) sealed()     {}
func (CoerceNumeric) sealed()       {}

// PreClean returns the plan applied to every input before the advisor is
// consulted. The order matters: quotes are stripped before trimming so that
// `" x "` style cells end up as `x`.
func PreClean() []Action {
	return []Action{
		StripWrappingQuotes{},
		TrimWhitespace{},
		RemoveEmptyRows{},
		EnsureEqualColumns{Mode: ModePadWithEmpty},
	}
}

// Encode converts a plan into the loosely-typed candidate shape used by the
// advisor and by plan files. Normalize(Encode(p)) yields p.
func Encode(plan []Action) []map[string]any {
	out := make([]map[string]any, 0, len(plan))
	for _, a := range plan {
		m := map[string]any{"type": string(a.Kind())}
		switch v := a.(type) {
		case EnsureEqualColumns:
			m["mode"] = string(v.Mode)
		case CoerceNumeric:
			m["columnIndex"] = v.Column
			m["onError"] = string(v.OnError)
		}
		out = append(out, m)
	}
	return out
}
