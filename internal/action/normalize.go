package action

import (
	"encoding/json"
	"math"
)

// columnIndexKeys lists the accepted spellings of the COERCE_NUMERIC column
// field, in lookup order.
var columnIndexKeys = []string{"columnIndex", "column_index"}

// Normalize converts advisor candidates into typed actions. Candidates that
// are not objects, carry an unknown type, or lack a required parameter are
// dropped; the rest keep their relative order. Normalize never panics.
func Normalize(candidates []any) []Action {
	out := make([]Action, 0, len(candidates))
	for _, c := range candidates {
		if a, ok := NormalizeOne(c); ok {
			out = append(out, a)
		}
	}
	return out
}

// NormalizeOne converts a single candidate. ok is false when the candidate
// must be discarded.
func NormalizeOne(candidate any) (Action, bool) {
	obj, ok := asObject(candidate)
	if !ok {
		return nil, false
	}
	kind, ok := obj["type"].(string)
	if !ok {
		return nil, false
	}

	switch Kind(kind) {
	case KindTrimWhitespace:
		return TrimWhitespace{}, true
	case KindStripWrappingQuotes:
		return StripWrappingQuotes{}, true
	case KindRemoveEmptyRows:
		return RemoveEmptyRows{}, true
	case KindEnsureEqualColumns:
		mode := ModeDropRow
		if s, _ := obj["mode"].(string); s == string(ModePadWithEmpty) {
			mode = ModePadWithEmpty
		}
		return EnsureEqualColumns{Mode: mode}, true
	case KindCoerceNumeric:
		col, ok := columnIndex(obj)
		if !ok {
			return nil, false
		}
		policy := OnErrorDropRow
		switch s, _ := obj["onError"].(string); ErrorPolicy(s) {
		case OnErrorSetNull, OnErrorSetZero, OnErrorDropRow:
			policy = ErrorPolicy(s)
		}
		return CoerceNumeric{Column: col, OnError: policy}, true
	default:
		return nil, false
	}
}

// asObject accepts the object shapes produced by encoding/json, yaml.v3 and
// Encode.
func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			if ks, ok := k.(string); ok {
				out[ks] = val
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func columnIndex(obj map[string]any) (int, bool) {
	for _, key := range columnIndexKeys {
		v, present := obj[key]
		if !present {
			continue
		}
		return toIndex(v)
	}
	return 0, false
}

// toIndex accepts only non-negative integral numbers that fit an int.
func toIndex(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		return n, n >= 0
	case int64:
		if n < 0 || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case uint64:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
