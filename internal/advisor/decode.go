package advisor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/valpere/tidycsv/internal/postprocess"
)

// Decode extracts the JSON object from a free-form advisor reply. The object
// spans from the first '{' to the last '}' once LLM artifacts are removed and
// must parse strictly. It must carry an "actions" array; "explanation", when
// present, must be a string. Non-string issues are skipped.
//
// Every failure is returned as an *InputError.
func Decode(raw string) (*Advice, error) {
	cleaned := postprocess.Clean(raw)
	if cleaned == "" {
		return nil, &InputError{Err: ErrEmptyContent, Raw: raw}
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return nil, &InputError{Err: ErrNoJSONObject, Raw: raw}
	}

	payload, err := decodeObject(cleaned[start : end+1])
	if err != nil {
		return nil, &InputError{Err: fmt.Errorf("%w: %v", ErrInvalidJSON, err), Raw: raw}
	}

	actions, ok := payload["actions"].([]any)
	if !ok {
		return nil, &InputError{Err: fmt.Errorf("%w: actions must be an array", ErrMissingFields), Raw: raw}
	}

	advice := &Advice{Actions: actions, Issues: []string{}}
	if v, present := payload["explanation"]; present && v != nil {
		s, ok := v.(string)
		if !ok {
			return nil, &InputError{Err: fmt.Errorf("%w: explanation must be a string", ErrMissingFields), Raw: raw}
		}
		advice.Explanation = s
	}
	if list, ok := payload["issues"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				advice.Issues = append(advice.Issues, s)
			}
		}
	}

	return advice, nil
}

// decodeObject parses exactly one JSON object and rejects trailing data.
// Numbers are kept as json.Number so integral column indexes survive intact.
func decodeObject(text string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON object")
	}
	return payload, nil
}
