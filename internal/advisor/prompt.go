package advisor

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a data-quality assistant that reviews CSV samples.
You never rewrite data yourself; you only propose structural fixes drawn from a fixed list of actions.
Respond ONLY with one JSON object and nothing else.`

// buildPrompt asks for an explanation, a list of issues and a plan using only
// the action types the interpreter knows.
func buildPrompt(sample string, meta Meta) string {
	delimiter := meta.Delimiter
	if delimiter == "" {
		delimiter = ","
	}
	header := "The first line is a header row."
	if !meta.HasHeader {
		header = "There is no header row; every line is data."
	}

	var sb strings.Builder
	sb.WriteString("Review the following CSV sample and propose cleaning actions.\n")
	sb.WriteString(fmt.Sprintf("Delimiter: %q. %s\n", delimiter, header))
	sb.WriteString("Whitespace trimming, wrapping quotes, empty rows and ragged rows have already been fixed.\n\n")
	sb.WriteString("SAMPLE:\n")
	sb.WriteString(sample)
	sb.WriteString("\n\n")
	sb.WriteString(`Allowed actions (use these exact type names):
  - {"type": "TRIM_WHITESPACE"}
  - {"type": "STRIP_WRAPPING_QUOTES"}
  - {"type": "REMOVE_EMPTY_ROWS"}
  - {"type": "ENSURE_EQUAL_COLUMNS", "mode": "drop-row" | "pad-with-empty"}
  - {"type": "COERCE_NUMERIC", "columnIndex": <0-based column number>, "onError": "drop-row" | "set-null" | "set-zero"}

Respond ONLY in JSON:
{
  "explanation": "...",
  "issues": ["..."],
  "actions": [ ... ]
}
`)
	return sb.String()
}
