package table

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode reads all of r as text. A UTF-8 or UTF-16 byte-order mark selects
// the encoding and is removed; input without a BOM is treated as UTF-8.
func Decode(r io.Reader) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return "", fmt.Errorf("failed to decode input: %w", err)
	}
	return string(data), nil
}
