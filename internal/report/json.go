package report

import (
	"bytes"
	"encoding/json"

	"github.com/brightai/refcheck/internal/atomicfile"
)

// EncodeJSON renders v with two-space indentation and a trailing newline.
// HTML characters are not escaped so paths like "a&b.html" stay readable.
func EncodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON encodes v and writes it atomically to path.
func WriteJSON(path string, v interface{}) error {
	data, err := EncodeJSON(v)
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(path, data, 0o644)
}
