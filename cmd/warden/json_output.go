package main

import (
	"encoding/json"
	"io"
)

// writeJSON encodes v as indented JSON, one document per call.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
