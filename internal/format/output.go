// Package format renders CLI results as JSON or EDN.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	JSON = "json"
	EDN  = "edn"
)

// Check reports whether name is a supported output format.
func Check(name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", JSON, EDN:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want json or edn)", name)
	}
}

// Write renders v in the requested format followed by a newline.
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", JSON:
		return WriteJSON(w, v, pretty)
	case EDN:
		return WriteEDN(w, v, pretty)
	default:
		return Check(format)
	}
}

// WriteJSON writes strict JSON. HTML escaping is off so argument text prints as typed.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
