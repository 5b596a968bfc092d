package portfolio

import (
	"bytes"
	"encoding/json"
)

// Marshal encodes doc as compact JSON without HTML escaping.
func Marshal(doc Document) ([]byte, error) {
	return encode(doc, "")
}

// MarshalIndent encodes doc with two-space indentation, the format used for
// backups and for the build-time published data file.
func MarshalIndent(doc Document) ([]byte, error) {
	return encode(doc, "  ")
}

func encode(doc Document, indent string) ([]byte, error) {
	if doc == nil {
		doc = Document{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
