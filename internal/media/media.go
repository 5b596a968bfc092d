// Package media turns uploaded files into data URIs stored directly in the
// portfolio document.
package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxBytes bounds an upload when the caller passes no limit.
const DefaultMaxBytes = 5 << 20

// TooLargeError reports an upload over the size limit
type TooLargeError struct {
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("media error: file exceeds %d bytes", e.Limit)
}

// EncodeDataURI reads r (at most maxBytes) and returns a
// "data:<mime>;base64,<payload>" URI with the sniffed MIME type. An empty
// input is an error.
func EncodeDataURI(r io.Reader, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read media: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return "", &TooLargeError{Limit: maxBytes}
	}
	if len(data) == 0 {
		return "", fmt.Errorf("media error: file is empty")
	}

	mime := mimetype.Detect(data)
	return "data:" + mediaType(mime) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// mediaType drops MIME parameters such as "; charset=utf-8".
func mediaType(m *mimetype.MIME) string {
	s := m.String()
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// DecodeDataURI splits a base64 data URI back into its MIME type and bytes.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("media error: not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("media error: data URI has no payload")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("media error: data URI is not base64")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("media error: %w", err)
	}
	return mime, data, nil
}

// IsImage reports whether data sniffs as an image type.
func IsImage(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return true
		}
	}
	return bytes.HasPrefix(data, []byte("<svg"))
}
