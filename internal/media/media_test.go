package media

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is the 8-byte PNG signature followed by an IHDR chunk start.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func TestEncodeDataURI(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantMime string
	}{
		{"png", pngHeader, "image/png"},
		{"pdf", []byte("%PDF-1.7\n1 0 obj\n"), "application/pdf"},
		{"text", []byte("hello portfolio"), "text/plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri, err := EncodeDataURI(bytes.NewReader(tt.data), 0)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(uri, "data:"+tt.wantMime+";base64,"), uri)

			mime, data, err := DecodeDataURI(uri)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMime, mime)
			assert.Equal(t, tt.data, data)
		})
	}
}

func TestEncodeDataURI_TooLarge(t *testing.T) {
	_, err := EncodeDataURI(bytes.NewReader(make([]byte, 11)), 10)

	var tooLarge *TooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, int64(10), tooLarge.Limit)
}

func TestEncodeDataURI_ExactlyAtLimit(t *testing.T) {
	_, err := EncodeDataURI(bytes.NewReader([]byte("0123456789")), 10)
	assert.NoError(t, err)
}

func TestEncodeDataURI_Empty(t *testing.T) {
	_, err := EncodeDataURI(bytes.NewReader(nil), 0)
	assert.ErrorContains(t, err, "empty")
}

func TestDecodeDataURI_Errors(t *testing.T) {
	for name, uri := range map[string]string{
		"not a data uri": "https://example.com/x.png",
		"no payload":     "data:image/png;base64",
		"not base64":     "data:text/plain,hello",
		"bad payload":    "data:image/png;base64,@@@",
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := DecodeDataURI(uri)
			assert.Error(t, err)
		})
	}
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage(pngHeader))
	assert.True(t, IsImage([]byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)))
	assert.False(t, IsImage([]byte("plain words")))
}
