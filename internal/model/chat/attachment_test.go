package chat

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG.
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestNewAttachmentSniffsContent(t *testing.T) {
	att, err := NewAttachment("/tmp/photo.bin", pngPixel)
	require.NoError(t, err)

	assert.Equal(t, "photo.bin", att.Name)
	assert.Equal(t, "image/png", att.MIMEType)
	assert.Equal(t, len(pngPixel), att.Size)
	assert.True(t, strings.HasPrefix(att.DataURI, "data:image/png;base64,"))
}

func TestNewAttachmentFallsBackToExtension(t *testing.T) {
	att, err := NewAttachment("notes.json", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, "application/json", att.MIMEType)
}

func TestNewAttachmentRejectsEmpty(t *testing.T) {
	_, err := NewAttachment("empty.txt", nil)
	assert.ErrorIs(t, err, ErrEmptyAttachment)
}

func TestLoadAttachment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pixel.png")
	require.NoError(t, os.WriteFile(path, pngPixel, 0o600))

	att, err := LoadAttachment(path)
	require.NoError(t, err)
	assert.Equal(t, "pixel.png", att.Name)
	assert.Equal(t, "image/png", att.MIMEType)
}

func TestParseDataURI(t *testing.T) {
	uri := "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello"))

	att, err := ParseDataURI("hello.txt", uri)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", att.MIMEType)
	assert.Equal(t, uri, att.DataURI)
	assert.Equal(t, 5, att.Size)
}

func TestParseDataURIDetectsMissingType(t *testing.T) {
	uri := "data:;base64," + base64.StdEncoding.EncodeToString(pngPixel)

	att, err := ParseDataURI("pixel", uri)
	require.NoError(t, err)
	assert.Equal(t, "image/png", att.MIMEType)
}

func TestParseDataURIInvalid(t *testing.T) {
	cases := []string{
		"text/plain;base64,aGk=",
		"data:text/plain,hi",
		"data:text/plain;base64",
		"data:text/plain;base64,!!!",
	}
	for _, uri := range cases {
		_, err := ParseDataURI("x", uri)
		assert.ErrorIs(t, err, ErrInvalidDataURI, uri)
	}
}
