package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogCaptions(t *testing.T) {
	catalog := DefaultCatalog()

	cases := []struct {
		mode string
		want string
	}{
		{mode: "chat", want: "Thinking..."},
		{mode: "image_gen", want: "🎨 Painting..."},
		{mode: "research", want: "🔍 Researching..."},
		{mode: "converter", want: "📂 Converting file..."},
		{mode: "something_new", want: "Thinking..."},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, catalog.Caption(tc.mode), tc.mode)
	}
}

func TestDefaultCatalogHints(t *testing.T) {
	catalog := DefaultCatalog()

	assert.Equal(t, "🔗 Paste link or text to generate QR code...", catalog.Hint("qr_generator"))
	assert.Equal(t, "Using Tool: fitness_coach", catalog.Hint("fitness_coach"))
	assert.Equal(t, "Using Tool: mystery", catalog.Hint("mystery"))

	tool, ok := catalog.Lookup("converter")
	require.True(t, ok)
	assert.True(t, tool.WantsAttachment)
}

func TestParseCatalogRejectsDuplicates(t *testing.T) {
	_, err := ParseCatalog(strings.NewReader("modes:\n  - mode: chat\n  - mode: chat\n"))
	assert.Error(t, err)
}

func TestParseCatalogDefaultsCaption(t *testing.T) {
	catalog, err := ParseCatalog(strings.NewReader("modes:\n  - mode: chat\n"))
	require.NoError(t, err)
	assert.Equal(t, "Thinking...", catalog.Caption("chat"))
}

func TestToolTitle(t *testing.T) {
	assert.Equal(t, "QR GENERATOR", ToolTitle("qr_generator"))
	assert.Equal(t, "CHAT", ToolTitle("chat"))
}
