package speech

import (
	"mime"
	"strings"

	"github.com/h2non/filetype"
)

// Clip is synthesised audio returned by /api/speak.
type Clip struct {
	Audio       []byte
	ContentType string
}

// Extension returns the file extension of the clip, including the dot.
// The bytes are sniffed first because the backend labels every stream
// audio/mp3 regardless of the encoder it used.
func (c Clip) Extension() string {
	if kind, err := filetype.Match(c.Audio); err == nil && kind != filetype.Unknown {
		return "." + kind.Extension
	}
	if mediaType, _, err := mime.ParseMediaType(c.ContentType); err == nil {
		switch mediaType {
		case "audio/mp3", "audio/mpeg":
			return ".mp3"
		}
		if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
			return exts[0]
		}
		if sub, ok := strings.CutPrefix(mediaType, "audio/"); ok && sub != "" {
			return "." + sub
		}
	}
	return ".mp3"
}

// Empty reports whether the clip carries no audio.
func (c Clip) Empty() bool {
	return len(c.Audio) == 0
}
