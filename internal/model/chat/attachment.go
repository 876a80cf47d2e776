package chat

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// MaxAttachmentSize bounds the bytes inlined into a single chat request.
const MaxAttachmentSize = 20 << 20

var (
	ErrEmptyAttachment    = errors.New("attachment is empty")
	ErrAttachmentTooLarge = errors.New("attachment exceeds size limit")
	ErrInvalidDataURI     = errors.New("invalid data uri")
)

const fallbackMIMEType = "application/octet-stream"

// Attachment is the pending file sent along with the next message.
type Attachment struct {
	Name     string `json:"name"`
	MIMEType string `json:"type"`
	DataURI  string `json:"-"`
	Size     int    `json:"size"`
}

// NewAttachment inlines data as a base64 data URI. The MIME type is sniffed
// from the content first and from the file extension second.
func NewAttachment(name string, data []byte) (*Attachment, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAttachment
	}
	if len(data) > MaxAttachmentSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrAttachmentTooLarge, len(data))
	}

	mimeType := DetectMIMEType(name, data)
	return &Attachment{
		Name:     filepath.Base(name),
		MIMEType: mimeType,
		DataURI:  "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		Size:     len(data),
	}, nil
}

// LoadAttachment reads path from disk into an Attachment.
func LoadAttachment(path string) (*Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat attachment: %w", err)
	}
	if info.Size() > MaxAttachmentSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrAttachmentTooLarge, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return NewAttachment(path, data)
}

// ParseDataURI accepts the "data:<mime>;base64,<payload>" form produced by a
// browser FileReader and keeps the URI as-is.
func ParseDataURI(name, uri string) (*Attachment, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, ErrInvalidDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrInvalidDataURI
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyAttachment
	}
	if len(data) > MaxAttachmentSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrAttachmentTooLarge, len(data))
	}

	if mimeType == "" {
		mimeType = DetectMIMEType(name, data)
	}
	return &Attachment{
		Name:     filepath.Base(name),
		MIMEType: mimeType,
		DataURI:  uri,
		Size:     len(data),
	}, nil
}

// DetectMIMEType guesses the MIME type of a file.
func DetectMIMEType(name string, data []byte) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		mediaType, _, err := mime.ParseMediaType(byExt)
		if err == nil {
			return mediaType
		}
	}
	if sniffed := http.DetectContentType(data); sniffed != "" {
		mediaType, _, err := mime.ParseMediaType(sniffed)
		if err == nil && mediaType != fallbackMIMEType {
			return mediaType
		}
	}
	return fallbackMIMEType
}
