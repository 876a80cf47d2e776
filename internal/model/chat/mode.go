package chat

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ModeChat is the plain conversation mode every client starts in.
const ModeChat = "chat"

const defaultCaption = "Thinking..."

//go:embed tools.yaml
var defaultCatalogYAML []byte

// Tool describes one selectable mode of the tools palette.
type Tool struct {
	Mode            string `yaml:"mode" json:"mode"`
	Title           string `yaml:"title" json:"title"`
	Caption         string `yaml:"caption" json:"caption"`
	Hint            string `yaml:"hint,omitempty" json:"hint,omitempty"`
	WantsAttachment bool   `yaml:"wants_attachment,omitempty" json:"wantsAttachment,omitempty"`
}

// Catalog maps mode tags to their captions and input hints. Modes are opaque
// to the client, so lookups of unknown tags fall back to defaults.
type Catalog struct {
	DefaultCaption string `yaml:"default_caption"`
	Modes          []Tool `yaml:"modes"`

	index map[string]int
}

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() *Catalog {
	catalog, err := ParseCatalog(bytes.NewReader(defaultCatalogYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded tool catalog: %v", err))
	}
	return catalog
}

// LoadCatalog reads a catalog file. An empty path yields the default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tool catalog: %w", err)
	}
	defer f.Close()
	return ParseCatalog(f)
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.NewDecoder(r).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("decode tool catalog: %w", err)
	}
	if catalog.DefaultCaption == "" {
		catalog.DefaultCaption = defaultCaption
	}

	catalog.index = make(map[string]int, len(catalog.Modes))
	for i, tool := range catalog.Modes {
		if tool.Mode == "" {
			return nil, fmt.Errorf("tool catalog entry %d has no mode", i)
		}
		if _, dup := catalog.index[tool.Mode]; dup {
			return nil, fmt.Errorf("tool catalog: duplicate mode %q", tool.Mode)
		}
		catalog.index[tool.Mode] = i
	}
	return &catalog, nil
}

// Lookup returns the tool registered for mode.
func (c *Catalog) Lookup(mode string) (Tool, bool) {
	i, ok := c.index[mode]
	if !ok {
		return Tool{}, false
	}
	return c.Modes[i], true
}

// Caption is the placeholder text shown while a turn in mode is awaited.
func (c *Catalog) Caption(mode string) string {
	if tool, ok := c.Lookup(mode); ok && tool.Caption != "" {
		return tool.Caption
	}
	return c.DefaultCaption
}

// Hint is the input placeholder shown once mode is selected.
func (c *Catalog) Hint(mode string) string {
	if tool, ok := c.Lookup(mode); ok && tool.Hint != "" {
		return tool.Hint
	}
	return "Using Tool: " + mode
}

// Tools lists the catalog in declaration order.
func (c *Catalog) Tools() []Tool {
	return append([]Tool(nil), c.Modes...)
}

// ToolTitle formats a mode tag for activation toasts: "qr_generator" -> "QR GENERATOR".
func ToolTitle(mode string) string {
	return strings.ToUpper(strings.ReplaceAll(mode, "_", " "))
}
