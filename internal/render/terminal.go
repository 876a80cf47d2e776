package render

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
)

// DefaultWordWrap is the terminal width used when none is known yet.
const DefaultWordWrap = 80

var (
	mediaSource = regexp.MustCompile(`(?i)<(img|video|audio|iframe|source)\b[^>]*?\ssrc\s*=\s*["']([^"']+)["']`)
	linkTarget  = regexp.MustCompile(`(?i)<a\b[^>]*?\shref\s*=\s*["']([^"']+)["']`)
	blockBreak  = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|li|h[1-6]|tr|figure)>`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
)

// Terminal renders transcript entries for a character terminal.
type Terminal struct {
	markdown *glamour.TermRenderer
	strip    *bluemonday.Policy
}

// NewTerminal builds a terminal renderer. style is a glamour style name or
// "auto" to follow the terminal background.
func NewTerminal(style string, width int) (*Terminal, error) {
	if width <= 0 {
		width = DefaultWordWrap
	}
	styleOpt := glamour.WithAutoStyle()
	if style != "" && style != "auto" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return &Terminal{markdown: renderer, strip: bluemonday.StrictPolicy()}, nil
}

// Render returns the terminal form of source. Markdown goes through glamour,
// markup is reduced to its text followed by the media it references.
func (t *Terminal) Render(format Format, source string) string {
	switch format {
	case FormatHTML:
		return t.markupText(source)
	case FormatText:
		return source
	default:
		out, err := t.markdown.Render(source)
		if err != nil {
			return source
		}
		return strings.TrimRight(out, "\n")
	}
}

func (t *Terminal) markupText(source string) string {
	text := blockBreak.ReplaceAllString(source, "$0\n")
	text = html.UnescapeString(t.strip.Sanitize(text))
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.TrimSpace(blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))

	links := MediaLinks(source)
	if len(links) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	for _, link := range links {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("🔗 ")
		b.WriteString(link)
	}
	return b.String()
}

// MediaLinks lists the media sources and link targets referenced by markup,
// in document order, without duplicates.
func MediaLinks(source string) []string {
	type hit struct {
		at  int
		url string
	}
	var hits []hit
	for _, m := range mediaSource.FindAllStringSubmatchIndex(source, -1) {
		hits = append(hits, hit{at: m[0], url: source[m[4]:m[5]]})
	}
	for _, m := range linkTarget.FindAllStringSubmatchIndex(source, -1) {
		hits = append(hits, hit{at: m[0], url: source[m[2]:m[3]]})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].at < hits[j].at })

	seen := make(map[string]bool, len(hits))
	links := make([]string, 0, len(hits))
	for _, h := range hits {
		u := html.UnescapeString(h.url)
		if seen[u] || strings.HasPrefix(u, "data:") {
			continue
		}
		seen[u] = true
		links = append(links, u)
	}
	return links
}
