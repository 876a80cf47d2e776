// Package render decides how assistant replies are displayed and turns them
// into HTML or terminal text.
package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// Format is the display treatment of a transcript entry.
type Format string

const (
	// FormatHTML is pre-rendered markup inserted verbatim.
	FormatHTML Format = "html"
	// FormatMarkdown is converted to HTML with highlighted code blocks.
	FormatMarkdown Format = "markdown"
	// FormatText is user-authored plain text, always escaped.
	FormatText Format = "text"
)

// DefaultHighlightStyle is the chroma style used for code blocks.
const DefaultHighlightStyle = "github-dark"

var markupPrefixes = []string{
	"<div", "<img", "<video", "<audio", "<iframe", "<figure", "<table", "<a ",
}

var (
	embeddedMedia = regexp.MustCompile(`(?i)<(img|video|audio|iframe)[\s>]`)
	// Unterminated fences run to the end of the reply.
	codeFence = regexp.MustCompile("(?s)```.*?(?:```|\\z)")
	codeSpan  = regexp.MustCompile("`[^`\n]*`")
)

// Classify reports whether a reply is pre-rendered markup or markdown. Replies
// that open with a card or media element, or embed media outside code, are
// markup.
func Classify(content string) Format {
	trimmed := strings.ToLower(strings.TrimSpace(content))
	for _, prefix := range markupPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return FormatHTML
		}
	}
	prose := codeSpan.ReplaceAllString(codeFence.ReplaceAllString(content, ""), "")
	if embeddedMedia.MatchString(prose) {
		return FormatHTML
	}
	return FormatMarkdown
}

// Resolve honours a format declared by the backend and falls back to Classify.
func Resolve(declared, content string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(declared))) {
	case FormatHTML:
		return FormatHTML
	case FormatMarkdown:
		return FormatMarkdown
	}
	return Classify(content)
}

// Renderer converts reply sources into browser markup.
type Renderer struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
	policy    *bluemonday.Policy
}

// NewRenderer builds a renderer using the named chroma style. Unknown names
// fall back to chroma's default style.
func NewRenderer(styleName string) *Renderer {
	if styleName == "" {
		styleName = DefaultHighlightStyle
	}
	return &Renderer{
		style:     styles.Get(styleName),
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
		policy:    markdownPolicy(),
	}
}

var safeClass = regexp.MustCompile(`^[a-zA-Z0-9\s_-]+$`)

func markdownPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(safeClass).OnElements("span", "pre", "code", "div")
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return policy
}

// Markup renders a reply of the given format. HTML replies come from the
// backend and are passed through untouched.
func (r *Renderer) Markup(format Format, source string) string {
	switch format {
	case FormatHTML:
		return source
	case FormatText:
		return UserMarkup(source, "")
	default:
		return r.Markdown(source)
	}
}

// Markdown converts markdown to sanitised HTML. Fenced code is highlighted
// with CSS classes; see CSS for the matching stylesheet.
func (r *Renderer) Markdown(source string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse([]byte(source))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags:          mdhtml.CommonFlags,
		RenderNodeHook: r.codeBlockHook,
	})
	return string(r.policy.SanitizeBytes(markdown.Render(doc, renderer)))
}

func (r *Renderer) codeBlockHook(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	block, ok := node.(*ast.CodeBlock)
	if !ok || !entering {
		return ast.GoToNext, false
	}
	lang := strings.Fields(string(block.Info))
	name := ""
	if len(lang) > 0 {
		name = lang[0]
	}
	if err := r.highlight(w, name, string(block.Literal)); err != nil {
		fmt.Fprintf(w, "<pre><code>%s</code></pre>\n", html.EscapeString(string(block.Literal)))
	}
	return ast.GoToNext, true
}

func (r *Renderer) highlight(w io.Writer, lang, code string) error {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.style, iterator); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// CSS returns the stylesheet for highlighted code blocks.
func (r *Renderer) CSS() (string, error) {
	var buf bytes.Buffer
	if err := r.formatter.WriteCSS(&buf, r.style); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// UserMarkup renders user input as escaped text with an optional badge for the
// attached file. User text is never interpreted as markdown or markup.
func UserMarkup(text, attachmentName string) string {
	var b strings.Builder
	if attachmentName != "" {
		b.WriteString(`<div class="attachment-badge">📎 `)
		b.WriteString(html.EscapeString(attachmentName))
		b.WriteString("</div>")
	}
	b.WriteString(`<p class="user-text">`)
	b.WriteString(strings.ReplaceAll(html.EscapeString(text), "\n", "<br>"))
	b.WriteString("</p>")
	return b.String()
}
