package readers

import (
	"bytes"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/sitegen/internal/settings"
)

// MarkdownReader parses Markdown documents with YAML frontmatter metadata.
type MarkdownReader struct {
	settings *settings.Settings
	md       goldmark.Markdown
}

// NewMarkdownReader builds the reader. With TYPOGRIFY enabled the
// typographer extension smartens quotes and dashes during rendering.
func NewMarkdownReader(s *settings.Settings) *MarkdownReader {
	opts := []goldmark.Option{
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	}
	if s.Bool("TYPOGRIFY") {
		opts = append(opts, goldmark.WithExtensions(extension.Typographer))
	}
	return &MarkdownReader{settings: s, md: goldmark.New(opts...)}
}

func (r *MarkdownReader) Extensions() []string {
	return []string{"md", "markdown", "mkd", "mdown"}
}

func (r *MarkdownReader) Enabled() bool { return true }

// Read splits frontmatter from the body and renders the body to HTML.
func (r *MarkdownReader) Read(path string) (string, map[string]any, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- paths come from content discovery
	if err != nil {
		return "", nil, err
	}
	fm, body, _, err := splitFrontmatter(data)
	if err != nil {
		return "", nil, err
	}
	meta, err := parseFrontmatter(fm)
	if err != nil {
		return "", nil, err
	}
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return "", nil, err
	}
	return buf.String(), meta, nil
}

// ProcessMetadata passes values through; YAML already yields typed values
// and the registry's field processors handle normalization.
func (r *MarkdownReader) ProcessMetadata(_ string, value any) (any, error) {
	return value, nil
}
