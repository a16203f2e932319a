package readers

import (
	"os"
	"strings"

	xhtml "golang.org/x/net/html"

	"git.home.luguber.info/inful/sitegen/internal/settings"
)

// HTMLReader accepts pre-rendered HTML documents. Metadata comes from
// <meta name="..." content="..."> tags and the <title> element; the body is
// the inner HTML of <body> (or the whole document when no body tag exists).
type HTMLReader struct {
	settings *settings.Settings
}

func NewHTMLReader(s *settings.Settings) *HTMLReader {
	return &HTMLReader{settings: s}
}

func (r *HTMLReader) Extensions() []string { return []string{"html", "htm"} }

func (r *HTMLReader) Enabled() bool { return true }

func (r *HTMLReader) Read(path string) (string, map[string]any, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- paths come from content discovery
	if err != nil {
		return "", nil, err
	}
	doc, err := xhtml.Parse(strings.NewReader(string(data)))
	if err != nil {
		return "", nil, err
	}

	meta := map[string]any{}
	var body string
	var walk func(n *xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil {
					meta["title"] = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				var name, value string
				for _, attr := range n.Attr {
					switch attr.Key {
					case "name":
						name = strings.ToLower(attr.Val)
					case "content":
						value = attr.Val
					}
				}
				if name != "" {
					meta[name] = value
				}
			case "body":
				body = innerHTML(n)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if body == "" {
		body = string(data)
	}
	return body, meta, nil
}

// ProcessMetadata passes values through; meta tag content values are
// already flat strings.
func (r *HTMLReader) ProcessMetadata(_ string, value any) (any, error) {
	return value, nil
}

func innerHTML(n *xhtml.Node) string {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		_ = xhtml.Render(&b, child)
	}
	return strings.TrimSpace(b.String())
}
