// Package feeds emits Atom and RSS syndication documents. The writer talks
// to the Builder interface; the XML implementation lives here because the
// entry model (per-entry categories, content-versus-summary rules) is part
// of the build contract.
package feeds

import (
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/content"
)

// Type selects the serialization format.
type Type string

const (
	TypeAtom Type = "atom"
	TypeRSS  Type = "rss"
)

// Info describes one feed document.
type Info struct {
	Title       string
	SiteLink    string // feed-domain link to the site
	FeedURL     string // externally visible URL of the feed itself
	Description string
	Updated     time.Time
}

// Entry is one feed item.
type Entry struct {
	Title       string // HTML-stripped
	Link        string
	ID          string
	Description string
	Content     string // full body; empty when omitted
	Categories  []string
	Author      string
	Published   time.Time
	Updated     time.Time
}

// Builder serializes a feed to bytes.
type Builder interface {
	Build(info Info, entries []Entry, t Type) ([]byte, error)
}

// FromContent converts a content object into a feed entry. body is the
// link-resolved HTML body; with summaryOnly the RSS description carries the
// summary instead of the full content.
func FromContent(c *content.Content, domain, body, summary string, t Type, summaryOnly bool) Entry {
	link := joinDomain(domain, c.URL())
	e := Entry{
		Title:     content.StripTags(c.Title),
		Link:      link,
		ID:        tagURI(link, c.Date),
		Author:    firstAuthor(c),
		Published: c.Date,
		Updated:   c.Date,
	}
	if !c.Modified.IsZero() {
		e.Updated = c.Modified
	}
	// Categories list the category name first, then tag names.
	if c.Category != nil {
		e.Categories = append(e.Categories, c.Category.Name)
	}
	for _, tag := range c.Tags {
		e.Categories = append(e.Categories, tag.Name)
	}

	switch t {
	case TypeRSS:
		if summaryOnly {
			e.Description = summary
		} else {
			e.Description = body
		}
	default:
		e.Description = summary
		// Atom drops the content element when identical to the summary.
		if body != summary {
			e.Content = body
		}
	}
	return e
}

func firstAuthor(c *content.Content) string {
	if len(c.Authors) > 0 {
		return c.Authors[0].Name
	}
	return ""
}

// joinDomain joins the feed domain and a site-relative URL.
func joinDomain(domain, rel string) string {
	if domain == "" {
		return "/" + strings.TrimPrefix(rel, "/")
	}
	return strings.TrimRight(domain, "/") + "/" + strings.TrimPrefix(rel, "/")
}

// tagURI derives a globally unique id from the entry link and date,
// following the tag URI scheme.
func tagURI(link string, date time.Time) string {
	stripped := link
	for _, scheme := range []string{"https://", "http://"} {
		stripped = strings.TrimPrefix(stripped, scheme)
	}
	stripped = strings.ReplaceAll(stripped, "#", "/")
	host, rest, found := strings.Cut(stripped, "/")
	if !found {
		rest = ""
	}
	return fmt.Sprintf("tag:%s,%s:/%s", host, date.Format("2006-01-02"), rest)
}
