package feeds

import (
	"encoding/xml"
	"time"
)

// XMLBuilder serializes feeds with encoding/xml.
type XMLBuilder struct{}

// NewXMLBuilder returns the default feed builder.
func NewXMLBuilder() *XMLBuilder { return &XMLBuilder{} }

// Build implements Builder.
func (b *XMLBuilder) Build(info Info, entries []Entry, t Type) ([]byte, error) {
	var doc any
	switch t {
	case TypeRSS:
		doc = buildRSS(info, entries)
	default:
		doc = buildAtom(info, entries)
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// Atom 1.0

type atomFeed struct {
	XMLName xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	Title   string      `xml:"title"`
	ID      string      `xml:"id"`
	Updated string      `xml:"updated"`
	Links   []atomLink  `xml:"link"`
	Entries []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
}

type atomEntry struct {
	Title      string         `xml:"title"`
	Link       atomLink       `xml:"link"`
	ID         string         `xml:"id"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
	Author     *atomAuthor    `xml:"author,omitempty"`
	Summary    *atomText      `xml:"summary,omitempty"`
	Content    *atomText      `xml:"content,omitempty"`
	Categories []atomCategory `xml:"category"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomText struct {
	Type string `xml:"type,attr"`
	Body string `xml:",chardata"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

func buildAtom(info Info, entries []Entry) atomFeed {
	feed := atomFeed{
		Title:   info.Title,
		ID:      info.FeedURL,
		Updated: atomTime(info.Updated),
		Links: []atomLink{
			{Href: info.SiteLink, Rel: "alternate"},
			{Href: info.FeedURL, Rel: "self"},
		},
	}
	for _, e := range entries {
		entry := atomEntry{
			Title:     e.Title,
			Link:      atomLink{Href: e.Link, Rel: "alternate"},
			ID:        e.ID,
			Published: atomTime(e.Published),
			Updated:   atomTime(e.Updated),
		}
		if e.Author != "" {
			entry.Author = &atomAuthor{Name: e.Author}
		}
		if e.Description != "" {
			entry.Summary = &atomText{Type: "html", Body: e.Description}
		}
		if e.Content != "" {
			entry.Content = &atomText{Type: "html", Body: e.Content}
		}
		for _, cat := range e.Categories {
			entry.Categories = append(entry.Categories, atomCategory{Term: cat})
		}
		feed.Entries = append(feed.Entries, entry)
	}
	return feed
}

// RSS 2.0

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	NSDc    string     `xml:"xmlns:dc,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        rssGUID  `xml:"guid"`
	PubDate     string   `xml:"pubDate"`
	Creator     string   `xml:"dc:creator,omitempty"`
	Description string   `xml:"description,omitempty"`
	Categories  []string `xml:"category"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

func buildRSS(info Info, entries []Entry) rssFeed {
	ch := rssChannel{
		Title:         info.Title,
		Link:          info.SiteLink,
		Description:   info.Description,
		LastBuildDate: rssTime(info.Updated),
	}
	for _, e := range entries {
		ch.Items = append(ch.Items, rssItem{
			Title:       e.Title,
			Link:        e.Link,
			GUID:        rssGUID{IsPermaLink: "false", Value: e.ID},
			PubDate:     rssTime(e.Published),
			Creator:     e.Author,
			Description: e.Description,
			Categories:  e.Categories,
		})
	}
	return rssFeed{
		Version: "2.0",
		NSDc:    "http://purl.org/dc/elements/1.1/",
		Channel: ch,
	}
}

func atomTime(t time.Time) string { return t.Format(time.RFC3339) }
func rssTime(t time.Time) string  { return t.Format(time.RFC1123Z) }
