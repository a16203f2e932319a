package content

import (
	"encoding/gob"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/settings"
)

func init() {
	gob.Register(time.Time{})
	gob.Register([]any{})
	gob.Register(map[string]any{})
	gob.Register([]string{})
}

// Snapshot is the serializable form of a fully constructed Content, stored
// by the generator-layer cache. Taxonomy wrappers are flattened to names
// and rebuilt against the current settings on restore.
type Snapshot struct {
	Kind       string
	SourcePath string
	Body       string
	Metadata   map[string]any

	Title    string
	Slug     string
	Lang     string
	Date     time.Time
	Modified time.Time
	Status   string

	CategoryName string
	TagNames     []string
	AuthorNames  []string

	Template       string
	OverrideURL    string
	OverrideSaveAs string
	Summary        string
}

// Snapshot captures this content for caching. Metadata entries that are not
// gob-friendly scalars are dropped; the well-known fields carry them.
func (c *Content) Snapshot() Snapshot {
	snap := Snapshot{
		Kind:           string(c.Kind),
		SourcePath:     c.SourcePath,
		Body:           c.body,
		Metadata:       map[string]any{},
		Title:          c.Title,
		Slug:           c.Slug,
		Lang:           c.Lang,
		Date:           c.Date,
		Modified:       c.Modified,
		Status:         string(c.Status),
		Template:       c.Template,
		OverrideURL:    c.OverrideURL,
		OverrideSaveAs: c.OverrideSaveAs,
		Summary:        c.Summary,
	}
	if c.Category != nil {
		snap.CategoryName = c.Category.Name
	}
	for _, t := range c.Tags {
		snap.TagNames = append(snap.TagNames, t.Name)
	}
	for _, a := range c.Authors {
		snap.AuthorNames = append(snap.AuthorNames, a.Name)
	}
	for k, v := range c.Metadata {
		switch v.(type) {
		case string, bool, int, int64, float64, time.Time, []string:
			snap.Metadata[k] = v
		}
	}
	return snap
}

// FromSnapshot rebuilds a Content against the current settings.
func FromSnapshot(s *settings.Settings, snap Snapshot) *Content {
	c := &Content{
		Kind:           Kind(snap.Kind),
		SourcePath:     snap.SourcePath,
		Metadata:       snap.Metadata,
		Title:          snap.Title,
		Slug:           snap.Slug,
		Lang:           snap.Lang,
		Date:           snap.Date,
		Modified:       snap.Modified,
		Status:         Status(snap.Status),
		Template:       snap.Template,
		OverrideURL:    snap.OverrideURL,
		OverrideSaveAs: snap.OverrideSaveAs,
		Summary:        snap.Summary,
		settings:       s,
		body:           snap.Body,
	}
	if snap.CategoryName != "" {
		c.Category = NewCategory(snap.CategoryName, s)
	}
	for _, name := range snap.TagNames {
		c.Tags = append(c.Tags, NewTag(name, s))
	}
	for _, name := range snap.AuthorNames {
		c.Authors = append(c.Authors, NewAuthor(name, s))
	}
	return c
}
