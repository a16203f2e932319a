// Package content defines the entity model of the build: articles, pages,
// static assets and the taxonomy tokens grouping them. All source paths are
// held in POSIX form relative to the content root.
package content

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/settings"
)

// Kind discriminates the concrete content kinds.
type Kind string

const (
	KindArticle Kind = "article"
	KindPage    Kind = "page"
	KindStatic  Kind = "static"
)

// Status is the publication state of a content object.
type Status string

const (
	StatusPublished Status = "published"
	StatusDraft     Status = "draft"
	StatusHidden    Status = "hidden"
	// StatusSkip marks a reader-signalled skip stub; accessing its body or
	// save-as fails loudly.
	StatusSkip Status = "skip"
)

// maxDate is the sentinel assigned to undated drafts so they sort last.
var maxDate = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// Content is a parsed source document or a pass-through static asset.
// Well-known fields are hoisted out of the metadata map; everything else
// stays in Metadata and is reachable by name for template rendering.
type Content struct {
	Kind       Kind
	SourcePath string // POSIX, relative to the content root
	Metadata   map[string]any

	Title    string
	Slug     string
	Lang     string
	Date     time.Time
	Modified time.Time
	Status   Status

	Category *Category
	Tags     []*Tag
	Authors  []*Author

	// Template overrides the kind's default template for this one object.
	Template       string
	OverrideURL    string
	OverrideSaveAs string

	Summary string

	// Translations holds the sibling content objects of other languages.
	Translations []*Content

	settings *settings.Settings
	body     string

	// Static bookkeeping: once the output location has been observed,
	// relocation via attach is forbidden.
	outputLocationReferenced bool
	relocated                bool
}

// New constructs a Content of the given kind from processed metadata.
// Metadata values are expected in their normalized typed forms (time.Time,
// *Category, []*Tag, []*Author, strings).
func New(s *settings.Settings, kind Kind, sourcePath, body string, metadata map[string]any) *Content {
	c := &Content{
		Kind:       kind,
		SourcePath: posixPath(sourcePath),
		Metadata:   metadata,
		Status:     StatusPublished,
		settings:   s,
		body:       body,
	}

	if v, ok := metadata["title"].(string); ok {
		c.Title = v
	}
	if v, ok := metadata["slug"].(string); ok {
		c.Slug = v
	}
	if v, ok := metadata["lang"].(string); ok {
		c.Lang = v
	}
	if c.Lang == "" {
		c.Lang = s.Str("DEFAULT_LANG")
	}
	if v, ok := metadata["date"].(time.Time); ok {
		c.Date = v
	}
	if v, ok := metadata["modified"].(time.Time); ok {
		c.Modified = v
	}
	if v, ok := metadata["status"].(string); ok && v != "" {
		c.Status = Status(v)
	}
	if v, ok := metadata["category"].(*Category); ok {
		c.Category = v
	}
	if v, ok := metadata["tags"].([]*Tag); ok {
		c.Tags = v
	}
	if v, ok := metadata["authors"].([]*Author); ok {
		c.Authors = v
	} else if v, ok := metadata["author"].(*Author); ok {
		c.Authors = []*Author{v}
	}
	if v, ok := metadata["template"].(string); ok {
		c.Template = v
	}
	if v, ok := metadata["url"].(string); ok {
		c.OverrideURL = v
	}
	if v, ok := metadata["save_as"].(string); ok {
		c.OverrideSaveAs = v
	}
	if v, ok := metadata["summary"].(string); ok {
		c.Summary = v
	}

	if c.Slug == "" {
		base := c.Title
		if base == "" {
			name := path.Base(c.SourcePath)
			base = strings.TrimSuffix(name, path.Ext(name))
		}
		c.Slug = SlugifyWith(s, settings.FamilySlug, base)
	}

	if kind == KindArticle {
		if len(c.Authors) == 0 {
			if def := s.Str("AUTHOR"); def != "" {
				c.Authors = []*Author{NewAuthor(def, s)}
			}
		}
		if c.Category == nil {
			if def := s.Str("DEFAULT_CATEGORY"); def != "" {
				c.Category = NewCategory(def, s)
			}
		}
		if !c.Date.IsZero() && c.Date.After(time.Now()) && !s.Bool("WITH_FUTURE_DATES") {
			c.Status = StatusDraft
		}
		if c.Date.IsZero() && c.Status == StatusDraft {
			c.Date = maxDate
		}
	}
	return c
}

// NewSkipStub builds the sentinel for a reader-signalled skip.
func NewSkipStub(s *settings.Settings, kind Kind, sourcePath string) *Content {
	return &Content{
		Kind:       kind,
		SourcePath: posixPath(sourcePath),
		Metadata:   map[string]any{},
		Status:     StatusSkip,
		settings:   s,
	}
}

// IsSkip reports whether this content is a skip stub.
func (c *Content) IsSkip() bool { return c.Status == StatusSkip }

// Settings returns the build settings this content was constructed with.
func (c *Content) Settings() *settings.Settings { return c.settings }

// Body returns the HTML body. Accessing the body of a skip stub panics.
func (c *Content) Body() string {
	if c.IsSkip() {
		panic(errors.InternalError("body access on skipped content").
			WithContext("source", c.SourcePath).Build())
	}
	return c.body
}

// SetBody replaces the HTML body (used by the second resolver pass).
func (c *Content) SetBody(body string) { c.body = body }

// Dir returns the POSIX directory of the source path, "" for root.
func (c *Content) Dir() string {
	d := path.Dir(c.SourcePath)
	if d == "." {
		return ""
	}
	return d
}

// InDefaultLang reports whether this content is in the site default language.
func (c *Content) InDefaultLang() bool {
	return c.Lang == c.settings.Str("DEFAULT_LANG")
}

// Validate checks the kind's mandatory-property contract and that the
// expanded save-as stays within the output path.
func (c *Content) Validate() error {
	switch c.Kind {
	case KindArticle:
		if c.Title == "" {
			return errors.ValidationError("article is missing a title").
				WithContext("source", c.SourcePath).Build()
		}
		if c.Date.IsZero() {
			return errors.ValidationError("article is missing a date").
				WithContext("source", c.SourcePath).Build()
		}
		if c.Category == nil {
			return errors.ValidationError("article is missing a category").
				WithContext("source", c.SourcePath).Build()
		}
	case KindPage:
		if c.Title == "" {
			return errors.ValidationError("page is missing a title").
				WithContext("source", c.SourcePath).Build()
		}
	}
	switch c.Status {
	case StatusPublished, StatusDraft, StatusHidden:
	default:
		return errors.ValidationError("disallowed status").
			WithContext("source", c.SourcePath).WithContext("status", string(c.Status)).Build()
	}
	saveAs, err := c.expandSaveAs()
	if err != nil {
		return err
	}
	if !withinOutput(saveAs) {
		return errors.ValidationError("save_as escapes the output path").
			WithContext("source", c.SourcePath).WithContext("save_as", saveAs).Build()
	}
	return nil
}

// withinOutput reports whether the output-relative path rel stays inside
// the output directory once cleaned.
func withinOutput(rel string) bool {
	clean := path.Clean("/" + rel)
	return !strings.HasPrefix(clean, "/..") && clean != "/.."
}

// templateKey selects the URL or save-as settings key for this content by
// (kind, draft-ness, default-language-ness).
func (c *Content) templateKey(saveAs bool) string {
	var key string
	switch {
	case c.Kind == KindStatic:
		key = "STATIC"
	case c.Kind == KindPage && c.Status == StatusDraft:
		key = "DRAFT_PAGE"
	case c.Kind == KindPage:
		key = "PAGE"
	case c.Status == StatusDraft:
		key = "DRAFT"
	default:
		key = "ARTICLE"
	}
	if c.Kind != KindStatic && !c.InDefaultLang() {
		key += "_LANG"
	}
	if saveAs {
		return key + "_SAVE_AS"
	}
	return key + "_URL"
}

func (c *Content) placeholder(name string) (any, bool) {
	switch name {
	case "slug":
		return c.Slug, true
	case "lang":
		return c.Lang, true
	case "date":
		return c.Date, true
	case "category":
		if c.Category != nil {
			return c.Category.Slug(), true
		}
		return "", true
	case "author":
		if len(c.Authors) > 0 {
			return c.Authors[0].Slug(), true
		}
		return "", true
	case "path":
		return c.SourcePath, true
	case "name":
		base := path.Base(c.SourcePath)
		return strings.TrimSuffix(base, path.Ext(base)), true
	case "ext":
		return path.Ext(c.SourcePath), true
	}
	if v, ok := c.Metadata[name]; ok {
		return v, true
	}
	return nil, false
}

func (c *Content) expandURL() (string, error) {
	if c.OverrideURL != "" {
		return c.OverrideURL, nil
	}
	return ExpandTemplate(c.settings.Str(c.templateKey(false)), c.placeholder)
}

func (c *Content) expandSaveAs() (string, error) {
	if c.IsSkip() {
		panic(errors.InternalError("save_as access on skipped content").
			WithContext("source", c.SourcePath).Build())
	}
	if c.OverrideSaveAs != "" {
		return c.OverrideSaveAs, nil
	}
	return ExpandTemplate(c.settings.Str(c.templateKey(true)), c.placeholder)
}

// URL returns the site-relative URL. Observing a static asset's URL pins
// its output location against later relocation.
func (c *Content) URL() string {
	u, err := c.expandURL()
	if err != nil {
		return ""
	}
	if c.Kind == KindStatic {
		c.outputLocationReferenced = true
	}
	return u
}

// SaveAs returns the output-relative file path. Accessing the save-as of a
// skip stub panics; observing a static asset's save-as pins its location.
func (c *Content) SaveAs() string {
	sa, err := c.expandSaveAs()
	if err != nil {
		return ""
	}
	if c.Kind == KindStatic {
		c.outputLocationReferenced = true
	}
	return sa
}

// Relocated reports whether this static asset was moved by an attach.
func (c *Content) Relocated() bool { return c.relocated }

// AttachTo relocates this static asset to sit alongside the referencing
// document's output. The first attach wins; once the output location has
// been observed or a user override exists, relocation is refused.
func (c *Content) AttachTo(doc *Content) error {
	if c.Kind != KindStatic {
		return errors.InternalError("attach target is not a static asset").
			WithContext("source", c.SourcePath).Build()
	}
	if c.relocated {
		// First writer already decided the location; later attaches are
		// silently suppressed.
		return nil
	}
	if c.outputLocationReferenced || c.OverrideSaveAs != "" || c.OverrideURL != "" {
		return errors.LinkError("static asset cannot be relocated").
			WithContext("source", c.SourcePath).WithContext("document", doc.SourcePath).Build()
	}

	tail, err := relativeTail(doc.Dir(), c.SourcePath)
	if err != nil || strings.HasPrefix(tail, "..") {
		tail = path.Base(c.SourcePath)
	}
	docSaveAs, err := doc.expandSaveAs()
	if err != nil {
		return err
	}
	newSaveAs := path.Join(path.Dir(docSaveAs), tail)
	docURL, err := doc.expandURL()
	if err != nil {
		return err
	}
	newURL := path.Join(path.Dir(docURL), tail)

	c.OverrideSaveAs = newSaveAs
	c.OverrideURL = newURL
	c.relocated = true
	return nil
}

// relativeTail computes target relative to dir in POSIX form.
func relativeTail(dir, target string) (string, error) {
	rel, err := filepath.Rel(filepath.FromSlash(dir), filepath.FromSlash(target))
	if err != nil {
		return "", err
	}
	return posixPath(rel), nil
}

// AttrString resolves a field by name for translation grouping: well-known
// fields first, then the metadata map.
func (c *Content) AttrString(field string) string {
	switch field {
	case "slug":
		return c.Slug
	case "title":
		return c.Title
	case "lang":
		return c.Lang
	case "source_path":
		return c.SourcePath
	}
	if v, ok := c.Metadata[field]; ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// MarksTranslation reports whether the metadata explicitly flags this
// content as a translation (translation: true).
func (c *Content) MarksTranslation() bool {
	switch v := c.Metadata["translation"].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}
