package content

import (
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/settings"
)

// URLWrapper is a taxonomy token: a named entity whose URL and save-as are
// driven by per-family templates from settings. Equality is by normalized
// name within the same family; ordering is lexicographic by name.
type URLWrapper struct {
	Name string

	family   settings.Family
	urlKey   string
	saveKey  string
	settings *settings.Settings
	slug     string
}

// Tag is an article tag.
type Tag struct{ URLWrapper }

// Category is an article category.
type Category struct{ URLWrapper }

// Author is a content author.
type Author struct{ URLWrapper }

func NewTag(name string, s *settings.Settings) *Tag {
	return &Tag{URLWrapper{Name: name, family: settings.FamilyTag,
		urlKey: "TAG_URL", saveKey: "TAG_SAVE_AS", settings: s}}
}

func NewCategory(name string, s *settings.Settings) *Category {
	return &Category{URLWrapper{Name: name, family: settings.FamilyCategory,
		urlKey: "CATEGORY_URL", saveKey: "CATEGORY_SAVE_AS", settings: s}}
}

func NewAuthor(name string, s *settings.Settings) *Author {
	return &Author{URLWrapper{Name: name, family: settings.FamilyAuthor,
		urlKey: "AUTHOR_URL", saveKey: "AUTHOR_SAVE_AS", settings: s}}
}

// Slug returns the derived slug, computed once on first access.
func (w *URLWrapper) Slug() string {
	if w.slug == "" {
		w.slug = SlugifyWith(w.settings, w.family, w.Name)
	}
	return w.slug
}

// Key is the normalized name used for equality within a family.
func (w *URLWrapper) Key() string { return strings.ToLower(strings.TrimSpace(w.Name)) }

// Less orders wrappers lexicographically by name.
func (w *URLWrapper) Less(other *URLWrapper) bool { return w.Name < other.Name }

func (w *URLWrapper) String() string { return w.Name }

func (w *URLWrapper) expand(key string) string {
	out, err := ExpandTemplate(w.settings.Str(key), func(name string) (any, bool) {
		switch name {
		case "slug":
			return w.Slug(), true
		case "name":
			return w.Name, true
		case "lang":
			return w.settings.Str("DEFAULT_LANG"), true
		default:
			return nil, false
		}
	})
	if err != nil {
		// Taxonomy templates are validated at settings time.
		return ""
	}
	return out
}

// URL returns the site-relative URL for this token's listing page.
func (w *URLWrapper) URL() string { return w.expand(w.urlKey) }

// SaveAs returns the output-relative file path for this token's listing page.
func (w *URLWrapper) SaveAs() string { return w.expand(w.saveKey) }

// FeedURL expands a feed-name template (e.g. CATEGORY_FEED_ATOM) for this token.
func (w *URLWrapper) FeedURL(key string) string {
	tmpl := w.settings.Str(key)
	if tmpl == "" {
		return ""
	}
	out, err := ExpandTemplate(tmpl, func(name string) (any, bool) {
		switch name {
		case "slug":
			return w.Slug(), true
		case "name":
			return w.Name, true
		default:
			return nil, false
		}
	})
	if err != nil {
		return ""
	}
	return out
}
