// Package settings materializes the build configuration: defaults merged
// under user values, legacy keys migrated, paths expanded, and pattern
// tables compiled. The resulting Settings record is immutable for the
// lifetime of one build.
package settings

import (
	"regexp"
	"time"
)

// Map is the raw uppercase-keyed settings mapping as loaded from YAML.
type Map map[string]any

// Family identifies a slug substitution table.
type Family string

const (
	FamilySlug     Family = "slug"
	FamilyTag      Family = "tag"
	FamilyCategory Family = "category"
	FamilyAuthor   Family = "author"
)

// Substitution is one compiled regex replacement applied during slugification.
type Substitution struct {
	Pattern *regexp.Regexp
	Repl    string
}

// PaginationRule binds a minimum page number to URL and save-as templates.
// MinPage -1 matches only the last page.
type PaginationRule struct {
	MinPage int
	URL     string
	SaveAs  string
}

// CachingLayer selects what the content cache stores.
type CachingLayer string

const (
	// LayerReader caches (body, reader metadata) pairs so content objects
	// are reconstructed with the latest settings.
	LayerReader CachingLayer = "reader"
	// LayerGenerator caches fully constructed content snapshots.
	LayerGenerator CachingLayer = "generator"
)

// Settings is the fully materialized configuration record. Constructed once
// at build start by Normalize; treated as immutable thereafter.
type Settings struct {
	raw Map

	// Resolved absolute paths.
	Path       string // content root
	OutputPath string
	ThemePath  string // empty when the bundled simple theme is used
	CachePath  string

	Location *time.Location

	Substitutions   map[Family][]Substitution
	PaginationRules []PaginationRule

	LinkRegex        *regexp.Regexp
	FilenameMetadata *regexp.Regexp
	PathMetadata     *regexp.Regexp

	CachingLayer CachingLayer
}

// Raw returns the underlying uppercase-keyed map. Callers must not mutate it.
func (s *Settings) Raw() Map { return s.raw }

// Get returns the raw value for key.
func (s *Settings) Get(key string) (any, bool) {
	v, ok := s.raw[key]
	return v, ok
}

// Str returns the string value for key, or "" when absent or not a string.
func (s *Settings) Str(key string) string {
	v, ok := s.raw[key]
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// Bool returns the boolean value for key, or false when absent.
func (s *Settings) Bool(key string) bool {
	v, ok := s.raw[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Int returns the integer value for key, or 0 when absent. YAML integers
// decode as int; float64 is accepted for tolerance.
func (s *Settings) Int(key string) int {
	switch v := s.raw[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Strings returns the list value for key. A bare string yields a
// single-element list; absent keys yield nil.
func (s *Settings) Strings(key string) []string {
	switch v := s.raw[key].(type) {
	case []string:
		return v
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// StringMap returns the map value for key with string values coerced.
func (s *Settings) StringMap(key string) map[string]string {
	out := map[string]string{}
	switch v := s.raw[key].(type) {
	case map[string]string:
		return v
	case map[string]any:
		for k, item := range v {
			if str, ok := item.(string); ok {
				out[k] = str
			}
		}
	}
	return out
}

// AnyMap returns the map value for key, or an empty map.
func (s *Settings) AnyMap(key string) map[string]any {
	if v, ok := s.raw[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}

// FeedDomain returns FEED_DOMAIN, defaulting to SITEURL.
func (s *Settings) FeedDomain() string {
	if d := s.Str("FEED_DOMAIN"); d != "" {
		return d
	}
	return s.Str("SITEURL")
}

// PaginatedTemplates returns the template-name -> per-page mapping. A nil
// value means "use DEFAULT_PAGINATION".
func (s *Settings) PaginatedTemplates() map[string]*int {
	out := map[string]*int{}
	for name, v := range s.AnyMap("PAGINATED_TEMPLATES") {
		switch n := v.(type) {
		case int:
			c := n
			out[name] = &c
		case int64:
			c := int(n)
			out[name] = &c
		default:
			out[name] = nil
		}
	}
	return out
}
