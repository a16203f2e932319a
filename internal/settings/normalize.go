package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/errors"
)

// legacyListKeys maps deprecated single-directory options to their modern
// list-valued replacements.
var legacyListKeys = map[string]string{
	"ARTICLE_DIR": "ARTICLE_PATHS",
	"PAGE_DIR":    "PAGE_PATHS",
	"STATIC_DIR":  "STATIC_PATHS",
}

// legacySubstKeys maps deprecated literal substitution lists to their
// regex-substitution replacements.
var legacySubstKeys = map[string]string{
	"SLUG_SUBSTITUTIONS":     "SLUG_REGEX_SUBSTITUTIONS",
	"TAG_SUBSTITUTIONS":      "TAG_REGEX_SUBSTITUTIONS",
	"CATEGORY_SUBSTITUTIONS": "CATEGORY_REGEX_SUBSTITUTIONS",
	"AUTHOR_SUBSTITUTIONS":   "AUTHOR_REGEX_SUBSTITUTIONS",
}

// rssFeedKeys are the settings that, when any is configured, require
// RSS_FEED_SUMMARY_ONLY to be set explicitly.
var rssFeedKeys = []string{
	"FEED_RSS", "FEED_ALL_RSS", "CATEGORY_FEED_RSS",
	"TAG_FEED_RSS", "AUTHOR_FEED_RSS", "TRANSLATION_FEED_RSS",
}

// taxonomyTemplateKeys lists URL/save-as templates whose placeholders are
// restricted to a known set (content templates may reference arbitrary
// metadata and are checked at expansion time).
var taxonomyTemplateKeys = []string{
	"TAG_URL", "TAG_SAVE_AS", "CATEGORY_URL", "CATEGORY_SAVE_AS",
	"AUTHOR_URL", "AUTHOR_SAVE_AS",
	"YEAR_ARCHIVE_URL", "YEAR_ARCHIVE_SAVE_AS",
	"MONTH_ARCHIVE_URL", "MONTH_ARCHIVE_SAVE_AS",
	"DAY_ARCHIVE_URL", "DAY_ARCHIVE_SAVE_AS",
}

var knownTaxonomyPlaceholders = map[string]bool{
	"slug": true, "name": true, "lang": true, "date": true,
}

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)(?::[^}]*)?\}`)

// Normalize merges user values over the defaults, applies deprecation
// migrations, resolves paths relative to baseDir, compiles pattern tables
// and validates the result. It returns the immutable Settings record plus
// normalization warnings.
func Normalize(user Map, baseDir string) (*Settings, []string, error) {
	merged := DefaultSettings()
	var warnings []string

	cleaned := Map{}
	for key, value := range user {
		if key != strings.ToUpper(key) {
			warnings = append(warnings, fmt.Sprintf("ignoring non-uppercase setting %q", key))
			continue
		}
		cleaned[key] = value
	}

	// Deprecation migrations run on the user values alone so a legacy key
	// never collides with the compiled-in default of its replacement.
	if err := migrateLegacyKeys(cleaned, &warnings); err != nil {
		return nil, warnings, err
	}
	for key, value := range cleaned {
		merged[key] = value
	}
	normalizeScalars(merged)
	addMutualExcludes(merged)

	s := &Settings{raw: merged}

	if err := resolvePaths(s, baseDir); err != nil {
		return nil, warnings, err
	}
	if err := loadTimezone(s); err != nil {
		return nil, warnings, err
	}
	if err := compileSubstitutions(s); err != nil {
		return nil, warnings, err
	}
	if err := compilePaginationRules(s); err != nil {
		return nil, warnings, err
	}
	if err := compilePatterns(s); err != nil {
		return nil, warnings, err
	}
	if err := validate(s); err != nil {
		return nil, warnings, err
	}
	return s, warnings, nil
}

func migrateLegacyKeys(m Map, warnings *[]string) error {
	for legacy, modern := range legacyListKeys {
		v, ok := m[legacy]
		if !ok {
			continue
		}
		if _, both := m[modern]; both {
			return errors.ConfigError("conflicting settings").
				WithContext("legacy", legacy).WithContext("modern", modern).Build()
		}
		dir, _ := v.(string)
		m[modern] = []string{dir}
		delete(m, legacy)
		*warnings = append(*warnings, fmt.Sprintf("%s is deprecated, use %s", legacy, modern))
	}

	for legacy, modern := range legacySubstKeys {
		v, ok := m[legacy]
		if !ok {
			continue
		}
		if _, both := m[modern]; both {
			return errors.ConfigError("conflicting settings").
				WithContext("legacy", legacy).WithContext("modern", modern).Build()
		}
		pairs, _ := v.([]any)
		converted := make([]any, 0, len(pairs)+2)
		for _, p := range pairs {
			pair, _ := p.([]any)
			if len(pair) != 2 {
				return errors.ConfigError("substitution entries must be [from, to] pairs").
					WithContext("setting", legacy).Build()
			}
			from, _ := pair[0].(string)
			to, _ := pair[1].(string)
			converted = append(converted, []any{regexp.QuoteMeta(from), to})
		}
		// Trailing whitespace-trim rules close out every migrated table.
		converted = append(converted, []any{`\A\s+`, ""}, []any{`\s+\z`, ""})
		m[modern] = converted
		delete(m, legacy)
		*warnings = append(*warnings, fmt.Sprintf("%s is deprecated, use %s", legacy, modern))
	}
	return nil
}

func normalizeScalars(m Map) {
	if url, ok := m["SITEURL"].(string); ok {
		m["SITEURL"] = strings.TrimRight(url, "/")
	}
	if loc, ok := m["LOCALE"].(string); ok {
		m["LOCALE"] = []string{loc}
	}
}

// addMutualExcludes keeps the article and page scans disjoint: each
// kind's source directories are appended to the other kind's excludes
// unless already listed.
func addMutualExcludes(m Map) {
	for _, kinds := range [][2]string{{"ARTICLE", "PAGE"}, {"PAGE", "ARTICLE"}} {
		excludeKey := kinds[0] + "_EXCLUDES"
		excludes := stringList(m[excludeKey])
		seen := map[string]bool{}
		for _, e := range excludes {
			seen[e] = true
		}
		for _, p := range stringList(m[kinds[1]+"_PATHS"]) {
			if !seen[p] {
				excludes = append(excludes, p)
				seen[p] = true
			}
		}
		m[excludeKey] = excludes
	}
}

// stringList coerces a raw setting value that may come from the compiled
// defaults ([]string) or from YAML ([]any) into a string slice.
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, e := range list {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

func resolvePaths(s *Settings, baseDir string) error {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Clean(filepath.Join(baseDir, p))
	}

	s.Path = abs(s.Str("PATH"))
	info, err := os.Stat(s.Path)
	if err != nil || !info.IsDir() {
		return errors.ConfigError("content path is missing or unreadable").
			WithContext("path", s.Path).Build()
	}
	s.OutputPath = abs(s.Str("OUTPUT_PATH"))
	s.CachePath = abs(s.Str("CACHE_PATH"))

	theme := s.Str("THEME")
	if theme == "simple" || theme == "" {
		s.ThemePath = "" // bundled theme
		return nil
	}
	themePath := abs(theme)
	if info, err := os.Stat(themePath); err != nil || !info.IsDir() {
		return errors.ConfigError("theme could not be located").
			WithContext("theme", theme).Build()
	}
	s.ThemePath = themePath
	return nil
}

func loadTimezone(s *Settings) error {
	name := s.Str("TIMEZONE")
	loc, err := time.LoadLocation(name)
	if err != nil {
		return errors.ConfigError("unknown timezone").WithContext("timezone", name).Build()
	}
	s.Location = loc
	return nil
}

func compileSubstitutions(s *Settings) error {
	s.Substitutions = map[Family][]Substitution{}
	slugTable, err := compileSubstTable(s.raw["SLUG_REGEX_SUBSTITUTIONS"], "SLUG_REGEX_SUBSTITUTIONS")
	if err != nil {
		return err
	}
	s.Substitutions[FamilySlug] = slugTable

	for family, key := range map[Family]string{
		FamilyTag:      "TAG_REGEX_SUBSTITUTIONS",
		FamilyCategory: "CATEGORY_REGEX_SUBSTITUTIONS",
		FamilyAuthor:   "AUTHOR_REGEX_SUBSTITUTIONS",
	} {
		raw, ok := s.raw[key]
		if !ok || raw == nil {
			s.Substitutions[family] = slugTable
			continue
		}
		table, err := compileSubstTable(raw, key)
		if err != nil {
			return err
		}
		s.Substitutions[family] = table
	}
	return nil
}

func compileSubstTable(raw any, key string) ([]Substitution, error) {
	entries, ok := raw.([]any)
	if !ok {
		return nil, errors.ConfigError("substitution table must be a list of [pattern, replacement] pairs").
			WithContext("setting", key).Build()
	}
	out := make([]Substitution, 0, len(entries))
	for _, e := range entries {
		pair, _ := e.([]any)
		if len(pair) != 2 {
			return nil, errors.ConfigError("substitution entries must be [pattern, replacement] pairs").
				WithContext("setting", key).Build()
		}
		pat, _ := pair[0].(string)
		repl, _ := pair[1].(string)
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryConfig, "invalid substitution pattern").
				Fatal().WithContext("setting", key).WithContext("pattern", pat).Build()
		}
		out = append(out, Substitution{Pattern: re, Repl: repl})
	}
	return out, nil
}

func compilePaginationRules(s *Settings) error {
	raw, _ := s.raw["PAGINATION_PATTERNS"].([]any)
	rules := make([]PaginationRule, 0, len(raw))
	for _, e := range raw {
		triple, _ := e.([]any)
		if len(triple) != 3 {
			return errors.ConfigError("PAGINATION_PATTERNS entries must be [min_page, url, save_as] triples").Build()
		}
		minPage, ok := asInt(triple[0])
		if !ok {
			return errors.ConfigError("PAGINATION_PATTERNS min_page must be an integer").Build()
		}
		url, _ := triple[1].(string)
		saveAs, _ := triple[2].(string)
		rules = append(rules, PaginationRule{MinPage: minPage, URL: url, SaveAs: saveAs})
	}
	s.PaginationRules = rules
	return nil
}

func compilePatterns(s *Settings) error {
	var err error
	if s.LinkRegex, err = regexp.Compile(s.Str("INTRASITE_LINK_REGEX")); err != nil {
		return errors.Wrap(err, errors.CategoryConfig, "invalid INTRASITE_LINK_REGEX").Fatal().Build()
	}
	if pat := s.Str("FILENAME_METADATA"); pat != "" {
		if s.FilenameMetadata, err = regexp.Compile(pat); err != nil {
			return errors.Wrap(err, errors.CategoryConfig, "invalid FILENAME_METADATA").Fatal().Build()
		}
	}
	if pat := s.Str("PATH_METADATA"); pat != "" {
		if s.PathMetadata, err = regexp.Compile(pat); err != nil {
			return errors.Wrap(err, errors.CategoryConfig, "invalid PATH_METADATA").Fatal().Build()
		}
	}
	return nil
}

func validate(s *Settings) error {
	layer := CachingLayer(s.Str("CONTENT_CACHING_LAYER"))
	switch layer {
	case LayerReader, LayerGenerator:
		s.CachingLayer = layer
	default:
		return errors.ConfigError("CONTENT_CACHING_LAYER must be 'reader' or 'generator'").
			WithContext("value", string(layer)).Build()
	}

	rssConfigured := false
	for _, key := range rssFeedKeys {
		if s.Str(key) != "" {
			rssConfigured = true
			break
		}
	}
	if rssConfigured {
		if _, ok := s.raw["RSS_FEED_SUMMARY_ONLY"]; !ok {
			return errors.ConfigError("RSS_FEED_SUMMARY_ONLY must be set when an RSS feed is configured").Build()
		}
	}

	for _, key := range taxonomyTemplateKeys {
		tmpl := s.Str(key)
		for _, match := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
			if !knownTaxonomyPlaceholders[match[1]] {
				return errors.ConfigError("unknown placeholder in URL template").
					WithContext("setting", key).WithContext("placeholder", match[1]).Build()
			}
		}
	}
	return nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
