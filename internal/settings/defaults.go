package settings

// DefaultSettings returns the compiled-in defaults as an uppercase-keyed map.
// User values are merged over these before normalization; any key not
// spelled in uppercase is dropped during the merge.
func DefaultSettings() Map {
	return Map{
		"SITENAME": "A sitegen site",
		"SITEURL":  "",
		"AUTHOR":   "",

		"PATH":        ".",
		"OUTPUT_PATH": "output",
		"CACHE_PATH":  "cache",

		"THEME":             "simple",
		"THEME_STATIC_DIR":  "theme",
		"THEME_STATIC_PATHS": []string{"static"},

		"ARTICLE_PATHS":    []string{""},
		"ARTICLE_EXCLUDES": []string{},
		"PAGE_PATHS":       []string{"pages"},
		"PAGE_EXCLUDES":    []string{},
		"STATIC_PATHS":     []string{"images"},
		"STATIC_EXCLUDES":  []string{},
		"IGNORE_FILES":     []string{".#*", "__pycache__"},

		"STATIC_EXCLUDE_SOURCES":   true,
		"STATIC_CREATE_LINKS":      false,
		"STATIC_CHECK_IF_MODIFIED": false,

		"READERS":             map[string]string{},
		"TEMPLATE_EXTENSIONS": []string{".html"},

		"TIMEZONE":         "UTC",
		"DEFAULT_LANG":     "en",
		"DEFAULT_CATEGORY": "misc",
		"DEFAULT_METADATA": map[string]any{},

		"FILENAME_METADATA": `(?P<date>\d{4}-\d{2}-\d{2}).*`,
		"PATH_METADATA":     "",

		"WITH_FUTURE_DATES":      true,
		"DEFAULT_DATE_FORMAT":    "%a %d %B %Y",
		"SUMMARY_MAX_LENGTH":     50,
		"FORMATTED_FIELDS":       []string{"summary"},
		"TYPOGRIFY":              false,

		"ARTICLE_URL":          "{slug}.html",
		"ARTICLE_SAVE_AS":      "{slug}.html",
		"ARTICLE_LANG_URL":     "{slug}-{lang}.html",
		"ARTICLE_LANG_SAVE_AS": "{slug}-{lang}.html",
		"DRAFT_URL":            "drafts/{slug}.html",
		"DRAFT_SAVE_AS":        "drafts/{slug}.html",
		"DRAFT_LANG_URL":       "drafts/{slug}-{lang}.html",
		"DRAFT_LANG_SAVE_AS":   "drafts/{slug}-{lang}.html",

		"PAGE_URL":                "pages/{slug}.html",
		"PAGE_SAVE_AS":            "pages/{slug}.html",
		"PAGE_LANG_URL":           "pages/{slug}-{lang}.html",
		"PAGE_LANG_SAVE_AS":       "pages/{slug}-{lang}.html",
		"DRAFT_PAGE_URL":          "drafts/pages/{slug}.html",
		"DRAFT_PAGE_SAVE_AS":      "drafts/pages/{slug}.html",
		"DRAFT_PAGE_LANG_URL":     "drafts/pages/{slug}-{lang}.html",
		"DRAFT_PAGE_LANG_SAVE_AS": "drafts/pages/{slug}-{lang}.html",

		"STATIC_URL":     "{path}",
		"STATIC_SAVE_AS": "{path}",

		"CATEGORY_URL":     "category/{slug}.html",
		"CATEGORY_SAVE_AS": "category/{slug}.html",
		"TAG_URL":          "tag/{slug}.html",
		"TAG_SAVE_AS":      "tag/{slug}.html",
		"AUTHOR_URL":       "author/{slug}.html",
		"AUTHOR_SAVE_AS":   "author/{slug}.html",

		"YEAR_ARCHIVE_URL":      "",
		"YEAR_ARCHIVE_SAVE_AS":  "",
		"MONTH_ARCHIVE_URL":     "",
		"MONTH_ARCHIVE_SAVE_AS": "",
		"DAY_ARCHIVE_URL":       "",
		"DAY_ARCHIVE_SAVE_AS":   "",

		"INDEX_SAVE_AS":      "index.html",
		"ARCHIVES_SAVE_AS":   "archives.html",
		"TAGS_SAVE_AS":       "tags.html",
		"CATEGORIES_SAVE_AS": "categories.html",
		"AUTHORS_SAVE_AS":    "authors.html",

		"DIRECT_TEMPLATES":    []string{"index", "tags", "categories", "authors", "archives"},
		"PAGINATED_TEMPLATES": map[string]any{"index": nil, "tag": nil, "category": nil, "author": nil},

		"DEFAULT_PAGINATION": 0,
		"DEFAULT_ORPHANS":    0,
		"PAGINATION_PATTERNS": []any{
			[]any{1, "{name}{extension}", "{name}{extension}"},
			[]any{2, "{name}{number}{extension}", "{name}{number}{extension}"},
		},

		"FEED_DOMAIN":          "",
		"FEED_MAX_ITEMS":       100,
		"FEED_ALL_ATOM":        "feeds/all.atom.xml",
		"FEED_ALL_RSS":         "",
		"FEED_ATOM":            "",
		"FEED_RSS":             "",
		"CATEGORY_FEED_ATOM":   "feeds/category/{slug}.atom.xml",
		"CATEGORY_FEED_RSS":    "",
		"TAG_FEED_ATOM":        "",
		"TAG_FEED_RSS":         "",
		"AUTHOR_FEED_ATOM":     "feeds/author/{slug}.atom.xml",
		"AUTHOR_FEED_RSS":      "",
		"TRANSLATION_FEED_ATOM": "feeds/all-{lang}.atom.xml",
		"TRANSLATION_FEED_RSS":  "",

		"ARTICLE_ORDER_BY":       "reversed-date",
		"PAGE_ORDER_BY":          "basename",
		"REVERSE_CATEGORY_ORDER": true,
		"NEWEST_FIRST_ARCHIVES":  true,

		"ARTICLE_TRANSLATION_ID": "slug",
		"PAGE_TRANSLATION_ID":    "slug",

		"SLUGIFY_PRESERVE_CASE": false,
		"SLUGIFY_USE_UNICODE":   false,

		"SLUG_REGEX_SUBSTITUTIONS": []any{
			[]any{`[^\w\s-]`, ""},
			[]any{`\A\s+`, ""},
			[]any{`\s+\z`, ""},
			[]any{`[-\s]+`, "-"},
		},
		"TAG_REGEX_SUBSTITUTIONS":      nil,
		"CATEGORY_REGEX_SUBSTITUTIONS": nil,
		"AUTHOR_REGEX_SUBSTITUTIONS":   nil,

		// Markdown renderers percent-escape braces and pipes in URL
		// attributes, so the escaped spellings count as markers too.
		"INTRASITE_LINK_REGEX": `(?:[{|]|%7[Bb]|%7[Cc])(?P<what>[a-z]+)(?:[|}]|%7[CcDd])`,

		"CACHE_CONTENT":         false,
		"LOAD_CONTENT_CACHE":    false,
		"CONTENT_CACHING_LAYER": "reader",

		"RELATIVE_URLS":           false,
		"DELETE_OUTPUT_DIRECTORY": false,
		"PLUGINS":                 []string{},
		"WRITE_SELECTED":          []string{},

		"LOCALE": []string{""},
	}
}
