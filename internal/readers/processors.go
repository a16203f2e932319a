package readers

import (
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/settings"
)

// Discard is the sentinel a processor returns to remove a field from the
// metadata entirely.
type discardSentinel struct{}

var Discard = discardSentinel{}

// dateLayouts are tried in order by the tolerant date parser.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"02 Jan 2006 15:04",
	"02 Jan 2006",
	"Jan 2, 2006",
	"2006-01",
}

// ParseDate parses a metadata date value tolerantly. Naive values are
// interpreted in the build timezone; time.Time values pass through.
func ParseDate(value any, loc *time.Location) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		if v.Location() == time.UTC {
			// yaml.v3 parses bare dates as UTC; rehome to the build zone
			// without shifting the wall clock.
			return time.Date(v.Year(), v.Month(), v.Day(), v.Hour(), v.Minute(), v.Second(), v.Nanosecond(), loc), nil
		}
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable date %q", s)
	default:
		return time.Time{}, fmt.Errorf("date value must be a string or timestamp, got %T", value)
	}
}

// NormalizeList coerces a multi-valued metadata field into a clean string
// list. A string containing a semicolon splits on semicolons, otherwise on
// commas; parts are trimmed, empties drop, and order-preserving
// deduplication is applied. Already-normalized lists pass through unchanged.
func NormalizeList(value any) []string {
	var parts []string
	switch v := value.(type) {
	case []string:
		parts = v
	case []any:
		for _, item := range v {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
	case string:
		sep := ","
		if strings.Contains(v, ";") {
			sep = ";"
		}
		parts = strings.Split(v, sep)
	case nil:
		return nil
	default:
		parts = []string{fmt.Sprintf("%v", v)}
	}

	seen := map[string]bool{}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// processor normalizes one metadata field.
type processor func(value any, s *settings.Settings) (any, error)

// fieldProcessors is the default per-field mapping.
var fieldProcessors = map[string]processor{
	"tags": func(value any, s *settings.Settings) (any, error) {
		names := NormalizeList(value)
		if len(names) == 0 {
			return Discard, nil
		}
		tags := make([]*content.Tag, 0, len(names))
		for _, name := range names {
			tags = append(tags, content.NewTag(name, s))
		}
		return tags, nil
	},
	"date":     processDate,
	"modified": processDate,
	"status": func(value any, _ *settings.Settings) (any, error) {
		return strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", value))), nil
	},
	"category": func(value any, s *settings.Settings) (any, error) {
		name := strings.TrimSpace(fmt.Sprintf("%v", value))
		if name == "" {
			return Discard, nil
		}
		return content.NewCategory(name, s), nil
	},
	"author": func(value any, s *settings.Settings) (any, error) {
		name := strings.TrimSpace(fmt.Sprintf("%v", value))
		if name == "" {
			return Discard, nil
		}
		return content.NewAuthor(name, s), nil
	},
	"authors": func(value any, s *settings.Settings) (any, error) {
		names := NormalizeList(value)
		if len(names) == 0 {
			return Discard, nil
		}
		authors := make([]*content.Author, 0, len(names))
		for _, name := range names {
			authors = append(authors, content.NewAuthor(name, s))
		}
		return authors, nil
	},
	"slug": func(value any, _ *settings.Settings) (any, error) {
		slug := strings.TrimSpace(fmt.Sprintf("%v", value))
		if slug == "" {
			return Discard, nil
		}
		return slug, nil
	},
}

func processDate(value any, s *settings.Settings) (any, error) {
	t, err := ParseDate(value, s.Location)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryReader, "invalid date metadata").Build()
	}
	return t, nil
}

// processMetadata runs the field processors over a raw metadata map,
// delegating to the reader's own ProcessMetadata first so formats can
// pre-normalize their values.
func processMetadata(raw map[string]any, r Reader, s *settings.Settings) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for name, value := range raw {
		if r != nil {
			v, err := r.ProcessMetadata(name, value)
			if err != nil {
				return nil, err
			}
			value = v
		}
		if proc, ok := fieldProcessors[name]; ok {
			v, err := proc(value, s)
			if err != nil {
				return nil, err
			}
			value = v
		} else if str, ok := value.(string); ok {
			value = strings.TrimSpace(str)
		}
		if _, isDiscard := value.(discardSentinel); isDiscard {
			continue
		}
		out[name] = value
	}
	return out, nil
}
