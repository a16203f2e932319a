package generators

import (
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// splitTranslations partitions items into originals and translations and
// wires every member's Translations list to the rest of its group.
// Items are grouped by equal values of the id fields; within a group the
// original is the default-language member not flagged as a translation,
// with fallbacks when no member qualifies.
func splitTranslations(items []*content.Content, idFields []string, defaultLang string, logger *slog.Logger) (originals, translations []*content.Content) {
	if len(idFields) == 0 {
		return items, nil
	}

	groupOf := map[string]int{}
	var groups [][]*content.Content
	for _, c := range items {
		key := groupKey(c, idFields)
		idx, ok := groupOf[key]
		if !ok {
			idx = len(groups)
			groupOf[key] = idx
			groups = append(groups, nil)
		}
		groups[idx] = append(groups[idx], c)
	}

	isOriginal := map[*content.Content]bool{}
	for _, group := range groups {
		for _, c := range group {
			c.Translations = others(group, c)
		}

		candidates := make([]*content.Content, 0, len(group))
		for _, c := range group {
			if !c.MarksTranslation() {
				candidates = append(candidates, c)
			}
		}
		if len(candidates) == 0 {
			logger.Warn("every member of a translation group is flagged as a translation",
				logfields.Source(group[0].SourcePath))
			candidates = group
		}

		chosen := make([]*content.Content, 0, 1)
		for _, c := range candidates {
			if c.Lang == defaultLang {
				chosen = append(chosen, c)
			}
		}
		if len(chosen) == 0 {
			chosen = candidates
		}
		if len(chosen) > 1 {
			logger.Warn("translation group has multiple originals",
				logfields.Source(chosen[0].SourcePath),
				logfields.Count(len(chosen)))
		}
		for _, c := range chosen {
			isOriginal[c] = true
		}
	}

	for _, c := range items {
		if isOriginal[c] {
			originals = append(originals, c)
		} else {
			translations = append(translations, c)
		}
	}
	return originals, translations
}

func groupKey(c *content.Content, fields []string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = c.AttrString(f)
	}
	return strings.Join(parts, "\x00")
}

func others(group []*content.Content, self *content.Content) []*content.Content {
	if len(group) == 1 {
		return nil
	}
	rest := make([]*content.Content, 0, len(group)-1)
	for _, c := range group {
		if c != self {
			rest = append(rest, c)
		}
	}
	return rest
}

// translationID reads a translation-id setting that may be a single
// field name or a list of field names.
func translationID(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []any:
		var out []string
		for _, e := range t {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
