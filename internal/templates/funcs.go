package templates

import (
	"embed"
	"html/template"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/settings"
	"github.com/ncruces/go-strftime"
)

//go:embed simple
var simpleTheme embed.FS

func builtinFuncs(s *settings.Settings) template.FuncMap {
	return template.FuncMap{
		"striptags": content.StripTags,
		"truncatewords": func(text string, n int) string {
			return content.TruncateWords(text, n)
		},
		"slugify": func(name string) string {
			return content.SlugifyWith(s, settings.FamilySlug, name)
		},
		"strftime": func(t time.Time, layout string) string {
			return strftime.Format(layout, t)
		},
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec // rendered content is site-authored
		},
	}
}
