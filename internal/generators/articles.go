package generators

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/cache"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/feeds"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/readers"
	"git.home.luguber.info/inful/sitegen/internal/settings"
	"git.home.luguber.info/inful/sitegen/internal/signals"
	"git.home.luguber.info/inful/sitegen/internal/templates"
	"git.home.luguber.info/inful/sitegen/internal/writer"
)

// ArticlesGenerator reads article sources and renders articles, drafts,
// taxonomy listings, archives and feeds.
type ArticlesGenerator struct {
	base
}

func NewArticles(s *settings.Settings, env templates.Environment, reg *readers.Registry, bus *signals.Bus, logger *slog.Logger) *ArticlesGenerator {
	g := &ArticlesGenerator{base: base{
		settings: s,
		env:      env,
		readers:  reg,
		bus:      bus,
		logger:   logger.With(logfields.Generator("articles")),
	}}
	if s.CachingLayer == settings.LayerGenerator {
		g.cache = cache.New(s, "articles_generator")
	}
	return g
}

func (g *ArticlesGenerator) Name() string { return "articles" }

func (g *ArticlesGenerator) GenerateContext(ctx *content.Context) error {
	if err := g.bus.Send(signals.ArticleGeneratorInit, &signals.Payload{Settings: g.settings, Context: ctx}); err != nil {
		return err
	}

	files, err := g.getFiles(
		g.settings.Strings("ARTICLE_PATHS"),
		g.settings.Strings("ARTICLE_EXCLUDES"),
		g.readers.Extensions())
	if err != nil {
		return err
	}
	all := g.readSources(ctx, files, content.KindArticle)

	published, drafts, hidden := partition(all)
	idFields := translationID(g.settings.Raw()["ARTICLE_TRANSLATION_ID"])
	defaultLang := g.settings.Str("DEFAULT_LANG")

	ctx.Articles, ctx.Translations = splitTranslations(published, idFields, defaultLang, g.logger)
	ctx.Drafts, ctx.DraftTranslations = splitTranslations(drafts, idFields, defaultLang, g.logger)
	ctx.HiddenArticles, ctx.HiddenTranslations = splitTranslations(hidden, idFields, defaultLang, g.logger)

	orderContents(ctx.Articles, g.settings.Str("ARTICLE_ORDER_BY"))
	orderContents(ctx.Drafts, g.settings.Str("ARTICLE_ORDER_BY"))

	g.buildTaxonomies(ctx)
	g.buildDates(ctx)
	g.buildPeriodArchives(ctx)

	if g.cache != nil {
		g.cache.SaveCache()
	}
	g.readers.SaveCache()
	g.logger.Info("processed articles",
		logfields.Count(len(ctx.Articles)),
		slog.Int("drafts", len(ctx.Drafts)),
		slog.Int("hidden", len(ctx.HiddenArticles)))
	return g.bus.Send(signals.ArticleGeneratorFinalized, &signals.Payload{Settings: g.settings, Context: ctx})
}

// buildTaxonomies groups originals only; translations never appear in
// tag, category or author listings.
func (g *ArticlesGenerator) buildTaxonomies(ctx *content.Context) {
	tagArticles := map[string][]*content.Content{}
	tagToken := map[string]*content.Tag{}
	catArticles := map[string][]*content.Content{}
	catToken := map[string]*content.Category{}
	authArticles := map[string][]*content.Content{}
	authToken := map[string]*content.Author{}

	for _, a := range ctx.Articles {
		for _, t := range a.Tags {
			k := t.Key()
			if _, ok := tagToken[k]; !ok {
				tagToken[k] = t
			}
			tagArticles[k] = append(tagArticles[k], a)
		}
		if c := a.Category; c != nil {
			k := c.Key()
			if _, ok := catToken[k]; !ok {
				catToken[k] = c
			}
			catArticles[k] = append(catArticles[k], a)
		}
		for _, au := range a.Authors {
			k := au.Key()
			if _, ok := authToken[k]; !ok {
				authToken[k] = au
			}
			authArticles[k] = append(authArticles[k], a)
		}
	}

	ctx.Tags = make([]content.TagEntry, 0, len(tagToken))
	for k, t := range tagToken {
		ctx.Tags = append(ctx.Tags, content.TagEntry{Tag: t, Articles: tagArticles[k]})
	}
	sort.Slice(ctx.Tags, func(i, j int) bool {
		return ctx.Tags[i].Tag.Less(&ctx.Tags[j].Tag.URLWrapper)
	})

	ctx.Categories = make([]content.CategoryEntry, 0, len(catToken))
	for k, c := range catToken {
		ctx.Categories = append(ctx.Categories, content.CategoryEntry{Category: c, Articles: catArticles[k]})
	}
	reverseCats := g.settings.Bool("REVERSE_CATEGORY_ORDER")
	sort.Slice(ctx.Categories, func(i, j int) bool {
		less := ctx.Categories[i].Category.Less(&ctx.Categories[j].Category.URLWrapper)
		if reverseCats {
			return !less
		}
		return less
	})

	ctx.Authors = make([]content.AuthorEntry, 0, len(authToken))
	for k, a := range authToken {
		ctx.Authors = append(ctx.Authors, content.AuthorEntry{Author: a, Articles: authArticles[k]})
	}
	sort.Slice(ctx.Authors, func(i, j int) bool {
		return ctx.Authors[i].Author.Less(&ctx.Authors[j].Author.URLWrapper)
	})
}

func (g *ArticlesGenerator) buildDates(ctx *content.Context) {
	dates := make([]*content.Content, len(ctx.Articles))
	copy(dates, ctx.Articles)
	newestFirst := g.settings.Bool("NEWEST_FIRST_ARCHIVES")
	sort.SliceStable(dates, func(i, j int) bool {
		if newestFirst {
			return dates[j].Date.Before(dates[i].Date)
		}
		return dates[i].Date.Before(dates[j].Date)
	})
	ctx.Dates = dates
}

// buildPeriodArchives groups the date-ordered sequence into year, month
// and day buckets for every granularity with a configured save-as.
func (g *ArticlesGenerator) buildPeriodArchives(ctx *content.Context) {
	type granularity struct {
		name    string
		keyOf   func(t time.Time) [3]int
		period  func(t time.Time) ([]any, []int)
		saveKey string
		urlKey  string
	}
	grans := []granularity{
		{
			name:  "year",
			keyOf: func(t time.Time) [3]int { return [3]int{t.Year(), 0, 0} },
			period: func(t time.Time) ([]any, []int) {
				return []any{t.Year()}, []int{t.Year()}
			},
			saveKey: "YEAR_ARCHIVE_SAVE_AS", urlKey: "YEAR_ARCHIVE_URL",
		},
		{
			name:  "month",
			keyOf: func(t time.Time) [3]int { return [3]int{t.Year(), int(t.Month()), 0} },
			period: func(t time.Time) ([]any, []int) {
				return []any{t.Year(), t.Month().String()}, []int{t.Year(), int(t.Month())}
			},
			saveKey: "MONTH_ARCHIVE_SAVE_AS", urlKey: "MONTH_ARCHIVE_URL",
		},
		{
			name:  "day",
			keyOf: func(t time.Time) [3]int { return [3]int{t.Year(), int(t.Month()), t.Day()} },
			period: func(t time.Time) ([]any, []int) {
				return []any{t.Year(), t.Month().String(), t.Day()}, []int{t.Year(), int(t.Month()), t.Day()}
			},
			saveKey: "DAY_ARCHIVE_SAVE_AS", urlKey: "DAY_ARCHIVE_URL",
		},
	}

	for _, gran := range grans {
		saveTmpl := g.settings.Str(gran.saveKey)
		if saveTmpl == "" {
			continue
		}
		urlTmpl := g.settings.Str(gran.urlKey)

		var archives []*content.PeriodArchive
		index := map[[3]int]*content.PeriodArchive{}
		for _, a := range ctx.Dates {
			key := gran.keyOf(a.Date)
			arch, ok := index[key]
			if !ok {
				period, periodNum := gran.period(a.Date)
				arch = &content.PeriodArchive{
					Granularity: gran.name,
					Period:      period,
					PeriodNum:   periodNum,
					Date:        a.Date,
					SaveAs:      g.expandArchive(saveTmpl, a.Date),
					URL:         g.expandArchive(urlTmpl, a.Date),
				}
				index[key] = arch
				archives = append(archives, arch)
			}
			arch.Articles = append(arch.Articles, a)
		}
		ctx.PeriodArchives[gran.name] = archives
	}
}

func (g *ArticlesGenerator) expandArchive(tmpl string, date time.Time) string {
	if tmpl == "" {
		return ""
	}
	out, err := content.ExpandTemplate(tmpl, func(name string) (any, bool) {
		if name == "date" {
			return date, true
		}
		return nil, false
	})
	if err != nil {
		g.logger.Warn("bad archive template", logfields.Error(err))
		return ""
	}
	return out
}

func (g *ArticlesGenerator) GenerateOutput(ctx *content.Context, w *writer.Writer) error {
	if err := g.emitFeeds(ctx, w); err != nil {
		return err
	}
	if err := g.writeArticles(ctx, w); err != nil {
		return err
	}
	if err := g.writePeriodArchives(ctx, w); err != nil {
		return err
	}
	if err := g.writeDirectTemplates(ctx, w); err != nil {
		return err
	}
	return g.writeTaxonomies(ctx, w)
}

func (g *ArticlesGenerator) writeArticles(ctx *content.Context, w *writer.Writer) error {
	groups := [][]*content.Content{
		ctx.Articles, ctx.Translations,
		ctx.HiddenArticles, ctx.HiddenTranslations,
		ctx.Drafts, ctx.DraftTranslations,
	}
	for _, group := range groups {
		for _, a := range group {
			tpl, err := g.template(a, "article")
			if err != nil {
				return err
			}
			req := writer.PageRequest{
				Dest:     a.SaveAs(),
				Template: tpl,
				Vars:     g.templateVars(ctx, map[string]any{"article": a}),
				URL:      a.URL(),
			}
			if err := w.WritePage(req); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *ArticlesGenerator) writePeriodArchives(ctx *content.Context, w *writer.Writer) error {
	tpl, err := g.env.GetTemplate("period_archives")
	if err != nil {
		tpl, err = g.env.GetTemplate("archives")
		if err != nil {
			return err
		}
	}
	for _, archives := range ctx.PeriodArchives {
		for _, arch := range archives {
			req := writer.PageRequest{
				Dest:     arch.SaveAs,
				Template: tpl,
				Vars: g.templateVars(ctx, map[string]any{
					"archive":    arch,
					"dates":      arch.Articles,
					"period":     arch.Period,
					"period_num": arch.PeriodNum,
				}),
				URL: arch.URL,
			}
			if err := w.WritePage(req); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *ArticlesGenerator) writeDirectTemplates(ctx *content.Context, w *writer.Writer) error {
	for _, name := range g.settings.Strings("DIRECT_TEMPLATES") {
		saveAs := g.settings.Str(strings.ToUpper(name) + "_SAVE_AS")
		if saveAs == "" {
			continue
		}
		tpl, err := g.env.GetTemplate(name)
		if err != nil {
			return err
		}
		req := writer.PageRequest{
			Dest:     saveAs,
			Template: tpl,
			Vars:     g.templateVars(ctx, nil),
		}
		if perPage, ok := g.perPageFor(name); ok {
			req.PerPage = perPage
			req.Paginated = map[string][]*content.Content{
				"articles": ctx.Articles,
				"dates":    ctx.Dates,
			}
		}
		if err := w.WritePage(req); err != nil {
			return err
		}
	}
	return nil
}

func (g *ArticlesGenerator) writeTaxonomies(ctx *content.Context, w *writer.Writer) error {
	for _, entry := range ctx.Tags {
		if err := g.writeTokenPage(ctx, w, "tag", &entry.Tag.URLWrapper, entry.Articles); err != nil {
			return err
		}
	}
	for _, entry := range ctx.Categories {
		if err := g.writeTokenPage(ctx, w, "category", &entry.Category.URLWrapper, entry.Articles); err != nil {
			return err
		}
	}
	for _, entry := range ctx.Authors {
		if err := g.writeTokenPage(ctx, w, "author", &entry.Author.URLWrapper, entry.Articles); err != nil {
			return err
		}
	}
	return nil
}

func (g *ArticlesGenerator) writeTokenPage(ctx *content.Context, w *writer.Writer, family string, token *content.URLWrapper, articles []*content.Content) error {
	saveAs := token.SaveAs()
	if saveAs == "" {
		return nil
	}
	tpl, err := g.env.GetTemplate(family)
	if err != nil {
		return err
	}
	req := writer.PageRequest{
		Dest:     saveAs,
		Template: tpl,
		Vars: g.templateVars(ctx, map[string]any{
			family:     token,
			"articles": articles,
		}),
		URL: token.URL(),
	}
	if perPage, ok := g.perPageFor(family); ok {
		req.PerPage = perPage
		req.Paginated = map[string][]*content.Content{
			"articles": articles,
			"dates":    articles,
		}
	}
	return w.WritePage(req)
}

// emitFeeds writes the site, taxonomy and per-language feeds configured
// in settings, newest entries first.
func (g *ArticlesGenerator) emitFeeds(ctx *content.Context, w *writer.Writer) error {
	domain := g.settings.FeedDomain()
	summaryOnly := g.settings.Bool("RSS_FEED_SUMMARY_ONLY")
	siteName := g.settings.Str("SITENAME")

	// The plain site feeds carry originals only; the "all" variants
	// include translations.
	originals := byDateDesc(ctx.Articles)
	withTranslations := byDateDesc(append(append([]*content.Content{}, ctx.Articles...), ctx.Translations...))
	siteFeeds := []struct {
		key   string
		t     feeds.Type
		items []*content.Content
	}{
		{"FEED_ATOM", feeds.TypeAtom, originals},
		{"FEED_RSS", feeds.TypeRSS, originals},
		{"FEED_ALL_ATOM", feeds.TypeAtom, withTranslations},
		{"FEED_ALL_RSS", feeds.TypeRSS, withTranslations},
	}
	for _, f := range siteFeeds {
		items := f.items
		dest := g.settings.Str(f.key)
		if dest == "" {
			continue
		}
		if err := g.writeOneFeed(w, dest, siteName, items, f.t, domain, summaryOnly); err != nil {
			return err
		}
	}

	for _, entry := range ctx.Categories {
		if err := g.emitTokenFeeds(w, &entry.Category.URLWrapper, entry.Articles, "CATEGORY_FEED_ATOM", "CATEGORY_FEED_RSS", domain, summaryOnly); err != nil {
			return err
		}
	}
	for _, entry := range ctx.Tags {
		if err := g.emitTokenFeeds(w, &entry.Tag.URLWrapper, entry.Articles, "TAG_FEED_ATOM", "TAG_FEED_RSS", domain, summaryOnly); err != nil {
			return err
		}
	}
	for _, entry := range ctx.Authors {
		if err := g.emitTokenFeeds(w, &entry.Author.URLWrapper, entry.Articles, "AUTHOR_FEED_ATOM", "AUTHOR_FEED_RSS", domain, summaryOnly); err != nil {
			return err
		}
	}

	return g.emitTranslationFeeds(ctx, w, domain, summaryOnly)
}

func (g *ArticlesGenerator) emitTokenFeeds(w *writer.Writer, token *content.URLWrapper, articles []*content.Content, atomKey, rssKey, domain string, summaryOnly bool) error {
	title := g.settings.Str("SITENAME") + " - " + token.Name
	items := byDateDesc(articles)
	if dest := token.FeedURL(atomKey); dest != "" {
		if err := g.writeOneFeed(w, dest, title, items, feeds.TypeAtom, domain, summaryOnly); err != nil {
			return err
		}
	}
	if dest := token.FeedURL(rssKey); dest != "" {
		if err := g.writeOneFeed(w, dest, title, items, feeds.TypeRSS, domain, summaryOnly); err != nil {
			return err
		}
	}
	return nil
}

func (g *ArticlesGenerator) emitTranslationFeeds(ctx *content.Context, w *writer.Writer, domain string, summaryOnly bool) error {
	atomTmpl := g.settings.Str("TRANSLATION_FEED_ATOM")
	rssTmpl := g.settings.Str("TRANSLATION_FEED_RSS")
	if atomTmpl == "" && rssTmpl == "" {
		return nil
	}

	byLang := map[string][]*content.Content{}
	var langs []string
	for _, a := range append(append([]*content.Content{}, ctx.Articles...), ctx.Translations...) {
		if _, ok := byLang[a.Lang]; !ok {
			langs = append(langs, a.Lang)
		}
		byLang[a.Lang] = append(byLang[a.Lang], a)
	}
	sort.Strings(langs)

	title := g.settings.Str("SITENAME")
	for _, lang := range langs {
		items := byDateDesc(byLang[lang])
		for _, f := range []struct {
			tmpl string
			t    feeds.Type
		}{{atomTmpl, feeds.TypeAtom}, {rssTmpl, feeds.TypeRSS}} {
			if f.tmpl == "" {
				continue
			}
			dest, err := content.ExpandTemplate(f.tmpl, func(name string) (any, bool) {
				if name == "lang" {
					return lang, true
				}
				return nil, false
			})
			if err != nil {
				return err
			}
			if err := g.writeOneFeed(w, dest, title, items, f.t, domain, summaryOnly); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *ArticlesGenerator) writeOneFeed(w *writer.Writer, dest, title string, items []*content.Content, t feeds.Type, domain string, summaryOnly bool) error {
	info := feeds.Info{
		Title:    title,
		SiteLink: domain,
		FeedURL:  joinFeedURL(domain, dest),
	}
	if len(items) > 0 {
		info.Updated = items[0].Date
	}
	entries := make([]feeds.Entry, 0, len(items))
	for _, c := range items {
		entries = append(entries, feeds.FromContent(c, domain, c.Body(), c.Summary, t, summaryOnly))
	}
	return w.WriteFeed(info, entries, dest, t)
}

func joinFeedURL(domain, dest string) string {
	if domain == "" {
		return "/" + dest
	}
	return strings.TrimRight(domain, "/") + "/" + dest
}

// byDateDesc returns a newest-first copy, leaving the input order alone.
func byDateDesc(items []*content.Content) []*content.Content {
	out := make([]*content.Content, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Date.Before(out[i].Date)
	})
	return out
}
