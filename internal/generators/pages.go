package generators

import (
	"log/slog"

	"git.home.luguber.info/inful/sitegen/internal/cache"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/readers"
	"git.home.luguber.info/inful/sitegen/internal/settings"
	"git.home.luguber.info/inful/sitegen/internal/signals"
	"git.home.luguber.info/inful/sitegen/internal/templates"
	"git.home.luguber.info/inful/sitegen/internal/writer"
)

// PagesGenerator mirrors the article pipeline for standalone pages,
// without taxonomies, archives or feeds.
type PagesGenerator struct {
	base
}

func NewPages(s *settings.Settings, env templates.Environment, reg *readers.Registry, bus *signals.Bus, logger *slog.Logger) *PagesGenerator {
	g := &PagesGenerator{base: base{
		settings: s,
		env:      env,
		readers:  reg,
		bus:      bus,
		logger:   logger.With(logfields.Generator("pages")),
	}}
	if s.CachingLayer == settings.LayerGenerator {
		g.cache = cache.New(s, "pages_generator")
	}
	return g
}

func (g *PagesGenerator) Name() string { return "pages" }

func (g *PagesGenerator) GenerateContext(ctx *content.Context) error {
	if err := g.bus.Send(signals.PageGeneratorInit, &signals.Payload{Settings: g.settings, Context: ctx}); err != nil {
		return err
	}

	files, err := g.getFiles(
		g.settings.Strings("PAGE_PATHS"),
		g.settings.Strings("PAGE_EXCLUDES"),
		g.readers.Extensions())
	if err != nil {
		return err
	}
	all := g.readSources(ctx, files, content.KindPage)

	published, drafts, hidden := partition(all)
	idFields := translationID(g.settings.Raw()["PAGE_TRANSLATION_ID"])
	defaultLang := g.settings.Str("DEFAULT_LANG")

	var draftTranslations, hiddenTranslations []*content.Content
	ctx.Pages, ctx.PageTranslations = splitTranslations(published, idFields, defaultLang, g.logger)
	ctx.DraftPages, draftTranslations = splitTranslations(drafts, idFields, defaultLang, g.logger)
	ctx.HiddenPages, hiddenTranslations = splitTranslations(hidden, idFields, defaultLang, g.logger)
	ctx.DraftPages = append(ctx.DraftPages, draftTranslations...)
	ctx.HiddenPages = append(ctx.HiddenPages, hiddenTranslations...)

	orderContents(ctx.Pages, g.settings.Str("PAGE_ORDER_BY"))

	if g.cache != nil {
		g.cache.SaveCache()
	}
	g.readers.SaveCache()
	g.logger.Info("processed pages",
		logfields.Count(len(ctx.Pages)),
		slog.Int("drafts", len(ctx.DraftPages)),
		slog.Int("hidden", len(ctx.HiddenPages)))
	return g.bus.Send(signals.PageGeneratorFinalized, &signals.Payload{Settings: g.settings, Context: ctx})
}

func (g *PagesGenerator) GenerateOutput(ctx *content.Context, w *writer.Writer) error {
	groups := [][]*content.Content{
		ctx.Pages, ctx.PageTranslations, ctx.HiddenPages, ctx.DraftPages,
	}
	for _, group := range groups {
		for _, p := range group {
			tpl, err := g.template(p, "page")
			if err != nil {
				return err
			}
			req := writer.PageRequest{
				Dest:     p.SaveAs(),
				Template: tpl,
				Vars:     g.templateVars(ctx, map[string]any{"page": p}),
				URL:      p.URL(),
			}
			if err := w.WritePage(req); err != nil {
				return err
			}
		}
	}
	return nil
}
