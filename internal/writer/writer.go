// Package writer renders templates and feeds to the output directory.
// It owns the duplicate-output bookkeeping: two producers rendering the
// same path is a build error unless the second one explicitly overrides.
package writer

import (
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/feeds"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/paginate"
	"git.home.luguber.info/inful/sitegen/internal/settings"
	"git.home.luguber.info/inful/sitegen/internal/signals"
	"git.home.luguber.info/inful/sitegen/internal/templates"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// Writer renders pages and feeds below the output directory.
type Writer struct {
	settings *settings.Settings
	bus      *signals.Bus
	builder  feeds.Builder
	logger   *slog.Logger

	written    sets.Set[string]
	overridden sets.Set[string]
	selected   sets.Set[string]
}

func New(s *settings.Settings, bus *signals.Bus, logger *slog.Logger) *Writer {
	w := &Writer{
		settings:   s,
		bus:        bus,
		builder:    &feeds.XMLBuilder{},
		logger:     logger,
		written:    sets.New[string](),
		overridden: sets.New[string](),
		selected:   sets.New[string](),
	}
	for _, sel := range s.Strings("WRITE_SELECTED") {
		w.selected.Add(filepath.Clean(sel))
	}
	return w
}

// PageRequest describes one template render.
type PageRequest struct {
	// Dest is the output-relative path. An empty dest skips the write.
	Dest     string
	Template *templates.Template
	// Vars holds the merged template variables. The writer clones it per
	// page and never mutates the original.
	Vars map[string]any
	// Paginated maps variable prefixes (e.g. "articles") to item lists
	// that are split across pages. Nil or empty renders a single page.
	Paginated map[string][]*content.Content
	// PerPage is the page size; nil or non-positive renders everything on
	// a single page.
	PerPage *int
	// URL is the page URL relative to the site root, used for paginated
	// page links.
	URL string
	// Override marks this render as intentionally replacing an earlier
	// write of the same path.
	Override bool
}

// WritePage renders a template to Dest, splitting paginated variables
// across numbered pages when a page size is configured.
func (w *Writer) WritePage(req PageRequest) error {
	if req.Dest == "" {
		return nil
	}
	if len(req.Paginated) == 0 {
		return w.renderOne(req, req.Dest, req.Vars)
	}

	paginators := map[string]*paginate.Paginator{}
	pages := 1
	for key, items := range req.Paginated {
		p := paginate.New(req.Dest, req.URL, items, w.settings, req.PerPage)
		paginators[key] = p
		if n := p.NumPages(); n > pages {
			pages = n
		}
	}
	for n := 1; n <= pages; n++ {
		vars := cloneVars(req.Vars)
		dest := req.Dest
		for key, p := range paginators {
			page := p.Page(min(n, p.NumPages()))
			vars[key+"_paginator"] = p
			vars[key+"_page"] = page
			if page.HasPrevious() {
				vars[key+"_previous_page"] = p.Page(page.Number - 1)
			}
			if page.HasNext() {
				vars[key+"_next_page"] = p.Page(page.Number + 1)
			}
			if page.Number == n {
				dest = page.SaveAs()
			}
		}
		if err := w.render(req.Template, dest, vars, req.Override); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) renderOne(req PageRequest, dest string, vars map[string]any) error {
	return w.render(req.Template, dest, cloneVars(vars), req.Override)
}

func (w *Writer) render(tpl *templates.Template, dest string, vars map[string]any, override bool) error {
	if skip, err := w.claim(dest, override); skip || err != nil {
		return err
	}
	vars["output_file"] = dest
	w.localizeURLs(vars, dest)
	data, err := tpl.Render(vars)
	if err != nil {
		return err
	}
	abs, err := w.writeBytes(dest, data)
	if err != nil {
		return err
	}
	w.logger.Debug("wrote page",
		logfields.Path(dest), logfields.Template(tpl.Name))
	return w.bus.Send(signals.ContentWritten, &signals.Payload{
		Settings: w.settings, Path: abs, Data: data,
	})
}

// WriteFeed serializes entries to dest, newest first, capped at
// FEED_MAX_ITEMS.
func (w *Writer) WriteFeed(info feeds.Info, entries []feeds.Entry, dest string, t feeds.Type) error {
	if dest == "" {
		return nil
	}
	if skip, err := w.claim(dest, false); skip || err != nil {
		return err
	}
	if maxItems := w.settings.Int("FEED_MAX_ITEMS"); maxItems > 0 && len(entries) > maxItems {
		entries = entries[:maxItems]
	}
	data, err := w.builder.Build(info, entries, t)
	if err != nil {
		return err
	}
	if err := w.bus.Send(signals.FeedGenerated, &signals.Payload{
		Settings: w.settings, Path: dest, Data: data,
	}); err != nil {
		return err
	}
	abs, err := w.writeBytes(dest, data)
	if err != nil {
		return err
	}
	w.logger.Debug("wrote feed", logfields.Path(dest), slog.String("type", string(t)))
	return w.bus.Send(signals.FeedWritten, &signals.Payload{
		Settings: w.settings, Path: abs, Data: data,
	})
}

// claim records dest in the duplicate bookkeeping. It reports skip=true
// when an earlier override owns the path and this plain write must be
// suppressed.
func (w *Writer) claim(dest string, override bool) (skip bool, err error) {
	clean := filepath.Clean(filepath.FromSlash(dest))
	if len(w.selected) > 0 && !w.selected.Has(clean) {
		return true, nil
	}
	if override {
		if w.overridden.Has(clean) {
			return false, errors.WriteError("output overridden twice").
				WithContext("path", dest).Build()
		}
		w.overridden.Add(clean)
		return false, nil
	}
	if w.overridden.Has(clean) {
		w.logger.Debug("skipping write, output claimed by override", logfields.Path(dest))
		return true, nil
	}
	if w.written.Has(clean) {
		return false, errors.WriteError("output written twice").
			WithContext("path", dest).Build()
	}
	w.written.Add(clean)
	return false, nil
}

func (w *Writer) writeBytes(dest string, data []byte) (string, error) {
	abs := filepath.Join(w.settings.OutputPath, filepath.FromSlash(dest))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", errors.Wrap(err, errors.CategoryWrite, "creating output directory").Fatal().
			WithContext("path", dest).Build()
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", errors.Wrap(err, errors.CategoryWrite, "writing output file").Fatal().
			WithContext("path", dest).Build()
	}
	return abs, nil
}

// localizeURLs swaps SITEURL for a page-relative prefix when
// RELATIVE_URLS is on, so the rendered site can be browsed from disk.
func (w *Writer) localizeURLs(vars map[string]any, dest string) {
	if !w.settings.Bool("RELATIVE_URLS") {
		return
	}
	local := RelativePrefix(dest)
	vars["SITEURL"] = local
	vars["localsiteurl"] = local
}

// RelativePrefix returns the site-root prefix as seen from an
// output-relative destination, for relative-URL rendering.
func RelativePrefix(dest string) string {
	depth := strings.Count(path.Clean(filepath.ToSlash(dest)), "/")
	if depth == 0 {
		return "."
	}
	return strings.TrimSuffix(strings.Repeat("../", depth), "/")
}

func cloneVars(vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars)+8)
	for k, v := range vars {
		out[k] = v
	}
	return out
}
