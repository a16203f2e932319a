// Package paginate slices an ordered item sequence into pages whose URL and
// save-as come from the configured pagination rule list.
package paginate

import (
	"path"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/settings"
)

// Paginator yields pages of an item sequence. With a nil perPage it
// degenerates to a single page containing every item.
type Paginator struct {
	// Name is the base save-as name, e.g. "index.html" or "blog/index.html".
	Name string
	// URL is the base URL of the unpaginated listing.
	URL string

	Items    []*content.Content
	settings *settings.Settings
	perPage  int
	single   bool
	orphans  int
}

// New builds a paginator. perPage nil means "everything on one page";
// otherwise the orphans count comes from DEFAULT_ORPHANS.
func New(name, url string, items []*content.Content, s *settings.Settings, perPage *int) *Paginator {
	p := &Paginator{Name: name, URL: url, Items: items, settings: s}
	if perPage == nil || *perPage <= 0 {
		p.single = true
		p.perPage = len(items)
	} else {
		p.perPage = *perPage
		p.orphans = s.Int("DEFAULT_ORPHANS")
	}
	return p
}

// NumPages is ceil(max(1, total - orphans) / per_page) for a real per-page
// count, and exactly one for the degenerate paginator.
func (p *Paginator) NumPages() int {
	if p.single {
		return 1
	}
	hits := len(p.Items) - p.orphans
	if hits < 1 {
		hits = 1
	}
	return (hits + p.perPage - 1) / p.perPage
}

// Page returns the 1-based page n. When the page's top index plus orphans
// reaches the collection length, the last page absorbs the remainder.
func (p *Paginator) Page(n int) *Page {
	start := (n - 1) * p.perPage
	end := start + p.perPage
	if p.single || end+p.orphans >= len(p.Items) {
		end = len(p.Items)
	}
	if start > len(p.Items) {
		start = len(p.Items)
	}
	return &Page{Number: n, Items: p.Items[start:end], Paginator: p}
}

// Page is one page of a paginator.
type Page struct {
	Number    int
	Items     []*content.Content
	Paginator *Paginator
}

// HasPrevious reports whether a preceding page exists.
func (pg *Page) HasPrevious() bool { return pg.Number > 1 }

// HasNext reports whether a following page exists.
func (pg *Page) HasNext() bool { return pg.Number < pg.Paginator.NumPages() }

// URL expands the page URL from the matching pagination rule.
func (pg *Page) URL() string { return pg.expand(func(r settings.PaginationRule) string { return r.URL }) }

// SaveAs expands the page save-as from the matching pagination rule.
func (pg *Page) SaveAs() string {
	return pg.expand(func(r settings.PaginationRule) string { return r.SaveAs })
}

// rule selects the pagination rule for this page: rules are consulted in
// order and the last whose min_page <= number wins; min_page -1 matches
// only the last page.
func (pg *Page) rule() (settings.PaginationRule, bool) {
	var selected settings.PaginationRule
	found := false
	last := pg.Paginator.NumPages()
	for _, r := range pg.Paginator.settings.PaginationRules {
		if r.MinPage == -1 {
			if pg.Number == last {
				selected, found = r, true
			}
			continue
		}
		if r.MinPage <= pg.Number {
			selected, found = r, true
		}
	}
	return selected, found
}

func (pg *Page) expand(pick func(settings.PaginationRule) string) string {
	rule, ok := pg.rule()
	if !ok {
		return ""
	}
	tmpl := pick(rule)
	name := pg.Paginator.Name
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	baseName := path.Dir(stem)
	if baseName == "." {
		baseName = ""
	}
	replacer := strings.NewReplacer(
		"{save_as}", pg.Paginator.Name,
		"{url}", pg.Paginator.URL,
		"{name}", stem,
		"{base_name}", baseName,
		"{extension}", ext,
		"{number}", strconv.Itoa(pg.Number),
	)
	out := replacer.Replace(tmpl)
	// Exactly one leading slash is stripped, never more, so
	// scheme-relative URLs survive.
	out = strings.TrimPrefix(out, "/")
	return out
}
