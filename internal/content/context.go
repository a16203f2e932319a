package content

import (
	"time"

	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// TagEntry pairs a tag with the originals carrying it.
type TagEntry struct {
	Tag      *Tag
	Articles []*Content
}

// CategoryEntry pairs a category with the originals carrying it.
type CategoryEntry struct {
	Category *Category
	Articles []*Content
}

// AuthorEntry pairs an author with the originals carrying it.
type AuthorEntry struct {
	Author   *Author
	Articles []*Content
}

// PeriodArchive is a synthetic listing for a (year), (year, month) or
// (year, month, day) bucket of the date-ordered article sequence.
type PeriodArchive struct {
	Granularity string // "year", "month" or "day"
	// Period is the human-readable tuple, e.g. (2020, "January").
	Period []any
	// PeriodNum is the numeric tuple, e.g. (2020, 1).
	PeriodNum []int
	// Date is the representative date: the first article's date in the bucket.
	Date     time.Time
	Articles []*Content
	URL      string
	SaveAs   string
}

// Context is the shared mapping carried across generators. Each generator
// both reads from and contributes to it; the writer hands it to templates.
type Context struct {
	// Generated maps source path to article/page content. A nil value
	// records a path that was seen but failed to read, so link resolution
	// reports "seen, failed" rather than "unknown".
	Generated map[string]*Content
	// Static maps source path to static content.
	Static map[string]*Content
	// StaticLinks collects every {static}/{attach} target found in any
	// body, so the static generator discovers them even when they are not
	// listed under a static path.
	StaticLinks sets.Set[string]

	// LocalSiteURL is the siteurl in effect during rendering; with relative
	// URLs it varies per output file.
	LocalSiteURL string

	Articles            []*Content
	Translations        []*Content
	Drafts              []*Content
	DraftTranslations   []*Content
	HiddenArticles      []*Content
	HiddenTranslations  []*Content
	Pages               []*Content
	PageTranslations    []*Content
	DraftPages          []*Content
	HiddenPages         []*Content
	Dates               []*Content
	Tags                []TagEntry
	Categories          []CategoryEntry
	Authors             []AuthorEntry
	PeriodArchives      map[string][]*PeriodArchive
	StaticFiles         []*Content

	// Extra carries additional template variables contributed by plugins.
	Extra map[string]any
}

// NewContext creates an empty build context.
func NewContext() *Context {
	return &Context{
		Generated:      map[string]*Content{},
		Static:         map[string]*Content{},
		StaticLinks:    sets.New[string](),
		PeriodArchives: map[string][]*PeriodArchive{},
		Extra:          map[string]any{},
	}
}

// Lookup finds a content object by source path in the generated map, then
// the static map. The second result distinguishes "seen but failed" (nil,
// true) from "unknown" (nil, false).
func (ctx *Context) Lookup(sourcePath string) (*Content, bool) {
	if c, ok := ctx.Generated[sourcePath]; ok {
		return c, true
	}
	if c, ok := ctx.Static[sourcePath]; ok {
		return c, true
	}
	return nil, false
}

// TemplateVars flattens the context into the mapping handed to templates.
func (ctx *Context) TemplateVars() map[string]any {
	vars := map[string]any{
		"articles":        ctx.Articles,
		"translations":    ctx.Translations,
		"drafts":          ctx.Drafts,
		"hidden_articles": ctx.HiddenArticles,
		"pages":           ctx.Pages,
		"draft_pages":     ctx.DraftPages,
		"hidden_pages":    ctx.HiddenPages,
		"dates":           ctx.Dates,
		"tags":            ctx.Tags,
		"categories":      ctx.Categories,
		"authors":         ctx.Authors,
		"period_archives": ctx.PeriodArchives,
		"staticfiles":     ctx.StaticFiles,
		"localsiteurl":    ctx.LocalSiteURL,
	}
	for k, v := range ctx.Extra {
		vars[k] = v
	}
	return vars
}
