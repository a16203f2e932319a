package generators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/settings"
)

func datedArticle(s *settings.Settings, source string, date time.Time, meta map[string]any) *content.Content {
	m := map[string]any{"title": source, "date": date}
	for k, v := range meta {
		m[k] = v
	}
	return content.New(s, content.KindArticle, source, "", m)
}

func articlesGen(s *settings.Settings) *ArticlesGenerator {
	return &ArticlesGenerator{base: base{settings: s, logger: quietLogger()}}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPartitionByStatus(t *testing.T) {
	s := testSettings(t, nil)
	pub := datedArticle(s, "a.md", day(2020, 1, 1), nil)
	draft := datedArticle(s, "b.md", day(2020, 1, 2), map[string]any{"status": "draft"})
	hid := datedArticle(s, "c.md", day(2020, 1, 3), map[string]any{"status": "hidden"})

	published, drafts, hidden := partition([]*content.Content{pub, draft, hid})
	require.Equal(t, []*content.Content{pub}, published)
	require.Equal(t, []*content.Content{draft}, drafts)
	require.Equal(t, []*content.Content{hid}, hidden)
}

func TestOrderContents(t *testing.T) {
	s := testSettings(t, nil)
	older := datedArticle(s, "b-older.md", day(2020, 1, 1), nil)
	newer := datedArticle(s, "a-newer.md", day(2020, 6, 1), nil)

	items := []*content.Content{older, newer}
	orderContents(items, "reversed-date")
	require.Equal(t, []*content.Content{newer, older}, items)

	orderContents(items, "date")
	require.Equal(t, []*content.Content{older, newer}, items)

	orderContents(items, "basename")
	require.Equal(t, []*content.Content{newer, older}, items)
}

func TestBuildDatesOrdering(t *testing.T) {
	s := testSettings(t, nil)
	g := articlesGen(s)
	ctx := content.NewContext()
	older := datedArticle(s, "a.md", day(2020, 1, 1), nil)
	newer := datedArticle(s, "b.md", day(2020, 6, 1), nil)
	ctx.Articles = []*content.Content{older, newer}

	g.buildDates(ctx)
	require.Equal(t, []*content.Content{newer, older}, ctx.Dates)

	s = testSettings(t, settings.Map{"NEWEST_FIRST_ARCHIVES": false})
	g = articlesGen(s)
	g.buildDates(ctx)
	require.Equal(t, []*content.Content{older, newer}, ctx.Dates)
}

func TestTaxonomiesCoverOriginalsOnly(t *testing.T) {
	s := testSettings(t, nil)
	g := articlesGen(s)
	ctx := content.NewContext()

	original := datedArticle(s, "a-en.md", day(2020, 1, 1), map[string]any{
		"tags":     []*content.Tag{content.NewTag("go", s)},
		"category": content.NewCategory("tech", s),
	})
	translation := datedArticle(s, "a-de.md", day(2020, 1, 1), map[string]any{
		"lang":     "de",
		"tags":     []*content.Tag{content.NewTag("extra", s)},
		"category": content.NewCategory("anders", s),
	})
	ctx.Articles = []*content.Content{original}
	ctx.Translations = []*content.Content{translation}

	g.buildTaxonomies(ctx)

	require.Len(t, ctx.Tags, 1)
	require.Equal(t, "go", ctx.Tags[0].Tag.Name)
	require.Equal(t, []*content.Content{original}, ctx.Tags[0].Articles)

	require.Len(t, ctx.Categories, 1)
	require.Equal(t, "tech", ctx.Categories[0].Category.Name)
}

func TestTaxonomyTokensSorted(t *testing.T) {
	s := testSettings(t, nil)
	g := articlesGen(s)
	ctx := content.NewContext()

	a := datedArticle(s, "a.md", day(2020, 1, 1), map[string]any{"category": content.NewCategory("zebra", s)})
	b := datedArticle(s, "b.md", day(2020, 1, 2), map[string]any{"category": content.NewCategory("apple", s)})
	ctx.Articles = []*content.Content{a, b}

	// Categories list reversed-alphabetical unless the flag is cleared.
	g.buildTaxonomies(ctx)
	require.Equal(t, "zebra", ctx.Categories[0].Category.Name)
	require.Equal(t, "apple", ctx.Categories[1].Category.Name)

	s = testSettings(t, settings.Map{"REVERSE_CATEGORY_ORDER": false})
	g = articlesGen(s)
	g.buildTaxonomies(ctx)
	require.Equal(t, "apple", ctx.Categories[0].Category.Name)
	require.Equal(t, "zebra", ctx.Categories[1].Category.Name)
}

func TestMonthlyPeriodArchives(t *testing.T) {
	s := testSettings(t, settings.Map{
		"MONTH_ARCHIVE_SAVE_AS": "posts/{date:%Y}/{date:%b}/index.html",
		"MONTH_ARCHIVE_URL":     "posts/{date:%Y}/{date:%b}/",
	})
	g := articlesGen(s)
	ctx := content.NewContext()

	janA := datedArticle(s, "jan-a.md", day(2020, 1, 10), nil)
	janB := datedArticle(s, "jan-b.md", day(2020, 1, 20), nil)
	feb := datedArticle(s, "feb.md", day(2020, 2, 5), nil)
	ctx.Articles = []*content.Content{janA, janB, feb}

	g.buildDates(ctx)
	g.buildPeriodArchives(ctx)

	require.Empty(t, ctx.PeriodArchives["year"], "unconfigured granularities stay off")
	months := ctx.PeriodArchives["month"]
	require.Len(t, months, 2)

	// Dates are newest first, so February leads.
	require.Equal(t, "posts/2020/Feb/index.html", months[0].SaveAs)
	require.Equal(t, []*content.Content{feb}, months[0].Articles)

	jan := months[1]
	require.Equal(t, "posts/2020/Jan/index.html", jan.SaveAs)
	require.Equal(t, "posts/2020/Jan/", jan.URL)
	require.Equal(t, []any{2020, "January"}, jan.Period)
	require.Equal(t, []int{2020, 1}, jan.PeriodNum)
	require.Len(t, jan.Articles, 2)
}

func TestYearlyPeriodArchives(t *testing.T) {
	s := testSettings(t, settings.Map{
		"YEAR_ARCHIVE_SAVE_AS": "posts/{date:%Y}/index.html",
	})
	g := articlesGen(s)
	ctx := content.NewContext()
	ctx.Articles = []*content.Content{
		datedArticle(s, "a.md", day(2019, 3, 1), nil),
		datedArticle(s, "b.md", day(2020, 7, 1), nil),
	}

	g.buildDates(ctx)
	g.buildPeriodArchives(ctx)

	years := ctx.PeriodArchives["year"]
	require.Len(t, years, 2)
	require.Equal(t, "posts/2020/index.html", years[0].SaveAs)
	require.Equal(t, []any{2020}, years[0].Period)
}

func TestByDateDesc(t *testing.T) {
	s := testSettings(t, nil)
	older := datedArticle(s, "a.md", day(2020, 1, 1), nil)
	newer := datedArticle(s, "b.md", day(2020, 6, 1), nil)

	in := []*content.Content{older, newer}
	out := byDateDesc(in)
	require.Equal(t, []*content.Content{newer, older}, out)
	require.Equal(t, []*content.Content{older, newer}, in, "input order is preserved")
}

func TestJoinFeedURL(t *testing.T) {
	require.Equal(t, "https://example.org/feeds/all.atom.xml",
		joinFeedURL("https://example.org/", "feeds/all.atom.xml"))
	require.Equal(t, "/feeds/all.atom.xml", joinFeedURL("", "feeds/all.atom.xml"))
}
