package paginate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/settings"
)

func testSettings(t *testing.T, overrides settings.Map) *settings.Settings {
	t.Helper()
	dir := t.TempDir()
	m := settings.Map{"PATH": dir, "OUTPUT_PATH": filepath.Join(dir, "output")}
	for k, v := range overrides {
		m[k] = v
	}
	s, _, err := settings.Normalize(m, dir)
	require.NoError(t, err)
	return s
}

func items(n int) []*content.Content {
	out := make([]*content.Content, n)
	for i := range out {
		out[i] = &content.Content{}
	}
	return out
}

func intp(n int) *int { return &n }

func TestSinglePageWhenUnpaginated(t *testing.T) {
	s := testSettings(t, nil)

	p := New("index.html", "index.html", items(7), s, nil)
	require.Equal(t, 1, p.NumPages())
	require.Len(t, p.Page(1).Items, 7)

	p = New("index.html", "index.html", items(7), s, intp(0))
	require.Equal(t, 1, p.NumPages())
}

func TestNumPagesWithOrphans(t *testing.T) {
	s := testSettings(t, settings.Map{"DEFAULT_ORPHANS": 2})

	// 12 items at 5 per page with 2 orphans: ceil(10/5) = 2 pages,
	// the second absorbing the leftover pair.
	p := New("index.html", "index.html", items(12), s, intp(5))
	require.Equal(t, 2, p.NumPages())
	require.Len(t, p.Page(1).Items, 5)
	require.Len(t, p.Page(2).Items, 7)
}

func TestZeroItemsStillOnePage(t *testing.T) {
	s := testSettings(t, nil)
	p := New("index.html", "index.html", nil, s, intp(4))
	require.Equal(t, 1, p.NumPages())
	require.Empty(t, p.Page(1).Items)
}

func TestDefaultPatternNumbering(t *testing.T) {
	s := testSettings(t, nil)
	p := New("index.html", "index.html", items(5), s, intp(2))
	require.Equal(t, 3, p.NumPages())

	first := p.Page(1)
	require.Equal(t, "index.html", first.URL())
	require.Equal(t, "index.html", first.SaveAs())
	require.False(t, first.HasPrevious())
	require.True(t, first.HasNext())

	second := p.Page(2)
	require.Equal(t, "index2.html", second.URL())
	require.Equal(t, "index2.html", second.SaveAs())

	last := p.Page(3)
	require.False(t, last.HasNext())
}

func TestLastPageRule(t *testing.T) {
	s := testSettings(t, settings.Map{
		"PAGINATION_PATTERNS": []any{
			[]any{1, "{name}{number}{extension}", "{name}{number}{extension}"},
			[]any{-1, "{name}{extension}", "{name}{extension}"},
		},
	})
	p := New("index.html", "index.html", items(6), s, intp(2))
	require.Equal(t, 3, p.NumPages())

	require.Equal(t, "index1.html", p.Page(1).SaveAs())
	require.Equal(t, "index2.html", p.Page(2).SaveAs())
	// The -1 rule matches only the final page and, appearing later in the
	// list, wins over the general rule there.
	require.Equal(t, "index.html", p.Page(3).SaveAs())
}

func TestSchemeRelativeURLSurvives(t *testing.T) {
	s := testSettings(t, settings.Map{
		"DEFAULT_PAGINATION": 1,
		"PAGINATION_PATTERNS": []any{
			[]any{1, "/{url}", "{base_name}/index.html"},
			[]any{2, "/{url}{number}/", "{base_name}/{number}/index.html"},
		},
	})
	p := New("blog/index.html", "//blog/", items(3), s, intp(1))
	require.Equal(t, 3, p.NumPages())

	require.Equal(t, "//blog/", p.Page(1).URL())
	require.Equal(t, "blog/index.html", p.Page(1).SaveAs())
	require.Equal(t, "//blog/2/", p.Page(2).URL())
	require.Equal(t, "blog/2/index.html", p.Page(2).SaveAs())
	require.Equal(t, "//blog/3/", p.Page(3).URL())
	require.Equal(t, "blog/3/index.html", p.Page(3).SaveAs())
}
