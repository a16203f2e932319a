package writer

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/feeds"
	"git.home.luguber.info/inful/sitegen/internal/settings"
	"git.home.luguber.info/inful/sitegen/internal/signals"
	"git.home.luguber.info/inful/sitegen/internal/templates"
)

func testSettings(t *testing.T, overrides settings.Map) *settings.Settings {
	t.Helper()
	dir := t.TempDir()
	themeDir := filepath.Join(dir, "theme", "templates")
	require.NoError(t, os.MkdirAll(themeDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(themeDir, "plain.html"),
		[]byte(`<p>{{.value}}</p>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(themeDir, "listing.html"),
		[]byte(`page {{.items_page.Number}} of {{.items_paginator.NumPages}}: {{len .items_page.Items}} items`), 0o644))

	m := settings.Map{
		"PATH":        dir,
		"OUTPUT_PATH": filepath.Join(dir, "output"),
		"THEME":       filepath.Join(dir, "theme"),
	}
	for k, v := range overrides {
		m[k] = v
	}
	s, _, err := settings.Normalize(m, dir)
	require.NoError(t, err)
	return s
}

func newWriter(t *testing.T, s *settings.Settings) (*Writer, *templates.HTMLEnvironment) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(s, signals.NewBus(), logger), templates.NewEnvironment(s, nil)
}

func readOutput(t *testing.T, s *settings.Settings, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(s.OutputPath, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestWritePage(t *testing.T) {
	s := testSettings(t, nil)
	w, env := newWriter(t, s)
	tpl, err := env.GetTemplate("plain")
	require.NoError(t, err)

	require.NoError(t, w.WritePage(PageRequest{
		Dest: "sub/index.html", Template: tpl,
		Vars: map[string]any{"value": "hello"},
	}))
	require.Equal(t, "<p>hello</p>", readOutput(t, s, "sub/index.html"))
}

func TestEmptyDestSkips(t *testing.T) {
	s := testSettings(t, nil)
	w, env := newWriter(t, s)
	tpl, err := env.GetTemplate("plain")
	require.NoError(t, err)

	require.NoError(t, w.WritePage(PageRequest{Dest: "", Template: tpl}))
	_, err = os.Stat(s.OutputPath)
	require.True(t, os.IsNotExist(err))
}

func TestDoubleWriteFails(t *testing.T) {
	s := testSettings(t, nil)
	w, env := newWriter(t, s)
	tpl, err := env.GetTemplate("plain")
	require.NoError(t, err)

	req := PageRequest{Dest: "index.html", Template: tpl, Vars: map[string]any{"value": "a"}}
	require.NoError(t, w.WritePage(req))

	err = w.WritePage(req)
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryWrite))
}

func TestOverrideSuppressesPlainWrite(t *testing.T) {
	s := testSettings(t, nil)
	w, env := newWriter(t, s)
	tpl, err := env.GetTemplate("plain")
	require.NoError(t, err)

	require.NoError(t, w.WritePage(PageRequest{
		Dest: "index.html", Template: tpl,
		Vars: map[string]any{"value": "winner"}, Override: true,
	}))
	require.NoError(t, w.WritePage(PageRequest{
		Dest: "index.html", Template: tpl,
		Vars: map[string]any{"value": "loser"},
	}))
	require.Equal(t, "<p>winner</p>", readOutput(t, s, "index.html"))
}

func TestDoubleOverrideFails(t *testing.T) {
	s := testSettings(t, nil)
	w, env := newWriter(t, s)
	tpl, err := env.GetTemplate("plain")
	require.NoError(t, err)

	req := PageRequest{Dest: "index.html", Template: tpl,
		Vars: map[string]any{"value": "x"}, Override: true}
	require.NoError(t, w.WritePage(req))

	err = w.WritePage(req)
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryWrite))
}

func TestWriteSelectedFilters(t *testing.T) {
	s := testSettings(t, settings.Map{"WRITE_SELECTED": []string{"wanted.html"}})
	w, env := newWriter(t, s)
	tpl, err := env.GetTemplate("plain")
	require.NoError(t, err)

	require.NoError(t, w.WritePage(PageRequest{
		Dest: "skipped.html", Template: tpl, Vars: map[string]any{"value": "no"},
	}))
	require.NoError(t, w.WritePage(PageRequest{
		Dest: "wanted.html", Template: tpl, Vars: map[string]any{"value": "yes"},
	}))

	_, err = os.Stat(filepath.Join(s.OutputPath, "skipped.html"))
	require.True(t, os.IsNotExist(err))
	require.Equal(t, "<p>yes</p>", readOutput(t, s, "wanted.html"))
}

func TestPaginatedWrite(t *testing.T) {
	s := testSettings(t, nil)
	w, env := newWriter(t, s)
	tpl, err := env.GetTemplate("listing")
	require.NoError(t, err)

	items := []*content.Content{{}, {}, {}}
	perPage := 2
	require.NoError(t, w.WritePage(PageRequest{
		Dest: "index.html", URL: "index.html", Template: tpl,
		Vars:      map[string]any{},
		Paginated: map[string][]*content.Content{"items": items},
		PerPage:   &perPage,
	}))

	require.Equal(t, "page 1 of 2: 2 items", readOutput(t, s, "index.html"))
	require.Equal(t, "page 2 of 2: 1 items", readOutput(t, s, "index2.html"))
}

func TestWriteFeed(t *testing.T) {
	s := testSettings(t, settings.Map{"FEED_MAX_ITEMS": 1})
	w, _ := newWriter(t, s)

	entries := []feeds.Entry{
		{Title: "Newest", Link: "https://example.org/newest.html", ID: "tag:example.org,2020-01-02:newest"},
		{Title: "Older", Link: "https://example.org/older.html", ID: "tag:example.org,2020-01-01:older"},
	}
	info := feeds.Info{Title: "Site", SiteLink: "https://example.org", FeedURL: "https://example.org/feeds/all.atom.xml"}

	require.NoError(t, w.WriteFeed(info, entries, "feeds/all.atom.xml", feeds.TypeAtom))

	out := readOutput(t, s, "feeds/all.atom.xml")
	require.Contains(t, out, "Newest")
	require.NotContains(t, out, "Older", "FEED_MAX_ITEMS caps the entry list")
}

func TestRelativePrefix(t *testing.T) {
	require.Equal(t, ".", RelativePrefix("index.html"))
	require.Equal(t, "..", RelativePrefix("tag/go.html"))
	require.Equal(t, "../..", RelativePrefix("posts/2020/index.html"))
}
