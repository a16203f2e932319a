package templates

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/settings"
)

func testSettings(t *testing.T, theme map[string]string) *settings.Settings {
	t.Helper()
	dir := t.TempDir()
	m := settings.Map{"PATH": dir, "OUTPUT_PATH": filepath.Join(dir, "output")}
	if theme != nil {
		tplDir := filepath.Join(dir, "theme", "templates")
		require.NoError(t, os.MkdirAll(tplDir, 0o755))
		for name, body := range theme {
			require.NoError(t, os.WriteFile(filepath.Join(tplDir, name), []byte(body), 0o644))
		}
		m["THEME"] = filepath.Join(dir, "theme")
	}
	s, _, err := settings.Normalize(m, dir)
	require.NoError(t, err)
	return s
}

func TestBundledTemplates(t *testing.T) {
	env := NewEnvironment(testSettings(t, nil), nil)
	for _, name := range []string{
		"index", "article", "page", "tag", "category", "author",
		"archives", "period_archives", "tags", "categories", "authors",
	} {
		_, err := env.GetTemplate(name)
		require.NoError(t, err, name)
	}
}

func TestThemeOverridesBundled(t *testing.T) {
	env := NewEnvironment(testSettings(t, map[string]string{
		"article.html": "theme wins",
	}), nil)

	tpl, err := env.GetTemplate("article")
	require.NoError(t, err)
	out, err := tpl.Render(nil)
	require.NoError(t, err)
	require.Equal(t, "theme wins", string(out))

	// Templates the theme does not carry fall back to the bundled set.
	_, err = env.GetTemplate("index")
	require.NoError(t, err)
}

func TestSimplePrefixBypassesTheme(t *testing.T) {
	env := NewEnvironment(testSettings(t, map[string]string{
		"article.html": "theme wins",
	}), nil)

	tpl, err := env.GetTemplate("!simple/article")
	require.NoError(t, err)
	out, err := tpl.Render(map[string]any{"article": map[string]any{
		"Title": "T", "Lang": "en", "Date": time.Now(),
		"Body": "", "Tags": nil, "Translations": nil, "Category": nil,
	}})
	require.NoError(t, err)
	require.NotEqual(t, "theme wins", string(out))
}

func TestThemePrefixRequiresThemeTemplate(t *testing.T) {
	env := NewEnvironment(testSettings(t, map[string]string{
		"only.html": "here",
	}), nil)

	_, err := env.GetTemplate("!theme/missing")
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryTemplate))
}

func TestUnknownTemplate(t *testing.T) {
	env := NewEnvironment(testSettings(t, nil), nil)
	_, err := env.GetTemplate("no-such-template")
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryTemplate))
}

func TestBuiltinFuncs(t *testing.T) {
	env := NewEnvironment(testSettings(t, map[string]string{
		"funcs.html": `{{striptags "<p>hi</p>"}}|{{truncatewords "a b c" 2}}|{{strftime .when "%Y-%m-%d"}}|{{safe "<b>raw</b>"}}|{{slugify "Hello, World!"}}`,
	}), nil)

	tpl, err := env.GetTemplate("funcs")
	require.NoError(t, err)
	out, err := tpl.Render(map[string]any{
		"when": time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, "hi|a b …|2020-01-02|<b>raw</b>|hello-world", string(out))
}

func TestExtraFuncsMerged(t *testing.T) {
	env := NewEnvironment(testSettings(t, map[string]string{
		"extra.html": `{{shout "hi"}}`,
	}), map[string]any{
		"shout": func(s string) string { return s + "!" },
	})

	tpl, err := env.GetTemplate("extra")
	require.NoError(t, err)
	out, err := tpl.Render(nil)
	require.NoError(t, err)
	require.Equal(t, "hi!", string(out))
}
