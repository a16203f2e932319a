package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sitegen.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
SITENAME: My Site
SITEURL: https://example.org
DEFAULT_PAGINATION: 10
WITH_FUTURE_DATES: false
ARTICLE_PATHS:
  - posts
  - drafts
`)
	m, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "My Site", m["SITENAME"])
	require.Equal(t, 10, m["DEFAULT_PAGINATION"])
	require.Equal(t, false, m["WITH_FUTURE_DATES"])
	require.Equal(t, []any{"posts", "drafts"}, m["ARTICLE_PATHS"])
}

func TestLoadEmptyFile(t *testing.T) {
	m, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Empty(t, m)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryConfig))
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "SITENAME: [unclosed"))
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryConfig))
}

func TestLoadThenNormalize(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "content"), 0o755))
	path := writeConfig(t, `
PATH: `+filepath.ToSlash(filepath.Join(dir, "content"))+`
SITEURL: https://example.org/
DEFAULT_PAGINATION: 5
`)
	m, err := Load(path)
	require.NoError(t, err)

	s, warnings, err := Normalize(m, dir)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, "https://example.org", s.Str("SITEURL"))
	require.Equal(t, 5, s.Int("DEFAULT_PAGINATION"))
}
