package generators

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

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

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func langArticle(s *settings.Settings, source, slug, lang string, meta map[string]any) *content.Content {
	m := map[string]any{
		"title": slug, "slug": slug, "lang": lang,
		"date": time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for k, v := range meta {
		m[k] = v
	}
	return content.New(s, content.KindArticle, source, "", m)
}

func TestSplitTranslationsByLang(t *testing.T) {
	s := testSettings(t, nil)
	en := langArticle(s, "a-en.md", "a", "en", nil)
	de := langArticle(s, "a-de.md", "a", "de", nil)
	solo := langArticle(s, "b.md", "b", "en", nil)

	originals, translations := splitTranslations(
		[]*content.Content{en, de, solo}, []string{"slug"}, "en", quietLogger())

	require.Equal(t, []*content.Content{en, solo}, originals)
	require.Equal(t, []*content.Content{de}, translations)

	// Translation wiring is symmetric within the group.
	require.Equal(t, []*content.Content{de}, en.Translations)
	require.Equal(t, []*content.Content{en}, de.Translations)
	require.Empty(t, solo.Translations)
}

func TestSplitTranslationsExplicitFlagWins(t *testing.T) {
	s := testSettings(t, nil)
	// Both share the default language; the flagged one yields.
	first := langArticle(s, "a1.md", "a", "en", nil)
	second := langArticle(s, "a2.md", "a", "en", map[string]any{"translation": true})

	originals, translations := splitTranslations(
		[]*content.Content{first, second}, []string{"slug"}, "en", quietLogger())

	require.Equal(t, []*content.Content{first}, originals)
	require.Equal(t, []*content.Content{second}, translations)
}

func TestSplitTranslationsNoDefaultLangMember(t *testing.T) {
	s := testSettings(t, nil)
	de := langArticle(s, "a-de.md", "a", "de", nil)
	fr := langArticle(s, "a-fr.md", "a", "fr", nil)

	originals, translations := splitTranslations(
		[]*content.Content{de, fr}, []string{"slug"}, "en", quietLogger())

	// With no default-language member every unflagged candidate counts as
	// an original.
	require.Len(t, originals, 2)
	require.Empty(t, translations)
}

func TestSplitTranslationsAllFlagged(t *testing.T) {
	s := testSettings(t, nil)
	de := langArticle(s, "a-de.md", "a", "de", map[string]any{"translation": true})
	fr := langArticle(s, "a-fr.md", "a", "fr", map[string]any{"translation": true})

	originals, _ := splitTranslations(
		[]*content.Content{de, fr}, []string{"slug"}, "en", quietLogger())

	require.NotEmpty(t, originals, "a group must never lose all of its members")
}

func TestSplitTranslationsDisabled(t *testing.T) {
	s := testSettings(t, nil)
	en := langArticle(s, "a-en.md", "a", "en", nil)
	de := langArticle(s, "a-de.md", "a", "de", nil)

	originals, translations := splitTranslations(
		[]*content.Content{en, de}, nil, "en", quietLogger())

	require.Equal(t, []*content.Content{en, de}, originals)
	require.Empty(t, translations)
	require.Empty(t, en.Translations)
}

func TestTranslationIDForms(t *testing.T) {
	require.Nil(t, translationID(nil))
	require.Nil(t, translationID(""))
	require.Equal(t, []string{"slug"}, translationID("slug"))
	require.Equal(t, []string{"slug", "lang"}, translationID([]any{"slug", "lang"}))
}
