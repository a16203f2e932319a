package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/settings"
)

func articleMeta(title string, date time.Time) map[string]any {
	return map[string]any{"title": title, "date": date}
}

func TestNewArticleDefaults(t *testing.T) {
	s := testSettings(t, nil)
	c := New(s, KindArticle, "posts/hello-world.md", "<p>hi</p>", articleMeta("Hello World", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)))

	require.Equal(t, "hello-world", c.Slug)
	require.Equal(t, "en", c.Lang)
	require.Equal(t, StatusPublished, c.Status)
	require.NotNil(t, c.Category)
	require.Equal(t, "misc", c.Category.Name)
	require.Equal(t, "hello-world.html", c.URL())
	require.Equal(t, "hello-world.html", c.SaveAs())
	require.NoError(t, c.Validate())
}

func TestSlugFallsBackToFilename(t *testing.T) {
	s := testSettings(t, nil)
	c := New(s, KindPage, "pages/about-us.md", "", map[string]any{"title": ""})
	require.Equal(t, "about-us", c.Slug)
}

func TestNonDefaultLangTemplates(t *testing.T) {
	s := testSettings(t, nil)
	c := New(s, KindArticle, "hello.md", "", map[string]any{
		"title": "Hello", "date": time.Now(), "lang": "de",
	})
	require.Equal(t, "hello-de.html", c.URL())
	require.Equal(t, "hello-de.html", c.SaveAs())
}

func TestFutureDateBecomesDraft(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)

	s := testSettings(t, nil)
	c := New(s, KindArticle, "a.md", "", articleMeta("A", future))
	require.Equal(t, StatusPublished, c.Status, "future dates publish by default")

	s = testSettings(t, settings.Map{"WITH_FUTURE_DATES": false})
	c = New(s, KindArticle, "a.md", "", articleMeta("A", future))
	require.Equal(t, StatusDraft, c.Status)
	require.Equal(t, "drafts/a.html", c.SaveAs())
}

func TestUndatedDraftSortsLast(t *testing.T) {
	s := testSettings(t, nil)
	c := New(s, KindArticle, "a.md", "", map[string]any{"title": "A", "status": "draft"})
	require.Equal(t, 9999, c.Date.Year())
}

func TestValidateContract(t *testing.T) {
	s := testSettings(t, nil)
	now := time.Now()

	cases := []struct {
		name string
		c    *Content
	}{
		{"article without title", New(s, KindArticle, "a.md", "", map[string]any{"date": now})},
		{"article without date", New(s, KindArticle, "a.md", "", map[string]any{"title": "A"})},
		{"page without title", New(s, KindPage, "p.md", "", map[string]any{})},
		{"unknown status", New(s, KindArticle, "a.md", "", map[string]any{
			"title": "A", "date": now, "status": "bogus",
		})},
		{"save_as escapes output", New(s, KindArticle, "a.md", "", map[string]any{
			"title": "A", "date": now, "save_as": "../outside.html",
		})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.c.Validate()
			require.Error(t, err)
			require.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}
}

func TestArticleWithoutCategoryFails(t *testing.T) {
	s := testSettings(t, settings.Map{"DEFAULT_CATEGORY": ""})
	c := New(s, KindArticle, "a.md", "", articleMeta("A", time.Now()))
	require.Error(t, c.Validate())
}

func TestExpandTemplateDates(t *testing.T) {
	date := time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC)
	lookup := func(name string) (any, bool) {
		if name == "date" {
			return date, true
		}
		if name == "slug" {
			return "hello", true
		}
		return nil, false
	}

	out, err := ExpandTemplate("posts/{date:%Y}/{date:%b}/{slug}.html", lookup)
	require.NoError(t, err)
	require.Equal(t, "posts/2020/Jan/hello.html", out)

	out, err = ExpandTemplate("{date}/{slug}.html", lookup)
	require.NoError(t, err)
	require.Equal(t, "2020-01-15/hello.html", out)

	_, err = ExpandTemplate("{nope}.html", lookup)
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryConfig))
}

func TestAttachRelocatesAlongsideDocument(t *testing.T) {
	s := testSettings(t, nil)
	doc := New(s, KindArticle, "posts/entry.md", "", articleMeta("Entry", time.Now()))
	asset := New(s, KindStatic, "posts/images/diagram.png", "", map[string]any{})

	require.NoError(t, asset.AttachTo(doc))
	require.True(t, asset.Relocated())
	require.Equal(t, "images/diagram.png", asset.SaveAs())
	require.Equal(t, "images/diagram.png", asset.URL())
}

func TestAttachFirstWriterWins(t *testing.T) {
	s := testSettings(t, nil)
	first := New(s, KindArticle, "posts/first.md", "", articleMeta("First", time.Now()))
	second := New(s, KindArticle, "other/second.md", "", articleMeta("Second", time.Now()))
	asset := New(s, KindStatic, "posts/pic.png", "", map[string]any{})

	require.NoError(t, asset.AttachTo(first))
	placed := asset.SaveAs()

	require.NoError(t, asset.AttachTo(second))
	require.Equal(t, placed, asset.SaveAs(), "later attaches must not move the asset")
}

func TestAttachRefusedAfterLocationObserved(t *testing.T) {
	s := testSettings(t, nil)
	doc := New(s, KindArticle, "posts/entry.md", "", articleMeta("Entry", time.Now()))
	asset := New(s, KindStatic, "images/pic.png", "", map[string]any{})

	_ = asset.URL() // pins the location

	err := asset.AttachTo(doc)
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryLink))
}

func TestAttachRefusedWithUserOverride(t *testing.T) {
	s := testSettings(t, nil)
	doc := New(s, KindArticle, "posts/entry.md", "", articleMeta("Entry", time.Now()))
	asset := New(s, KindStatic, "images/pic.png", "", map[string]any{"save_as": "fixed/pic.png"})

	err := asset.AttachTo(doc)
	require.Error(t, err)
}

func TestAttachRejectsNonStatic(t *testing.T) {
	s := testSettings(t, nil)
	doc := New(s, KindArticle, "a.md", "", articleMeta("A", time.Now()))
	page := New(s, KindPage, "p.md", "", map[string]any{"title": "P"})

	require.Error(t, page.AttachTo(doc))
}

func TestSkipStubPanicsOnBody(t *testing.T) {
	s := testSettings(t, nil)
	stub := NewSkipStub(s, KindArticle, "a.md")
	require.True(t, stub.IsSkip())
	require.Panics(t, func() { _ = stub.Body() })
	require.Panics(t, func() { _ = stub.SaveAs() })
}

func TestMarksTranslation(t *testing.T) {
	s := testSettings(t, nil)
	c := New(s, KindArticle, "a.md", "", map[string]any{
		"title": "A", "date": time.Now(), "translation": "True",
	})
	require.True(t, c.MarksTranslation())

	c = New(s, KindArticle, "a.md", "", articleMeta("A", time.Now()))
	require.False(t, c.MarksTranslation())
}
