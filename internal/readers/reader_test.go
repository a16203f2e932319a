package readers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/settings"
	"git.home.luguber.info/inful/sitegen/internal/signals"
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

func writeSource(t *testing.T, s *settings.Settings, rel, body string) {
	t.Helper()
	full := filepath.Join(s.Path, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
}

func TestReadMarkdownFile(t *testing.T) {
	s := testSettings(t, nil)
	writeSource(t, s, "posts/hello.md", `---
Title: Hello World
Date: 2020-01-02
Tags: go, web
---
Some **bold** text.
`)
	reg := NewRegistry(s)
	c, err := reg.ReadFile(s.Path, "posts/hello.md", content.KindArticle, "", content.NewContext(), signals.NewBus())
	require.NoError(t, err)

	require.Equal(t, "Hello World", c.Title)
	require.Equal(t, 2020, c.Date.Year())
	require.Len(t, c.Tags, 2)
	require.Equal(t, "go", c.Tags[0].Name)
	require.Contains(t, c.Body(), "<strong>bold</strong>")
	require.NotEmpty(t, c.Summary, "a summary is derived from the body")
	require.NoError(t, c.Validate())
}

func TestReadHTMLFile(t *testing.T) {
	s := testSettings(t, nil)
	writeSource(t, s, "page.html", `<html>
<head>
<title>Raw Page</title>
<meta name="date" content="2020-03-04"/>
</head>
<body><p>kept as-is</p></body>
</html>
`)
	reg := NewRegistry(s)
	c, err := reg.ReadFile(s.Path, "page.html", content.KindPage, "", content.NewContext(), signals.NewBus())
	require.NoError(t, err)

	require.Equal(t, "Raw Page", c.Title)
	require.Contains(t, c.Body(), "<p>kept as-is</p>")
}

func TestReadFileUnknownExtension(t *testing.T) {
	s := testSettings(t, nil)
	writeSource(t, s, "doc.xyz", "content")
	reg := NewRegistry(s)

	_, err := reg.ReadFile(s.Path, "doc.xyz", content.KindArticle, "", content.NewContext(), nil)
	require.Error(t, err)
}

func TestReadFileStatic(t *testing.T) {
	s := testSettings(t, nil)
	writeSource(t, s, "images/pic.png", "\x89PNG")
	reg := NewRegistry(s)

	c, err := reg.ReadFile(s.Path, "images/pic.png", content.KindStatic, FormatStatic, content.NewContext(), nil)
	require.NoError(t, err)
	require.Equal(t, content.KindStatic, c.Kind)
	require.Equal(t, "images/pic.png", c.SaveAs())
}

func TestFilenameMetadataDate(t *testing.T) {
	s := testSettings(t, nil)
	writeSource(t, s, "2020-05-06-entry.md", `---
Title: Dated
---
body
`)
	reg := NewRegistry(s)
	c, err := reg.ReadFile(s.Path, "2020-05-06-entry.md", content.KindArticle, "", content.NewContext(), nil)
	require.NoError(t, err)
	require.Equal(t, 2020, c.Date.Year())
	require.Equal(t, 5, int(c.Date.Month()))
}

func TestReaderMetadataBeatsFilename(t *testing.T) {
	s := testSettings(t, nil)
	writeSource(t, s, "2020-05-06-entry.md", `---
Title: Dated
Date: 2021-01-01
---
body
`)
	reg := NewRegistry(s)
	c, err := reg.ReadFile(s.Path, "2020-05-06-entry.md", content.KindArticle, "", content.NewContext(), nil)
	require.NoError(t, err)
	require.Equal(t, 2021, c.Date.Year())
}

func TestSkipStatusYieldsStub(t *testing.T) {
	s := testSettings(t, nil)
	writeSource(t, s, "skipped.md", `---
Title: Skipped
Status: skip
---
body
`)
	reg := NewRegistry(s)
	c, err := reg.ReadFile(s.Path, "skipped.md", content.KindArticle, "", content.NewContext(), nil)
	require.NoError(t, err)
	require.True(t, c.IsSkip())
}

func TestIntrasiteMarkersSurviveMarkdown(t *testing.T) {
	s := testSettings(t, nil)
	writeSource(t, s, "linking.md", `---
Title: Linking
Date: 2020-01-01
---
[other]({filename}other.md) and ![pic]({static}images/pic.png)
`)
	reg := NewRegistry(s)
	c, err := reg.ReadFile(s.Path, "linking.md", content.KindArticle, "", content.NewContext(), nil)
	require.NoError(t, err)
	// Goldmark percent-escapes braces in URL attributes; either spelling
	// is a marker the resolver accepts.
	require.Regexp(t, `href="(\{|%7B)filename(\}|%7D)other\.md"`, c.Body())
	require.Regexp(t, `src="(\{|%7B)static(\}|%7D)images/pic\.png"`, c.Body())
}
