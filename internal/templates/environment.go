// Package templates loads and renders page templates. Templates are
// looked up first in the active theme's templates directory and then in
// the bundled "simple" theme, so a theme only needs to override the
// templates it cares about.
package templates

import (
	"bytes"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/settings"
)

// Prefixes pin a lookup to a single source, bypassing the usual
// theme-then-bundled chain.
const (
	prefixSimple = "!simple/"
	prefixTheme  = "!theme/"
)

// Template is a parsed template ready for rendering.
type Template struct {
	Name string
	tpl  *template.Template
}

// Render executes the template with the given variables.
func (t *Template) Render(vars map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, vars); err != nil {
		return nil, errors.Wrap(err, errors.CategoryTemplate, "render failed").Fatal().
			WithContext("template", t.Name).Build()
	}
	return buf.Bytes(), nil
}

// Environment resolves template names to renderable templates.
type Environment interface {
	// GetTemplate returns the template for name. The returned error is
	// a template classified error when the name cannot be resolved.
	GetTemplate(name string) (*Template, error)
}

// HTMLEnvironment implements Environment on html/template with a theme
// directory overlay on top of the bundled simple theme.
type HTMLEnvironment struct {
	settings *settings.Settings

	mu    sync.Mutex
	cache map[string]*Template
	funcs template.FuncMap
}

// NewEnvironment builds an environment for the configured theme. Extra
// functions are merged over the built-in ones and are available to all
// templates.
func NewEnvironment(s *settings.Settings, extra template.FuncMap) *HTMLEnvironment {
	funcs := builtinFuncs(s)
	for name, fn := range extra {
		funcs[name] = fn
	}
	return &HTMLEnvironment{
		settings: s,
		cache:    map[string]*Template{},
		funcs:    funcs,
	}
}

// GetTemplate resolves name through the theme chain, caching the parse.
func (e *HTMLEnvironment) GetTemplate(name string) (*Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.cache[name]; ok {
		return t, nil
	}
	t, err := e.load(name)
	if err != nil {
		return nil, err
	}
	e.cache[name] = t
	return t, nil
}

func (e *HTMLEnvironment) load(name string) (*Template, error) {
	switch {
	case strings.HasPrefix(name, prefixSimple):
		return e.loadBundled(name, strings.TrimPrefix(name, prefixSimple))
	case strings.HasPrefix(name, prefixTheme):
		return e.loadTheme(name, strings.TrimPrefix(name, prefixTheme))
	}
	if e.settings.ThemePath != "" {
		if t, err := e.loadTheme(name, name); err == nil {
			return t, nil
		} else if !errors.IsCategory(err, errors.CategoryTemplate) {
			return nil, err
		}
	}
	return e.loadBundled(name, name)
}

func (e *HTMLEnvironment) loadTheme(fullName, base string) (*Template, error) {
	if e.settings.ThemePath == "" {
		return e.loadBundled(fullName, base)
	}
	dir := filepath.Join(e.settings.ThemePath, "templates")
	for _, ext := range e.extensions() {
		path := filepath.Join(dir, base+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrap(err, errors.CategoryFileSystem, "reading template").
				WithContext("path", path).Build()
		}
		return e.parse(fullName, string(data))
	}
	return nil, notFound(fullName, dir)
}

func (e *HTMLEnvironment) loadBundled(fullName, base string) (*Template, error) {
	for _, ext := range e.extensions() {
		data, err := fs.ReadFile(simpleTheme, "simple/"+base+ext)
		if err != nil {
			continue
		}
		return e.parse(fullName, string(data))
	}
	return nil, notFound(fullName, "simple")
}

func (e *HTMLEnvironment) extensions() []string {
	exts := e.settings.Strings("TEMPLATE_EXTENSIONS")
	if len(exts) == 0 {
		exts = []string{".html"}
	}
	return exts
}

func (e *HTMLEnvironment) parse(name, text string) (*Template, error) {
	tpl, err := template.New(name).Funcs(e.funcs).Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryTemplate, "parse failed").Fatal().
			WithContext("template", name).Build()
	}
	return &Template{Name: name, tpl: tpl}, nil
}

func notFound(name, searched string) error {
	return errors.TemplateError("template not found").
		WithContext("template", name).
		WithContext("searched", searched).Build()
}
