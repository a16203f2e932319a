// Package generators walks the content tree, builds the shared context
// and renders output files through the writer. Generators run in two
// phases: every generator contributes to the context before any of them
// renders output.
package generators

import (
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/cache"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/readers"
	"git.home.luguber.info/inful/sitegen/internal/settings"
	"git.home.luguber.info/inful/sitegen/internal/signals"
	"git.home.luguber.info/inful/sitegen/internal/templates"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
	"git.home.luguber.info/inful/sitegen/internal/writer"
)

// Generator is one contributor to the build.
type Generator interface {
	Name() string
	GenerateContext(ctx *content.Context) error
	GenerateOutput(ctx *content.Context, w *writer.Writer) error
}

// base carries the collaborators every generator needs.
type base struct {
	settings *settings.Settings
	env      templates.Environment
	readers  *readers.Registry
	bus      *signals.Bus
	logger   *slog.Logger
	// cache is the generator-layer content cache; nil when caching
	// happens at the reader layer.
	cache *cache.FileStampCache
}

// readSources turns source files into content objects, going through the
// generator-layer cache when it is enabled. Failed paths are recorded in
// the generated map with a nil value so the link resolver can tell
// "seen, failed" from "unknown".
func (b *base) readSources(ctx *content.Context, files []string, kind content.Kind) []*content.Content {
	var out []*content.Content
	for _, f := range files {
		c, ok := b.readOne(ctx, f, kind)
		if !ok {
			ctx.Generated[f] = nil
			continue
		}
		if c == nil {
			continue // skip stub
		}
		ctx.Generated[c.SourcePath] = c
		out = append(out, c)
	}
	return out
}

// readOne returns (nil, true) for an intentional skip and (nil, false)
// for a failed path.
func (b *base) readOne(ctx *content.Context, relPath string, kind content.Kind) (*content.Content, bool) {
	if b.cache != nil {
		if data := b.cache.GetCachedData(b.fullPath(relPath), nil); data != nil {
			if snap, ok := cache.Decode[content.Snapshot](data); ok {
				return content.FromSnapshot(b.settings, snap), true
			}
		}
	}

	c, err := b.readers.ReadFile(b.settings.Path, relPath, kind, "", ctx, b.bus)
	if err != nil {
		b.logger.Warn("could not process content", logfields.Source(relPath), logfields.Error(err))
		return nil, false
	}
	if c.IsSkip() {
		b.logger.Debug("skipping content on reader request", logfields.Source(relPath))
		return nil, true
	}
	if err := c.Validate(); err != nil {
		b.logger.Warn("invalid content", logfields.Source(relPath), logfields.Error(err))
		return nil, false
	}

	if b.cache != nil {
		if data, err := cache.Encode(c.Snapshot()); err == nil {
			b.cache.CacheData(b.fullPath(relPath), data)
		}
	}
	return c, true
}

func (b *base) fullPath(relPath string) string {
	return filepath.Join(b.settings.Path, filepath.FromSlash(relPath))
}

// getFiles walks each entry of paths below the content root and returns
// the matching files as sorted content-root-relative POSIX paths.
// Directories whose name or relative path matches an exclude entry are
// pruned, ignore-globs apply to both directory and file names, and a nil
// extension set admits every file.
func (b *base) getFiles(paths, excludes []string, extensions []string) ([]string, error) {
	ignore := b.settings.Strings("IGNORE_FILES")
	excluded := sets.New[string]()
	for _, e := range excludes {
		excluded.Add(filepath.ToSlash(e))
	}
	extSet := sets.New[string]()
	for _, e := range extensions {
		extSet.Add(strings.ToLower(strings.TrimPrefix(e, ".")))
	}

	found := sets.New[string]()
	for _, p := range paths {
		root := filepath.Join(b.settings.Path, filepath.FromSlash(p))
		info, err := os.Stat(root)
		if err != nil {
			b.logger.Warn("skipping missing content path", slog.String("path", p))
			continue
		}
		if !info.IsDir() {
			found.Add(filepath.ToSlash(p))
			continue
		}
		err = filepath.WalkDir(root, func(fp string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, relErr := filepath.Rel(b.settings.Path, fp)
			if relErr != nil {
				return relErr
			}
			rel = filepath.ToSlash(rel)
			if d.IsDir() {
				if fp == root {
					return nil
				}
				if excluded.Has(rel) || excluded.Has(d.Name()) || matchesGlob(ignore, d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if matchesGlob(ignore, d.Name()) {
				return nil
			}
			if len(extSet) > 0 {
				ext := strings.ToLower(strings.TrimPrefix(path.Ext(rel), "."))
				if !extSet.Has(ext) {
					return nil
				}
			}
			found.Add(rel)
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryFileSystem, "walking content path").
				WithContext("path", p).Build()
		}
	}

	out := make([]string, 0, len(found))
	for f := range found {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

func matchesGlob(globs []string, name string) bool {
	for _, g := range globs {
		if ok, _ := path.Match(g, name); ok {
			return true
		}
	}
	return false
}

// templateVars merges settings, the shared context and per-call extras
// into one template variable mapping, later sources winning.
func (b *base) templateVars(ctx *content.Context, extras map[string]any) map[string]any {
	vars := make(map[string]any, len(b.settings.Raw())+24)
	for k, v := range b.settings.Raw() {
		vars[k] = v
	}
	for k, v := range ctx.TemplateVars() {
		vars[k] = v
	}
	for k, v := range extras {
		vars[k] = v
	}
	return vars
}

// template loads name, honouring a per-content template override.
func (b *base) template(c *content.Content, fallback string) (*templates.Template, error) {
	name := fallback
	if c != nil && c.Template != "" {
		name = c.Template
	}
	return b.env.GetTemplate(name)
}

// orderContents sorts items by an order-by expression: an attribute name,
// "date", "basename", or any of those with a "reversed-" prefix. The
// sort is stable so equal keys keep their input order.
func orderContents(items []*content.Content, orderBy string) {
	reversed := strings.HasPrefix(orderBy, "reversed-")
	key := strings.TrimPrefix(orderBy, "reversed-")
	if key == "" {
		return
	}
	less := func(a, c *content.Content) bool {
		switch key {
		case "date":
			return a.Date.Before(c.Date)
		case "basename":
			return path.Base(a.SourcePath) < path.Base(c.SourcePath)
		default:
			return a.AttrString(key) < c.AttrString(key)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if reversed {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

// partition splits contents by publication status.
func partition(items []*content.Content) (published, drafts, hidden []*content.Content) {
	for _, c := range items {
		switch c.Status {
		case content.StatusDraft:
			drafts = append(drafts, c)
		case content.StatusHidden:
			hidden = append(hidden, c)
		default:
			published = append(published, c)
		}
	}
	return published, drafts, hidden
}

// perPageFor reports the page size for a template name when it is listed
// in PAGINATED_TEMPLATES; a listed name without an explicit size uses
// DEFAULT_PAGINATION.
func (b *base) perPageFor(name string) (*int, bool) {
	paginated := b.settings.PaginatedTemplates()
	size, ok := paginated[name]
	if !ok {
		return nil, false
	}
	if size == nil {
		d := b.settings.Int("DEFAULT_PAGINATION")
		size = &d
	}
	return size, true
}
