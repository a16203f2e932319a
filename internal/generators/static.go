package generators

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/readers"
	"git.home.luguber.info/inful/sitegen/internal/settings"
	"git.home.luguber.info/inful/sitegen/internal/signals"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
	"git.home.luguber.info/inful/sitegen/internal/writer"
)

// StaticGenerator copies static assets and theme static files into the
// output tree. It must run its context phase after the article and page
// generators so that body-referenced static links are known.
type StaticGenerator struct {
	base
}

func NewStatic(s *settings.Settings, reg *readers.Registry, bus *signals.Bus, logger *slog.Logger) *StaticGenerator {
	return &StaticGenerator{base: base{
		settings: s,
		readers:  reg,
		bus:      bus,
		logger:   logger.With(logfields.Generator("static")),
	}}
}

func (g *StaticGenerator) Name() string { return "static" }

func (g *StaticGenerator) GenerateContext(ctx *content.Context) error {
	if err := g.bus.Send(signals.StaticGeneratorInit, &signals.Payload{Settings: g.settings, Context: ctx}); err != nil {
		return err
	}

	files, err := g.getFiles(
		g.settings.Strings("STATIC_PATHS"),
		g.settings.Strings("STATIC_EXCLUDES"),
		nil)
	if err != nil {
		return err
	}
	found := sets.New(files...)
	for link := range ctx.StaticLinks {
		found.Add(link)
	}

	ordered := make([]string, 0, len(found))
	for f := range found {
		ordered = append(ordered, f)
	}
	sort.Strings(ordered)

	excludeSources := g.settings.Bool("STATIC_EXCLUDE_SOURCES")
	for _, f := range ordered {
		if excludeSources {
			if _, claimed := ctx.Generated[f]; claimed {
				continue
			}
		}
		if _, ok := ctx.Static[f]; ok {
			continue
		}
		c, err := g.readers.ReadFile(g.settings.Path, f, content.KindStatic, readers.FormatStatic, ctx, g.bus)
		if err != nil {
			g.logger.Warn("could not process static file", logfields.Source(f), logfields.Error(err))
			continue
		}
		ctx.Static[c.SourcePath] = c
		ctx.StaticFiles = append(ctx.StaticFiles, c)
	}

	g.logger.Info("processed static files", logfields.Count(len(ctx.StaticFiles)))
	return g.bus.Send(signals.StaticGeneratorFinalized, &signals.Payload{Settings: g.settings, Context: ctx})
}

func (g *StaticGenerator) GenerateOutput(ctx *content.Context, _ *writer.Writer) error {
	if err := g.copyThemeStatic(); err != nil {
		return err
	}
	createLinks := g.settings.Bool("STATIC_CREATE_LINKS")
	checkModified := g.settings.Bool("STATIC_CHECK_IF_MODIFIED")
	for _, c := range ctx.StaticFiles {
		src := filepath.Join(g.settings.Path, filepath.FromSlash(c.SourcePath))
		dest := filepath.Join(g.settings.OutputPath, filepath.FromSlash(c.SaveAs()))
		if err := g.placeFile(src, dest, createLinks, checkModified); err != nil {
			return err
		}
	}
	return nil
}

func (g *StaticGenerator) copyThemeStatic() error {
	if g.settings.ThemePath == "" {
		// The bundled theme carries no static assets.
		return nil
	}
	destRoot := filepath.Join(g.settings.OutputPath, g.settings.Str("THEME_STATIC_DIR"))
	for _, p := range g.settings.Strings("THEME_STATIC_PATHS") {
		srcRoot := filepath.Join(g.settings.ThemePath, filepath.FromSlash(p))
		if _, err := os.Stat(srcRoot); err != nil {
			continue
		}
		err := filepath.WalkDir(srcRoot, func(fp string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			rel, relErr := filepath.Rel(srcRoot, fp)
			if relErr != nil {
				return relErr
			}
			return copyFile(fp, filepath.Join(destRoot, rel))
		})
		if err != nil {
			return errors.Wrap(err, errors.CategoryFileSystem, "copying theme static files").
				WithContext("path", p).Build()
		}
	}
	return nil
}

// placeFile materializes src at dest by hardlink, symlink or byte copy.
func (g *StaticGenerator) placeFile(src, dest string, createLinks, checkModified bool) error {
	update, err := updateRequired(src, dest, createLinks, checkModified)
	if err != nil {
		return err
	}
	if !update {
		return nil
	}
	if err := prepareDest(dest); err != nil {
		return err
	}
	if createLinks {
		if err := os.Link(src, dest); err == nil {
			return nil
		}
		if err := os.Symlink(src, dest); err == nil {
			g.logger.Debug("hardlink failed, created symlink", logfields.Path(dest))
			return nil
		}
	}
	if err := copyFile(src, dest); err != nil {
		return errors.Wrap(err, errors.CategoryFileSystem, "copying static file").
			WithContext("path", dest).Build()
	}
	return nil
}

// updateRequired decides whether dest must be rewritten from src.
func updateRequired(src, dest string, createLinks, checkModified bool) (bool, error) {
	destInfo, err := os.Lstat(dest)
	if err != nil {
		return true, nil // missing or unreadable, rewrite
	}
	if createLinks {
		if destInfo.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(dest)
			if err == nil && target == src {
				return false, nil
			}
			return true, nil
		}
		srcInfo, err := os.Stat(src)
		if err != nil {
			return false, errors.Wrap(err, errors.CategoryFileSystem, "reading static source").
				WithContext("path", src).Build()
		}
		return !os.SameFile(srcInfo, destInfo), nil
	}
	if checkModified {
		srcInfo, err := os.Stat(src)
		if err != nil {
			return false, errors.Wrap(err, errors.CategoryFileSystem, "reading static source").
				WithContext("path", src).Build()
		}
		// Skip when dest is at least as fresh, up to filesystems that
		// truncate timestamps to microseconds.
		return srcInfo.ModTime().Sub(destInfo.ModTime()) > time.Microsecond, nil
	}
	return true, nil
}

// prepareDest creates the parent directories and clears anything that
// would block the destination path, including a regular file sitting
// where a directory is needed.
func prepareDest(dest string) error {
	dir := filepath.Dir(dest)
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		if err := os.Remove(dir); err != nil {
			return errors.Wrap(err, errors.CategoryFileSystem, "clearing blocked output directory").
				WithContext("path", dir).Build()
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.CategoryFileSystem, "creating output directory").
			WithContext("path", dir).Build()
	}
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.CategoryFileSystem, "clearing output file").
			WithContext("path", dest).Build()
	}
	return nil
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
