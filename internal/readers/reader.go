// Package readers dispatches source files to format readers and turns
// their raw (body, metadata) output into constructed content objects. The
// core imposes no syntax; readers return an HTML body and a metadata map
// with lowercased keys.
package readers

import (
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/cache"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/settings"
	"git.home.luguber.info/inful/sitegen/internal/signals"
)

// FormatStatic is the pseudo-format for assets that bypass body parsing.
const FormatStatic = "static"

// Reader parses one source format.
type Reader interface {
	// Extensions lists the path suffixes this reader claims, without dots.
	Extensions() []string
	// Enabled reports whether the backing parser is available.
	Enabled() bool
	// Read parses a file into an HTML body and raw metadata.
	Read(path string) (body string, metadata map[string]any, err error)
	// ProcessMetadata normalizes one raw metadata value for this format.
	ProcessMetadata(name string, value any) (any, error)
}

// cachedParse is the reader-layer cache value.
type cachedParse struct {
	Body     string
	Metadata map[string]any
}

// Registry resolves readers by extension and drives the read workflow.
type Registry struct {
	settings *settings.Settings
	byExt    map[string]Reader
	cache    *cache.FileStampCache
	logger   *slog.Logger
}

// NewRegistry builds a registry with the default readers registered and
// the reader-layer cache attached when that layer is configured.
func NewRegistry(s *settings.Settings) *Registry {
	r := &Registry{
		settings: s,
		byExt:    map[string]Reader{},
		logger:   slog.Default(),
	}
	if s.CachingLayer == settings.LayerReader {
		r.cache = cache.New(s, "readers")
	}
	for _, reader := range []Reader{NewMarkdownReader(s), NewHTMLReader(s)} {
		if reader.Enabled() {
			for _, ext := range reader.Extensions() {
				r.Register(ext, reader)
			}
		}
	}
	return r
}

// Register binds an extension (matched case-insensitively against the final
// path suffix) to a reader, replacing any previous binding.
func (r *Registry) Register(ext string, reader Reader) {
	r.byExt[strings.ToLower(strings.TrimPrefix(ext, "."))] = reader
}

// Extensions returns every extension with an enabled reader.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	return out
}

// SaveCache flushes the reader-layer cache if one is attached.
func (r *Registry) SaveCache() {
	if r.cache != nil {
		r.cache.SaveCache()
	}
}

// readerFor resolves the reader by explicit format or path extension.
func (r *Registry) readerFor(relPath, format string) (Reader, error) {
	ext := format
	if ext == "" {
		ext = strings.TrimPrefix(path.Ext(relPath), ".")
	}
	reader, ok := r.byExt[strings.ToLower(ext)]
	if !ok {
		return nil, errors.ReaderError("no reader for file").
			WithContext("source", relPath).WithContext("extension", ext).Build()
	}
	return reader, nil
}

// ReadFile parses one source file into a constructed Content of the given
// kind. The metadata stack is, in increasing precedence: DEFAULT_METADATA,
// path-derived metadata, filename-derived metadata, reader metadata. The
// preread signal fires before parsing, the context signal after the
// metadata is finalized. A status of "skip" yields a skip stub.
func (r *Registry) ReadFile(basePath, relPath string, kind content.Kind, format string, ctx *content.Context, bus *signals.Bus) (*content.Content, error) {
	fullPath := filepath.Join(basePath, filepath.FromSlash(relPath))

	if format == FormatStatic || kind == content.KindStatic {
		meta := r.baseMetadata(relPath)
		processed, err := processMetadata(meta, nil, r.settings)
		if err != nil {
			return nil, err
		}
		return content.New(r.settings, content.KindStatic, relPath, "", processed), nil
	}

	reader, err := r.readerFor(relPath, format)
	if err != nil {
		return nil, err
	}

	if bus != nil {
		if err := bus.Send(signals.ContentPreread, &signals.Payload{
			Settings: r.settings, Context: ctx, Path: relPath,
		}); err != nil {
			return nil, err
		}
	}

	body, readerMeta, err := r.readThroughCache(reader, fullPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryReader, "failed to read source file").
			WithContext("source", relPath).Build()
	}

	meta := r.baseMetadata(relPath)
	for k, v := range readerMeta {
		meta[strings.ToLower(k)] = v
	}
	processed, err := processMetadata(meta, reader, r.settings)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryReader, "failed to process metadata").
			WithContext("source", relPath).Build()
	}

	if bus != nil {
		if err := bus.Send(signals.ContentContext, &signals.Payload{
			Settings: r.settings, Context: ctx, Path: relPath, Metadata: processed,
		}); err != nil {
			return nil, err
		}
	}

	if status, _ := processed["status"].(string); status == string(content.StatusSkip) {
		r.logger.Debug("reader signalled skip", logfields.Source(relPath))
		return content.NewSkipStub(r.settings, kind, relPath), nil
	}

	c := content.New(r.settings, kind, relPath, body, processed)
	if c.Summary == "" && body != "" {
		c.Summary = content.DeriveSummary(body, r.settings.Int("SUMMARY_MAX_LENGTH"))
	}
	return c, nil
}

// readThroughCache memoizes the reader's (body, metadata) pair keyed by the
// file stamp when the reader cache layer is active.
func (r *Registry) readThroughCache(reader Reader, fullPath string) (string, map[string]any, error) {
	if r.cache != nil {
		if blob := r.cache.GetCachedData(fullPath, nil); blob != nil {
			if parsed, ok := cache.Decode[cachedParse](blob); ok {
				return parsed.Body, parsed.Metadata, nil
			}
		}
	}
	body, meta, err := reader.Read(fullPath)
	if err != nil {
		return "", nil, err
	}
	if r.cache != nil {
		if blob, err := cache.Encode(cachedParse{Body: body, Metadata: meta}); err == nil {
			r.cache.CacheData(fullPath, blob)
		}
	}
	return body, meta, nil
}

// baseMetadata builds the low-precedence metadata layers: defaults, then
// path-derived, then filename-derived named groups.
func (r *Registry) baseMetadata(relPath string) map[string]any {
	meta := map[string]any{}
	for k, v := range r.settings.AnyMap("DEFAULT_METADATA") {
		meta[strings.ToLower(k)] = v
	}
	if re := r.settings.PathMetadata; re != nil {
		applyNamedGroups(meta, re.FindStringSubmatch(relPath), re.SubexpNames())
	}
	if re := r.settings.FilenameMetadata; re != nil {
		base := path.Base(relPath)
		base = strings.TrimSuffix(base, path.Ext(base))
		applyNamedGroups(meta, re.FindStringSubmatch(base), re.SubexpNames())
	}
	return meta
}

func applyNamedGroups(meta map[string]any, match []string, names []string) {
	if match == nil {
		return
	}
	for i, name := range names {
		if name == "" || i >= len(match) || match[i] == "" {
			continue
		}
		meta[strings.ToLower(name)] = match[i]
	}
}
