// Package links rewrites intra-site references in content bodies. A
// reference is an HTML attribute value carrying a marker recognized by the
// configured regex ({what}target or |what|target by default); the resolver
// replaces it with the final URL of the referenced document, asset,
// taxonomy token or index.
package links

import (
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/settings"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// linkAttrs are the HTML attributes scanned for intra-site references.
const linkAttrs = `href|src|poster|data|cite|formaction|action|content`

type memoKey struct {
	siteURL string
	source  string
}

// Resolver rewrites intra-site references against the shared context. It
// memoizes resolved bodies per (siteurl, content) pair so the implicit
// first pass and the later metadata-field pass stay cheap.
type Resolver struct {
	settings *settings.Settings
	ctx      *content.Context
	logger   *slog.Logger

	// One composed pattern per quote style; RE2 has no backreferences.
	patterns []*regexp.Regexp
	memo     map[memoKey]string
	warned   sets.Set[string]
}

// NewResolver composes the scan patterns from the settings marker regex.
func NewResolver(s *settings.Settings, ctx *content.Context) *Resolver {
	marker := s.LinkRegex.String()
	var patterns []*regexp.Regexp
	for _, quote := range []string{`"`, `'`} {
		composed := fmt.Sprintf(
			`(?P<markup><[^>]*\s(?:%s)\s*=\s*)(?P<quote>%s)%s(?P<value>[^%s]*)%s`,
			linkAttrs, quote, marker, quote, quote)
		patterns = append(patterns, regexp.MustCompile(composed))
	}
	return &Resolver{
		settings: s,
		ctx:      ctx,
		logger:   slog.Default(),
		patterns: patterns,
		memo:     map[memoKey]string{},
		warned:   sets.New[string](),
	}
}

// ResolveBody returns the content body with intra-site references
// rewritten for the given siteurl. Results are memoized per
// (siteurl, content).
func (r *Resolver) ResolveBody(c *content.Content, siteURL string) string {
	key := memoKey{siteURL: siteURL, source: c.SourcePath}
	if resolved, ok := r.memo[key]; ok {
		return resolved
	}
	resolved := r.ResolveText(c.Body(), c, siteURL)
	r.memo[key] = resolved
	return resolved
}

// ResolveText rewrites intra-site references in an arbitrary HTML fragment
// belonging to c (used for summary and other formatted metadata fields).
func (r *Resolver) ResolveText(text string, c *content.Content, siteURL string) string {
	out := text
	for _, pattern := range r.patterns {
		out = replaceAllSubmatchFunc(pattern, out, func(groups map[string]string, whole string) string {
			markup, quote := groups["markup"], groups["quote"]
			what, value := groups["what"], groups["value"]
			resolved, ok := r.resolve(what, value, c, siteURL)
			if !ok {
				return whole
			}
			return markup + quote + resolved + quote
		})
	}
	return out
}

// CollectStaticLinks scans a body for {static}/{attach} targets and records
// their source paths in the context's global static-link set, so the static
// generator discovers them even when not listed under a static path.
func (r *Resolver) CollectStaticLinks(body string, c *content.Content) {
	for _, pattern := range r.patterns {
		replaceAllSubmatchFunc(pattern, body, func(groups map[string]string, whole string) string {
			if what := groups["what"]; what == "static" || what == "attach" {
				target, _, _ := splitTarget(groups["value"])
				r.ctx.StaticLinks.Add(r.sourcePath(target, c))
			}
			return whole
		})
	}
}

// resolve rewrites one reference. The original URL's query string and
// fragment are preserved.
func (r *Resolver) resolve(what, rawValue string, c *content.Content, siteURL string) (string, bool) {
	target, suffix, _ := splitTarget(rawValue)

	switch what {
	case "filename":
		found, seen := r.lookupContent(target, c, r.ctx.Generated)
		if found == nil {
			// Legacy behavior: {filename} may still point at a static asset.
			if st, _ := r.lookupContent(target, c, r.ctx.Static); st != nil {
				r.warnOnce("filename-static:"+target,
					"{filename} pointing at a static file is deprecated, use {static}",
					logfields.Source(c.SourcePath), logfields.Path(target))
				return r.join(siteURL, st.URL(), c) + suffix, true
			}
			r.warnMiss(what, target, c, seen)
			return "", false
		}
		return r.join(siteURL, found.URL(), c) + suffix, true

	case "static", "attach":
		found, seen := r.lookupContent(target, c, r.ctx.Static)
		if found == nil {
			r.warnMiss(what, target, c, seen)
			return "", false
		}
		if what == "attach" {
			if err := found.AttachTo(c); err != nil {
				r.logger.Warn("attach refused", logfields.Source(c.SourcePath),
					logfields.Path(found.SourcePath), logfields.Error(err))
			}
		}
		return r.join(siteURL, found.URL(), c) + suffix, true

	case "tag":
		return r.join(siteURL, content.NewTag(target, r.settings).URL(), c) + suffix, true
	case "category":
		return r.join(siteURL, content.NewCategory(target, r.settings).URL(), c) + suffix, true
	case "author":
		return r.join(siteURL, content.NewAuthor(target, r.settings).URL(), c) + suffix, true
	case "index":
		return r.join(siteURL, r.settings.Str("INDEX_SAVE_AS"), c) + suffix, true

	default:
		r.warnOnce("what:"+what, "unknown intra-site link keyword, leaving URL unchanged",
			logfields.Source(c.SourcePath), slog.String("what", what))
		return "", false
	}
}

// lookupContent resolves a source-path reference: absolute targets are
// rooted at the content root, relative ones at the referring document's
// directory. On a miss the URL-decoded and HTML-unescaped spellings are
// tried. The second result reports "seen but failed".
func (r *Resolver) lookupContent(target string, c *content.Content, table map[string]*content.Content) (*content.Content, bool) {
	candidates := []string{target}
	if decoded, err := url.PathUnescape(target); err == nil && decoded != target {
		candidates = append(candidates, decoded)
	}
	if unescaped := htmlUnescape(target); unescaped != target {
		candidates = append(candidates, unescaped)
	}
	seen := false
	for _, cand := range candidates {
		key := r.sourcePath(cand, c)
		if found, ok := table[key]; ok {
			if found != nil {
				return found, true
			}
			seen = true
		}
	}
	return nil, seen
}

// sourcePath normalizes a reference target to a content-root-relative
// POSIX path.
func (r *Resolver) sourcePath(target string, c *content.Content) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(strings.TrimPrefix(target, "/"))
	}
	return path.Clean(path.Join(c.Dir(), target))
}

// join composes the final URL. In relative-URL mode the join is a path
// join so parent references work; otherwise a conventional URL join
// against the site URL with a trailing slash ensured.
func (r *Resolver) join(siteURL, target string, c *content.Content) string {
	var out string
	if r.settings.Bool("RELATIVE_URLS") {
		out = path.Join(siteURL, target)
	} else {
		base, err := url.Parse(strings.TrimRight(siteURL, "/") + "/")
		if err != nil {
			return target
		}
		ref, err := url.Parse(target)
		if err != nil {
			return target
		}
		out = base.ResolveReference(ref).String()
	}
	return strings.ReplaceAll(out, "\\", "/")
}

func (r *Resolver) warnMiss(what, target string, c *content.Content, seen bool) {
	reason := "unknown target"
	if seen {
		reason = "target was seen but failed to read"
	}
	r.warnOnce(what+":"+target,
		"unable to resolve intra-site link, leaving URL unchanged (further misses for this target are suppressed)",
		logfields.Source(c.SourcePath), slog.String("what", what),
		logfields.Path(target), slog.String("reason", reason))
}

func (r *Resolver) warnOnce(key, msg string, args ...any) {
	if r.warned.Has(key) {
		return
	}
	r.warned.Add(key)
	r.logger.Warn(msg, args...)
}

// splitTarget strips the query string and fragment off a reference target.
func splitTarget(value string) (target, suffix string, had bool) {
	if i := strings.IndexAny(value, "?#"); i >= 0 {
		return value[:i], value[i:], true
	}
	return value, "", false
}

func htmlUnescape(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return xhtml.UnescapeString(s)
}

// replaceAllSubmatchFunc is ReplaceAllStringFunc with access to named
// groups.
func replaceAllSubmatchFunc(re *regexp.Regexp, text string, repl func(groups map[string]string, whole string) string) string {
	names := re.SubexpNames()
	var b strings.Builder
	last := 0
	for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
		groups := map[string]string{}
		for i, name := range names {
			if name == "" {
				continue
			}
			start, end := idx[2*i], idx[2*i+1]
			if start >= 0 {
				groups[name] = text[start:end]
			}
		}
		whole := text[idx[0]:idx[1]]
		b.WriteString(text[last:idx[0]])
		b.WriteString(repl(groups, whole))
		last = idx[1]
	}
	b.WriteString(text[last:])
	return b.String()
}
