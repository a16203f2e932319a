package content

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/sitegen/internal/settings"
)

// asciiFold decomposes to NFKD, strips combining marks and recomposes,
// then drops anything still outside ASCII.
var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL-safe slug from name. The per-family regex
// substitution table runs first, then the final normalization: lowercase
// unless preserveCase, ASCII-fold unless useUnicode. Slugify is idempotent.
func Slugify(name string, subs []settings.Substitution, preserveCase, useUnicode bool) string {
	out := name
	for _, sub := range subs {
		out = sub.Pattern.ReplaceAllString(out, sub.Repl)
	}
	if !useUnicode {
		if folded, _, err := transform.String(asciiFold, out); err == nil {
			out = folded
		}
		var b strings.Builder
		b.Grow(len(out))
		for _, r := range out {
			if r < 128 {
				b.WriteRune(r)
			}
		}
		out = b.String()
	}
	if !preserveCase {
		out = strings.ToLower(out)
	}
	return out
}

// SlugifyWith applies the settings-compiled table for the given family.
func SlugifyWith(s *settings.Settings, family settings.Family, name string) string {
	return Slugify(name, s.Substitutions[family],
		s.Bool("SLUGIFY_PRESERVE_CASE"), s.Bool("SLUGIFY_USE_UNICODE"))
}
