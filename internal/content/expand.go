package content

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"git.home.luguber.info/inful/sitegen/internal/errors"
)

// placeholderPattern matches {name} and {name:format} placeholders in URL
// and save-as templates. The format part is only honored for date-valued
// placeholders, where it is a strftime layout.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)(?::([^}]*))?\}`)

// ExpandTemplate substitutes placeholders using lookup. Date-valued
// placeholders with a format, e.g. {date:%Y/%b}, are rendered with
// strftime. An unknown placeholder yields an error naming it.
func ExpandTemplate(tmpl string, lookup func(name string) (any, bool)) (string, error) {
	var expandErr error
	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		groups := placeholderPattern.FindStringSubmatch(match)
		name, format := groups[1], groups[2]
		value, ok := lookup(name)
		if !ok {
			if expandErr == nil {
				expandErr = errors.ConfigError("unknown placeholder in URL template").
					WithContext("template", tmpl).WithContext("placeholder", name).Build()
			}
			return match
		}
		switch v := value.(type) {
		case time.Time:
			if format == "" {
				format = "%Y-%m-%d"
			}
			return strftime.Format(format, v)
		case string:
			return v
		case fmt.Stringer:
			return v.String()
		default:
			return fmt.Sprintf("%v", v)
		}
	})
	if expandErr != nil {
		return "", expandErr
	}
	return out, nil
}

// posixPath converts a filesystem path to forward-slash form. All paths are
// held POSIX internally and converted at filesystem boundaries.
func posixPath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
