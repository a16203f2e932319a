package readers

import (
	"bytes"
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but never closed it.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// splitFrontmatter separates `---` delimited YAML frontmatter from the
// body. If the document does not start with a delimiter, had is false and
// body is the full input. Both `\n` and `\r\n` newline styles are handled.
func splitFrontmatter(data []byte) (fm, body []byte, had bool, err error) {
	nl := detectNewline(data)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(data, open) {
		return nil, data, false, nil
	}
	rest := data[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}
	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
}

// parseFrontmatter unmarshals raw YAML frontmatter into a metadata map
// with lowercased keys.
func parseFrontmatter(fm []byte) (map[string]any, error) {
	meta := map[string]any{}
	if len(fm) == 0 {
		return meta, nil
	}
	var raw map[string]any
	if err := yaml.Unmarshal(fm, &raw); err != nil {
		return nil, err
	}
	for k, v := range raw {
		meta[strings.ToLower(k)] = v
	}
	return meta, nil
}

func detectNewline(data []byte) string {
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' {
			if i > 0 && data[i-1] == '\r' {
				return "\r\n"
			}
			return "\n"
		}
	}
	return "\n"
}
