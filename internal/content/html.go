package content

import (
	"strings"

	xhtml "golang.org/x/net/html"
)

// StripTags returns the text content of an HTML fragment. Used for feed
// entry titles and derived summaries.
func StripTags(fragment string) string {
	var b strings.Builder
	tokenizer := xhtml.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := tokenizer.Next()
		if tt == xhtml.ErrorToken {
			break
		}
		if tt == xhtml.TextToken {
			b.Write(tokenizer.Text())
		}
	}
	return strings.TrimSpace(b.String())
}

// TruncateWords returns the first max words of text joined by single
// spaces, with an ellipsis when truncation occurred.
func TruncateWords(text string, max int) string {
	words := strings.Fields(text)
	if max <= 0 || len(words) <= max {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:max], " ") + " …"
}

// DeriveSummary produces a summary from the body when the metadata does not
// provide one: plain text of the body truncated to maxWords words.
func DeriveSummary(body string, maxWords int) string {
	return TruncateWords(StripTags(body), maxWords)
}
