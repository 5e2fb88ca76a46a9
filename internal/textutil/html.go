package textutil

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripHTML extracts plain text from a fragment that may carry markup.
// Federal Register abstracts and regulations.gov highlighted content
// sometimes arrive as HTML; plain strings pass through untouched apart
// from whitespace normalization.
func StripHTML(fragment string) string {
	if !strings.ContainsRune(fragment, '<') {
		return CollapseWhitespace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return CollapseWhitespace(fragment)
	}
	return CollapseWhitespace(doc.Text())
}

// CollapseWhitespace trims the string and folds internal whitespace runs
// into single spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateRunes shortens s to at most limit runes, appending an ellipsis
// when truncation occurs. The limit includes the ellipsis.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}
