package simplecms

import (
	"strings"
	"unicode"
)

// Slugify normalizes text into a URL-friendly identifier: lowercased, with
// every run of non-alphanumeric characters collapsed into a single hyphen.
// Non-ASCII letters (e.g. CJK) are kept as-is.
func Slugify(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
