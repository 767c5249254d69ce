package util

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

const maxTextFieldRunes = 200

var (
	messagePolicy = newMessagePolicy()
	stripPolicy   = bluemonday.StrictPolicy()
)

// newMessagePolicy allows the small formatting subset a card message may use.
func newMessagePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "br", "p", "ul", "ol", "li")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowAttrs("width", "height").Matching(bluemonday.NumberOrPercent).OnElements("img")
	p.AllowURLSchemes("http", "https")
	p.AllowDataURIImages()
	p.RequireParseableURLs(true)
	return p
}

// SanitizeMessage cleans card message HTML for storage and later rendering.
func SanitizeMessage(raw string) string {
	return strings.TrimSpace(messagePolicy.Sanitize(stripInvisible(raw)))
}

// StripHTML drops every tag and returns unescaped plain text.
func StripHTML(raw string) string {
	return html.UnescapeString(stripPolicy.Sanitize(raw))
}

// SanitizeTextField is used for names and other single-line inputs: no
// markup, no control or invisible runes, trimmed and capped at 200 runes.
func SanitizeTextField(raw string) string {
	cleaned := strings.TrimSpace(stripInvisible(StripHTML(raw)))

	runes := []rune(cleaned)
	if len(runes) > maxTextFieldRunes {
		runes = runes[:maxTextFieldRunes]
	}
	return strings.TrimSpace(string(runes))
}

// SanitizePlainText is SanitizeTextField without the length cap, for reply
// bodies that are validated for size separately.
func SanitizePlainText(raw string) string {
	return strings.TrimSpace(stripInvisible(StripHTML(raw)))
}

func stripInvisible(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) || isInvisibleUnicode(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isInvisibleUnicode reports zero-width and other format runes that can be
// used to sneak words past the profanity filter.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // zero-width space
		'\u200C', // zero-width non-joiner
		'\u200D', // zero-width joiner
		'\u2060', // word joiner
		'\uFEFF', // BOM
		'\uFFF9', '\uFFFA', '\uFFFB':
		return true
	}
	return unicode.Is(unicode.Cf, r)
}
