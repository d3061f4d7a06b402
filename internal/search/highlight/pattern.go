package highlight

import (
	"html"
	"regexp"
	"slices"
	"strings"
)

// wsClass is every character treated as whitespace when comparing excerpt
// and display text, including no-break and other Unicode spaces.
const wsClass = `[\s\p{Zs}]+`

var wsRun = regexp.MustCompile(wsClass)

// collapseWhitespace replaces each whitespace run with one space and trims.
func collapseWhitespace(s string) string {
	return strings.TrimSpace(wsRun.ReplaceAllString(s, " "))
}

// Validate reports whether excerpt, whitespace-collapsed, occurs literally in
// the collapsed display text. The HTML-escaped form of the excerpt is tried
// second, since display text is HTML-safe and source text is not. The
// returned string is the variant that matched.
func Validate(excerpt, displayText string) (string, bool) {
	display := collapseWhitespace(displayText)
	for _, variant := range []string{excerpt, html.EscapeString(excerpt)} {
		c := collapseWhitespace(variant)
		if c != "" && strings.Contains(display, c) {
			return variant, true
		}
	}
	return "", false
}

// tolerantPattern matches text case-insensitively with any whitespace run in
// text standing for any non-empty whitespace run in the target.
func tolerantPattern(text string) *regexp.Regexp {
	parts := wsRun.Split(strings.TrimSpace(text), -1)
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			quoted = append(quoted, regexp.QuoteMeta(p))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)` + strings.Join(quoted, wsClass))
}

// keywordPattern is a case-insensitive alternation, longest keyword first so
// "Board of Appeals" wins over "Board" at the same position.
func keywordPattern(keywords []string) *regexp.Regexp {
	kws := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			kws = append(kws, k)
		}
	}
	if len(kws) == 0 {
		return nil
	}
	slices.SortStableFunc(kws, func(a, b string) int { return len(b) - len(a) })

	alts := make([]string, len(kws))
	for i, k := range kws {
		alts[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)`)
}

// wrap inserts the markers around text[start:end].
func wrap(text string, start, end int) string {
	var b strings.Builder
	b.Grow(len(text) + len(openMark) + len(closeMark))
	b.WriteString(text[:start])
	b.WriteString(openMark)
	b.WriteString(text[start:end])
	b.WriteString(closeMark)
	b.WriteString(text[end:])
	return b.String()
}
