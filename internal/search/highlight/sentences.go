package highlight

import (
	"unicode"
	"unicode/utf8"
)

// span is a byte range [start, end) of a text.
type span struct {
	start, end int
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || unicode.Is(unicode.Zs, r)
}

// splitSentences returns the sentence spans of text, without surrounding
// whitespace. A sentence ends at '.', '!' or '?' followed by whitespace and
// then an uppercase letter, a newline, or the end of the text.
func splitSentences(text string) []span {
	var out []span
	start := skipSpace(text, 0)

	for i := start; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		j, newline := i, false
		for j < len(text) {
			c, n := utf8.DecodeRuneInString(text[j:])
			if !isSpace(c) {
				break
			}
			if c == '\n' {
				newline = true
			}
			j += n
		}
		if j == i {
			continue
		}
		next, _ := utf8.DecodeRuneInString(text[j:])
		if j == len(text) || newline || unicode.IsUpper(next) {
			out = append(out, span{start, i})
			start = j
			i = j
		}
	}

	if end := trimRightSpace(text); start < end {
		out = append(out, span{start, end})
	}
	return out
}

func skipSpace(text string, i int) int {
	for i < len(text) {
		r, n := utf8.DecodeRuneInString(text[i:])
		if !isSpace(r) {
			break
		}
		i += n
	}
	return i
}

func trimRightSpace(text string) int {
	end := len(text)
	for end > 0 {
		r, n := utf8.DecodeLastRuneInString(text[:end])
		if !isSpace(r) {
			break
		}
		end -= n
	}
	return end
}

// firstSentence returns the first sentence of text, or text itself when it
// has no sentence boundary.
func firstSentence(text string) string {
	spans := splitSentences(text)
	if len(spans) == 0 {
		return ""
	}
	return text[spans[0].start:spans[0].end]
}
