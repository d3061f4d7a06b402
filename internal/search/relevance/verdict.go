// Package relevance judges retrieved candidates against the question and
// drops the ones a model says do not help answer it.
package relevance

import (
	"strings"
	"unicode"
)

// Verdict is the parsed judge output.
type Verdict int

const (
	Malformed Verdict = iota
	Relevant
	NotRelevant
)

func (v Verdict) String() string {
	switch v {
	case Relevant:
		return "relevant"
	case NotRelevant:
		return "not_relevant"
	default:
		return "malformed"
	}
}

// ParseVerdict maps raw judge text to a Verdict. Only the first word counts,
// case and surrounding punctuation ignored; anything other than yes/no is Malformed.
func ParseVerdict(raw string) Verdict {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Malformed
	}
	word := strings.ToLower(strings.TrimFunc(fields[0], func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}))
	switch word {
	case "yes", "relevant":
		return Relevant
	case "no":
		return NotRelevant
	default:
		return Malformed
	}
}
