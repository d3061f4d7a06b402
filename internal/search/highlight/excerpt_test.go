package highlight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseExcerpt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Excerpt
	}{
		{"none", "None", Excerpt{Kind: ExcerptNone}},
		{"quoted none", `"None"`, Excerpt{Kind: ExcerptNone}},
		{"none with period", "none.", Excerpt{Kind: ExcerptNone}},
		{"blank", "   ", Excerpt{Kind: ExcerptNone}},
		{"plain", "Quarrying, mining", Quote("Quarrying, mining")},
		{"straight quotes", `"Quarrying, mining"`, Quote("Quarrying, mining")},
		{"curly quotes", "“a building or structure”", Quote("a building or structure")},
		{"inner whitespace kept", "'  Quarrying,\n  mining '", Quote("Quarrying,\n  mining")},
		{"unbalanced quote kept", `"Quarrying`, Quote(`"Quarrying`)},
		{"exactly max", strings.Repeat("é", MaxExcerptRunes), Quote(strings.Repeat("é", MaxExcerptRunes))},
		{"too long", strings.Repeat("a", MaxExcerptRunes+1), Excerpt{Kind: ExcerptMalformed, Text: strings.Repeat("a", MaxExcerptRunes+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseExcerpt(tt.raw))
		})
	}
}

func TestValidate(t *testing.T) {
	display := "Owned by Smith &amp; Sons. Quarrying,\n\tmining"

	q, ok := Validate("Quarrying, mining", display)
	assert.True(t, ok)
	assert.Equal(t, "Quarrying, mining", q)

	q, ok = Validate("Smith & Sons. Quarrying", display)
	assert.True(t, ok)
	assert.Equal(t, "Smith &amp; Sons. Quarrying", q)

	_, ok = Validate("quarrying, mining", display)
	assert.False(t, ok, "validation is case-sensitive")

	_, ok = Validate(" \n ", display)
	assert.False(t, ok)
}

func TestSplitSentences(t *testing.T) {
	text := "  Sec. 5 applies here. It says x! Does it?\nlower case after newline. e.g. this stays. End"

	var got []string
	for _, s := range splitSentences(text) {
		got = append(got, text[s.start:s.end])
	}

	assert.Equal(t, []string{
		"Sec. 5 applies here.",
		"It says x!",
		"Does it?",
		"lower case after newline. e.g. this stays.",
		"End",
	}, got)
}

func TestFirstSentence(t *testing.T) {
	assert.Equal(t, "Churches are permitted.", firstSentence("Churches are permitted. Parking is not."))
	assert.Equal(t, "no boundary here", firstSentence("no boundary here"))
	assert.Equal(t, "", firstSentence("  "))
}
