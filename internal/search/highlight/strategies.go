package highlight

import (
	"strings"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
)

const (
	openMark  = domain.HighlightOpen
	closeMark = domain.HighlightClose
)

// Strategy names, also used as metric labels.
const (
	StrategyDirect   = "direct"
	StrategySentence = "sentence"
	StrategyVerbatim = "verbatim"
	StrategyKeyword  = "keyword"
	StrategyNone     = "none"
)

// Input is what every strategy sees. Quote is the validated excerpt, empty
// when the model said None or its excerpt failed validation.
type Input struct {
	Quote           string
	DisplayText     string
	Keywords        []string
	SentenceContext bool
}

// Strategy returns the marked display text, or false if it cannot place a
// highlight. Strategies are pure.
type Strategy func(in Input) (string, bool)

type namedStrategy struct {
	name  string
	apply Strategy
}

// chain is tried in order; the first strategy that succeeds wins. It runs
// from most faithful to the source position to most degraded.
var chain = []namedStrategy{
	{StrategyDirect, Direct},
	{StrategySentence, Sentence},
	{StrategyVerbatim, Verbatim},
	{StrategyKeyword, Keyword},
}

// Direct wraps the first whitespace-tolerant, case-insensitive match of the
// quote. The matched characters are kept as they appear in the display text.
func Direct(in Input) (string, bool) {
	if in.Quote == "" {
		return "", false
	}
	re := tolerantPattern(in.Quote)
	if re == nil {
		return "", false
	}
	loc := re.FindStringIndex(in.DisplayText)
	if loc == nil {
		return "", false
	}
	return wrap(in.DisplayText, loc[0], loc[1]), true
}

// Sentence looks for the quote's first sentence inside the display text's
// sentences and wraps the whole containing sentence, plus its neighbours
// when SentenceContext is set.
func Sentence(in Input) (string, bool) {
	if in.Quote == "" {
		return "", false
	}
	re := tolerantPattern(firstSentence(in.Quote))
	if re == nil {
		return "", false
	}

	sentences := splitSentences(in.DisplayText)
	for k, s := range sentences {
		if !re.MatchString(in.DisplayText[s.start:s.end]) {
			continue
		}
		first, last := k, k
		if in.SentenceContext {
			first, last = max(k-1, 0), min(k+1, len(sentences)-1)
		}
		return wrap(in.DisplayText, sentences[first].start, sentences[last].end), true
	}
	return "", false
}

// Verbatim shows the quote itself, highlighted, ahead of the display text.
func Verbatim(in Input) (string, bool) {
	if strings.TrimSpace(in.Quote) == "" {
		return "", false
	}
	return openMark + in.Quote + closeMark + "\n\n" + in.DisplayText, true
}

// Keyword wraps every case-insensitive occurrence of any keyword.
func Keyword(in Input) (string, bool) {
	re := keywordPattern(in.Keywords)
	if re == nil || !re.MatchString(in.DisplayText) {
		return "", false
	}
	return re.ReplaceAllStringFunc(in.DisplayText, func(m string) string {
		return openMark + m + closeMark
	}), true
}

// Result is the outcome of running the chain.
type Result struct {
	Marked      string
	Highlighted bool
	Strategy    string
	// Rejected is set when the model proposed an excerpt that failed validation.
	Rejected bool
}

// AlignExcerpt validates the excerpt against displayText and runs the
// strategy chain. It always returns displayText, possibly with markers
// inserted or a highlighted quote prepended, never less.
func AlignExcerpt(excerpt Excerpt, displayText string, keywords []string, sentenceContext bool) Result {
	in := Input{DisplayText: displayText, Keywords: keywords, SentenceContext: sentenceContext}

	rejected := excerpt.Kind == ExcerptMalformed
	if excerpt.Kind == ExcerptQuote {
		if q, ok := Validate(excerpt.Text, displayText); ok {
			in.Quote = q
		} else {
			rejected = true
		}
	}

	for _, s := range chain {
		if marked, ok := s.apply(in); ok {
			return Result{Marked: marked, Highlighted: true, Strategy: s.name, Rejected: rejected}
		}
	}
	return Result{Marked: displayText, Strategy: StrategyNone, Rejected: rejected}
}
