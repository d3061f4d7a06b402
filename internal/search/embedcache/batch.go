package embedcache

import (
	"math"
	"unicode/utf8"
)

// maxBatchItems caps inputs per request independently of the token budget.
const maxBatchItems = 2048

// estimateTokens over-estimates a text's token count from its length.
func estimateTokens(text string, tokensPerChar float64) int {
	n := int(math.Ceil(float64(utf8.RuneCountInString(text)) * tokensPerChar))
	if n < 1 {
		return 1
	}
	return n
}

// batchByTokenBudget groups texts greedily, in order, so that each group's
// estimated token total stays within budget. A single text over budget is
// sent on its own and left to the provider to accept or reject.
func batchByTokenBudget(texts []string, budget int, tokensPerChar float64) [][]string {
	var batches [][]string
	var current []string
	used := 0

	for _, text := range texts {
		tokens := estimateTokens(text, tokensPerChar)
		if len(current) > 0 && (used+tokens > budget || len(current) >= maxBatchItems) {
			batches = append(batches, current)
			current, used = nil, 0
		}
		current = append(current, text)
		used += tokens
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
