// Package scoring computes a mastery score for a teach-back attempt.
//
// The score is the word-set overlap between a reference summary and the
// user's explanation. This is a crude proxy for comprehension, not semantic
// equivalence: stop words count, paraphrases score poorly. Downstream
// mastery arithmetic depends on the exact behavior, so it is kept as-is.
package scoring

import (
	"strings"
)

// Score returns an integer in [0, 100]: the fraction of reference words
// that also appear in the explanation, floored. Tokenization is lowercase
// whitespace splitting with punctuation left attached; duplicate words
// collapse because sets are compared.
func Score(referenceSummary, userExplanation string) int {
	ref := wordSet(referenceSummary)
	expl := wordSet(userExplanation)

	overlap := 0
	for w := range ref {
		if _, ok := expl[w]; ok {
			overlap++
		}
	}

	denom := len(ref)
	if denom < 1 {
		denom = 1
	}
	return overlap * 100 / denom
}

func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
