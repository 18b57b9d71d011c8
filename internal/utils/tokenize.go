package utils

import (
	"strings"
	"unicode"
)

// Tokenize lowercases s and splits it on every run of non-alphanumeric runes.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	tokens := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// TokenSet returns the distinct tokens of s.
func TokenSet(s string) map[string]struct{} {
	tokens := Tokenize(s)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// TokenOverlap counts the query tokens, repeats included, that occur at least
// once in text. A token repeated in text still contributes once per query
// occurrence.
func TokenOverlap(queryTokens []string, text string) int {
	if len(queryTokens) == 0 {
		return 0
	}
	set := TokenSet(text)
	score := 0
	for _, t := range queryTokens {
		if _, ok := set[t]; ok {
			score++
		}
	}
	return score
}
