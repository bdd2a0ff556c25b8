// Package analysis turns raw field text into normalized terms.
package analysis

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Token is a normalized term and its 0-based position in the field's token stream.
type Token struct {
	Term     string
	Position int
}

// Normalize applies NFKC normalization followed by Unicode case folding.
// A fresh Caser is used per call because cases.Caser is not safe for concurrent use.
func Normalize(text string) string {
	return cases.Fold().String(norm.NFKC.String(text))
}

// Combining marks belong to the word they modify: vowel signs and viramas in Indic
// scripts, and the U+0307 dot left behind when İ is case folded.
func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.M, r)
}

// Tokenize case-folds text and splits it on runs of characters that are not letters, digits or marks.
// Empty tokens are discarded. The same input always yields the same sequence.
func Tokenize(text string) []Token {
	words := strings.FieldsFunc(Normalize(text), isSeparator)
	tokens := make([]Token, len(words))
	for i, w := range words {
		tokens[i] = Token{Term: w, Position: i}
	}
	return tokens
}

// Terms returns only the terms of Tokenize(text), in order, duplicates included.
func Terms(text string) []string {
	return strings.FieldsFunc(Normalize(text), isSeparator)
}

// UniqueTerms returns the distinct terms of text in first-occurrence order.
func UniqueTerms(text string) []string {
	terms := Terms(text)
	seen := make(map[string]struct{}, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
