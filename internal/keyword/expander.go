package keyword

import (
	"math"
	"sort"
	"unicode/utf8"
)

// Options controls candidate expansion.
type Options struct {
	// Prefix enables prefix matching.
	Prefix bool
	// Fuzzy below 1 is a fraction of the query term length (floored); 1 or more is an
	// absolute edit distance; 0 disables fuzzy matching.
	Fuzzy float64
	// MaxFuzzy caps the edit distance. 0 means no cap.
	MaxFuzzy int
}

// DefaultOptions returns prefix matching on and a fuzzy fraction of 0.2 capped at 6 edits.
func DefaultOptions() Options {
	return Options{Prefix: true, Fuzzy: 0.2, MaxFuzzy: 6}
}

// Threshold returns the maximum fuzzy edit distance for a query term of n runes.
func (o Options) Threshold(n int) int {
	var t int
	switch {
	case o.Fuzzy <= 0:
		t = 0
	case o.Fuzzy < 1:
		t = int(math.Floor(o.Fuzzy * float64(n)))
	default:
		t = int(o.Fuzzy)
	}
	if o.MaxFuzzy > 0 && t > o.MaxFuzzy {
		t = o.MaxFuzzy
	}
	return t
}

// Expand returns the candidate index terms for query term q, sorted by descending weight
// and then by term. Fuzzy candidates exclude terms already matched exactly or by prefix.
//
// The fuzzy pass scans the whole dictionary, O(n*len(q)) in the worst case. That is fine
// for corpora of a few thousand documents; larger corpora would need an automaton or
// trie walk with the same matching semantics.
func Expand(dict Dictionary, q string, opts Options) []Match {
	if q == "" {
		return nil
	}
	var matches []Match
	seen := make(map[string]struct{})
	if dict.Contains(q) {
		matches = append(matches, NewMatch(q, Exact, 0, 0))
		seen[q] = struct{}{}
	}
	if opts.Prefix {
		for _, term := range dict.WithPrefix(q) {
			if term == q {
				continue
			}
			matches = append(matches, NewMatch(term, Prefix, 0, 0))
			seen[term] = struct{}{}
		}
	}

	qr := []rune(q)
	threshold := opts.Threshold(len(qr))
	if threshold > 0 {
		for _, term := range dict.Terms() {
			if _, ok := seen[term]; ok {
				continue
			}
			n := utf8.RuneCountInString(term)
			if n-len(qr) > threshold || len(qr)-n > threshold {
				continue
			}
			d := BoundedDistance(qr, []rune(term), threshold)
			if d < 1 || d > threshold {
				continue
			}
			matches = append(matches, NewMatch(term, Fuzzy, d, threshold))
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Weight != matches[j].Weight {
			return matches[i].Weight > matches[j].Weight
		}
		return matches[i].Term < matches[j].Term
	})
	return matches
}
