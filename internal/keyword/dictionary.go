// Package keyword expands query terms into weighted index-term candidates
// (exact, prefix, fuzzy) and produces spelling suggestions.
package keyword

// Dictionary is a read-only, lexicographically sorted set of index terms.
type Dictionary interface {
	// Contains reports whether term is present.
	Contains(term string) bool
	// WithPrefix returns the sorted terms starting with prefix.
	WithPrefix(prefix string) []string
	// Terms returns every term in sorted order.
	Terms() []string
}

// FrequencySource reports how many documents contain a term.
type FrequencySource interface {
	DocFreq(term string) int
}
