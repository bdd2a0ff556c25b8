package index

import (
	"sort"
	"strings"
)

// TermDictionary is the sorted set of distinct terms in an index.
// It is kept in step with the postings: a term is present iff it has at least one posting.
type TermDictionary struct {
	terms []string
}

// NewTermDictionary returns an empty dictionary.
func NewTermDictionary() *TermDictionary {
	return &TermDictionary{}
}

func (d *TermDictionary) insert(term string) {
	i := sort.SearchStrings(d.terms, term)
	if i < len(d.terms) && d.terms[i] == term {
		return
	}
	d.terms = append(d.terms, "")
	copy(d.terms[i+1:], d.terms[i:])
	d.terms[i] = term
}

func (d *TermDictionary) delete(term string) {
	i := sort.SearchStrings(d.terms, term)
	if i >= len(d.terms) || d.terms[i] != term {
		return
	}
	copy(d.terms[i:], d.terms[i+1:])
	d.terms[len(d.terms)-1] = ""
	d.terms = d.terms[:len(d.terms)-1]
}

// Contains reports whether term is in the dictionary.
func (d *TermDictionary) Contains(term string) bool {
	i := sort.SearchStrings(d.terms, term)
	return i < len(d.terms) && d.terms[i] == term
}

// WithPrefix returns every term starting with prefix, in sorted order.
// It binary-searches the lower bound and scans while the prefix holds.
// The returned slice aliases the dictionary and must not be modified.
func (d *TermDictionary) WithPrefix(prefix string) []string {
	lo := sort.SearchStrings(d.terms, prefix)
	hi := lo
	for hi < len(d.terms) && strings.HasPrefix(d.terms[hi], prefix) {
		hi++
	}
	return d.terms[lo:hi:hi]
}

// Terms returns all terms in sorted order. The slice must not be modified.
func (d *TermDictionary) Terms() []string {
	return d.terms[:len(d.terms):len(d.terms)]
}

// Len returns the number of distinct terms.
func (d *TermDictionary) Len() int {
	return len(d.terms)
}

func (d *TermDictionary) clone() *TermDictionary {
	return &TermDictionary{terms: append([]string(nil), d.terms...)}
}
