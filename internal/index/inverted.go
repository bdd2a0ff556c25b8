package index

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hyperjump/mdsearch/internal/analysis"
)

// ErrDuplicateDocument is returned when a document is added twice without an intervening remove.
var ErrDuplicateDocument = errors.New("document already indexed")

// Posting links a term to one field of one document.
type Posting struct {
	DocID     string
	Field     string
	Frequency int
	Positions []int
}

// InvertedIndex maps each term to its postings.
type InvertedIndex struct {
	postings map[string][]Posting
	docFreq  map[string]int
	// docTerms is the reverse map used to remove a document without scanning every term.
	docTerms map[string][]string
	dict     *TermDictionary
}

func newInvertedIndex(dict *TermDictionary) *InvertedIndex {
	return &InvertedIndex{
		postings: make(map[string][]Posting),
		docFreq:  make(map[string]int),
		docTerms: make(map[string][]string),
		dict:     dict,
	}
}

// addDocument appends one posting per distinct term per field. Fields are visited in
// sorted order and terms in first-occurrence order so builds are reproducible.
func (ii *InvertedIndex) addDocument(id string, fieldTokens map[string][]analysis.Token) error {
	if _, ok := ii.docTerms[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDocument, id)
	}
	fields := make([]string, 0, len(fieldTokens))
	for f := range fieldTokens {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	seen := make(map[string]struct{})
	terms := []string{}
	for _, field := range fields {
		byTerm := make(map[string]*Posting)
		var order []string
		for _, tok := range fieldTokens[field] {
			p, ok := byTerm[tok.Term]
			if !ok {
				p = &Posting{DocID: id, Field: field}
				byTerm[tok.Term] = p
				order = append(order, tok.Term)
			}
			p.Frequency++
			p.Positions = append(p.Positions, tok.Position)
		}
		for _, term := range order {
			if len(ii.postings[term]) == 0 {
				ii.dict.insert(term)
			}
			ii.postings[term] = append(ii.postings[term], *byTerm[term])
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				terms = append(terms, term)
				ii.docFreq[term]++
			}
		}
	}
	ii.docTerms[id] = terms
	return nil
}

// removeDocument strips every posting of id and prunes terms left without postings.
func (ii *InvertedIndex) removeDocument(id string) bool {
	terms, ok := ii.docTerms[id]
	if !ok {
		return false
	}
	for _, term := range terms {
		list := ii.postings[term]
		kept := list[:0]
		for _, p := range list {
			if p.DocID != id {
				kept = append(kept, p)
			}
		}
		for i := len(kept); i < len(list); i++ {
			list[i] = Posting{}
		}
		if len(kept) == 0 {
			delete(ii.postings, term)
			delete(ii.docFreq, term)
			ii.dict.delete(term)
			continue
		}
		ii.postings[term] = kept
		ii.docFreq[term]--
	}
	delete(ii.docTerms, id)
	return true
}

// PostingsFor returns the postings of term, or nil if the term is absent.
// The slice must not be modified.
func (ii *InvertedIndex) PostingsFor(term string) []Posting {
	return ii.postings[term]
}

// DocFreq returns the number of distinct documents containing term in any field.
func (ii *InvertedIndex) DocFreq(term string) int {
	return ii.docFreq[term]
}

// clone deep-copies the posting lists. Position slices are never mutated after
// creation and are shared.
func (ii *InvertedIndex) clone(dict *TermDictionary) *InvertedIndex {
	c := &InvertedIndex{
		postings: make(map[string][]Posting, len(ii.postings)),
		docFreq:  make(map[string]int, len(ii.docFreq)),
		docTerms: make(map[string][]string, len(ii.docTerms)),
		dict:     dict,
	}
	for term, list := range ii.postings {
		c.postings[term] = append([]Posting(nil), list...)
	}
	for term, n := range ii.docFreq {
		c.docFreq[term] = n
	}
	for id, terms := range ii.docTerms {
		c.docTerms[id] = terms
	}
	return c
}
