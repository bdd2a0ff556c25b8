// Package index provides the in-memory document store, inverted index, and term dictionary.
//
// An Index is not safe for concurrent mutation. Readers may share an Index freely as long
// as nothing mutates it; callers that need updates Clone, mutate the clone, and publish it.
package index

import (
	"fmt"
	"sort"

	"github.com/hyperjump/mdsearch/internal/analysis"
	"github.com/hyperjump/mdsearch/internal/models"
)

// Index ties together the document store, the inverted index, and the term dictionary.
type Index struct {
	store    *DocumentStore
	inverted *InvertedIndex
	dict     *TermDictionary
}

// New returns an empty index.
func New() *Index {
	dict := NewTermDictionary()
	return &Index{
		store:    NewDocumentStore(),
		inverted: newInvertedIndex(dict),
		dict:     dict,
	}
}

// Build indexes every document of a corpus snapshot. A later document with the same ID
// replaces an earlier one.
func Build(docs []*models.Document) (*Index, error) {
	idx := New()
	for _, doc := range docs {
		if err := idx.Put(doc); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Put inserts or replaces a document. Postings of a previous version with the same ID are
// removed before the new postings are added.
func (idx *Index) Put(doc *models.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("document id is required: %w", models.ErrInvalidDocument)
	}
	doc = doc.Clone()
	fieldTokens := make(map[string][]analysis.Token, len(doc.Fields))
	for field, text := range doc.Fields {
		fieldTokens[field] = analysis.Tokenize(text)
	}
	idx.Remove(doc.ID)
	if err := idx.inverted.addDocument(doc.ID, fieldTokens); err != nil {
		return err
	}
	idx.store.put(doc, fieldTokens)
	return nil
}

// Remove deletes a document and all of its postings. It reports whether the document existed.
func (idx *Index) Remove(id string) bool {
	hadPostings := idx.inverted.removeDocument(id)
	hadDoc := idx.store.remove(id)
	return hadPostings || hadDoc
}

// Get returns a stored document. The result must be treated as read-only.
func (idx *Index) Get(id string) (*models.Document, bool) {
	return idx.store.Get(id)
}

// IDs returns all document IDs in ascending order.
func (idx *Index) IDs() []string {
	return idx.store.IDs()
}

// DocCount returns the number of indexed documents.
func (idx *Index) DocCount() int {
	return idx.store.Len()
}

// TermCount returns the number of distinct terms.
func (idx *Index) TermCount() int {
	return idx.dict.Len()
}

// Dictionary returns the term dictionary.
func (idx *Index) Dictionary() *TermDictionary {
	return idx.dict
}

// PostingsFor returns the postings of term (nil if absent).
func (idx *Index) PostingsFor(term string) []Posting {
	return idx.inverted.PostingsFor(term)
}

// DocFreq returns the number of documents containing term.
func (idx *Index) DocFreq(term string) int {
	return idx.inverted.DocFreq(term)
}

// FieldLength returns the number of terms in a document field.
func (idx *Index) FieldLength(id, field string) int {
	return idx.store.FieldLength(id, field)
}

// Clone returns an independent copy that can be mutated without affecting idx.
func (idx *Index) Clone() *Index {
	dict := idx.dict.clone()
	return &Index{
		store:    idx.store.clone(),
		inverted: idx.inverted.clone(dict),
		dict:     dict,
	}
}

// CheckInvariants verifies that the dictionary is sorted and equals the set of terms with
// postings, and that document frequencies and the reverse map agree with the postings.
func (idx *Index) CheckInvariants() error {
	terms := idx.dict.Terms()
	if !sort.StringsAreSorted(terms) {
		return fmt.Errorf("dictionary not sorted")
	}
	if len(terms) != len(idx.inverted.postings) {
		return fmt.Errorf("dictionary has %d terms, postings have %d", len(terms), len(idx.inverted.postings))
	}
	for i, term := range terms {
		if i > 0 && terms[i-1] == term {
			return fmt.Errorf("duplicate dictionary term %q", term)
		}
		list := idx.inverted.postings[term]
		if len(list) == 0 {
			return fmt.Errorf("dictionary term %q has no postings", term)
		}
		docs := make(map[string]struct{})
		for _, p := range list {
			if _, ok := idx.store.docs[p.DocID]; !ok {
				return fmt.Errorf("term %q references unknown document %q", term, p.DocID)
			}
			docs[p.DocID] = struct{}{}
		}
		if idx.inverted.docFreq[term] != len(docs) {
			return fmt.Errorf("term %q doc freq %d, want %d", term, idx.inverted.docFreq[term], len(docs))
		}
	}
	if len(idx.inverted.docTerms) != len(idx.store.docs) {
		return fmt.Errorf("reverse map has %d documents, store has %d", len(idx.inverted.docTerms), len(idx.store.docs))
	}
	return nil
}
