package index

import (
	"sort"

	"github.com/hyperjump/mdsearch/internal/analysis"
	"github.com/hyperjump/mdsearch/internal/models"
)

// DocumentStore holds each document's raw fields and per-field term counts.
type DocumentStore struct {
	docs    map[string]*models.Document
	lengths map[string]map[string]int
}

// NewDocumentStore returns an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs:    make(map[string]*models.Document),
		lengths: make(map[string]map[string]int),
	}
}

// put inserts or replaces doc and records the token count of every field.
func (s *DocumentStore) put(doc *models.Document, fieldTokens map[string][]analysis.Token) {
	lengths := make(map[string]int, len(fieldTokens))
	for field, tokens := range fieldTokens {
		lengths[field] = len(tokens)
	}
	s.docs[doc.ID] = doc
	s.lengths[doc.ID] = lengths
}

// Get returns the stored document. The result must be treated as read-only.
func (s *DocumentStore) Get(id string) (*models.Document, bool) {
	doc, ok := s.docs[id]
	return doc, ok
}

func (s *DocumentStore) remove(id string) bool {
	if _, ok := s.docs[id]; !ok {
		return false
	}
	delete(s.docs, id)
	delete(s.lengths, id)
	return true
}

// FieldLength returns the number of terms in the given field of a document.
func (s *DocumentStore) FieldLength(id, field string) int {
	return s.lengths[id][field]
}

// Len returns the number of stored documents.
func (s *DocumentStore) Len() int {
	return len(s.docs)
}

// IDs returns all document IDs in ascending order.
func (s *DocumentStore) IDs() []string {
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// clone copies the maps; documents themselves are immutable once stored and are shared.
func (s *DocumentStore) clone() *DocumentStore {
	c := &DocumentStore{
		docs:    make(map[string]*models.Document, len(s.docs)),
		lengths: make(map[string]map[string]int, len(s.lengths)),
	}
	for id, doc := range s.docs {
		c.docs[id] = doc
	}
	for id, l := range s.lengths {
		c.lengths[id] = l
	}
	return c
}
