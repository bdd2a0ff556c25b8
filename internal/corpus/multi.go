package corpus

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/mdsearch/internal/models"
	"github.com/hyperjump/mdsearch/internal/storage"
)

// StoreSource loads the documents persisted in a Storage.
type StoreSource struct {
	store storage.Storage
}

// NewStoreSource creates a source over store.
func NewStoreSource(store storage.Storage) *StoreSource {
	return &StoreSource{store: store}
}

// Load lists every stored document.
func (s *StoreSource) Load(ctx context.Context) ([]*models.Document, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored documents: %w", err)
	}
	sortByID(docs)
	return docs, nil
}

// MultiSource loads several sources concurrently and merges them by ID. When two sources
// return the same ID, the later source in the list wins.
type MultiSource struct {
	sources []Source
}

// NewMultiSource creates a source merging sources in order.
func NewMultiSource(sources ...Source) *MultiSource {
	return &MultiSource{sources: sources}
}

// Load fails if any source fails.
func (m *MultiSource) Load(ctx context.Context) ([]*models.Document, error) {
	results := make([][]*models.Document, len(m.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range m.sources {
		i, src := i, src
		g.Go(func() error {
			docs, err := src.Load(gctx)
			if err != nil {
				return err
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Document)
	for _, docs := range results {
		for _, doc := range docs {
			byID[doc.ID] = doc
		}
	}
	out := make([]*models.Document, 0, len(byID))
	for _, doc := range byID {
		out = append(out, doc)
	}
	sortByID(out)
	return out, nil
}

func sortByID(docs []*models.Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
}

// dedupe drops repeated IDs, which appear when roots overlap.
func dedupe(sorted []*models.Document) []*models.Document {
	out := sorted[:0]
	for i, doc := range sorted {
		if i+1 < len(sorted) && sorted[i+1].ID == doc.ID {
			continue
		}
		out = append(out, doc)
	}
	return out
}
