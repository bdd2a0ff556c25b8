// Package corpus supplies the documents an index is built from: files under configured
// directories, documents stored through the API, or both.
package corpus

import (
	"context"

	"github.com/hyperjump/mdsearch/internal/models"
)

// Source loads a complete corpus. Implementations return documents sorted by ID.
type Source interface {
	Load(ctx context.Context) ([]*models.Document, error)
}

// Static is a fixed in-memory corpus.
type Static []*models.Document

// Load returns copies of the documents sorted by ID.
func (s Static) Load(ctx context.Context) ([]*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*models.Document, 0, len(s))
	for _, doc := range s {
		out = append(out, doc.Clone())
	}
	sortByID(out)
	return out, nil
}
