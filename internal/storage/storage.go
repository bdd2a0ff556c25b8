// Package storage persists documents submitted through the API so they survive restarts
// and are part of every rebuild. The search index itself is never persisted.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/mdsearch/internal/models"
)

// ErrNotFound is returned when a document ID is not stored.
var ErrNotFound = errors.New("document not found")

// Storage defines document persistence operations.
type Storage interface {
	// SaveDocument inserts doc or replaces the stored document with the same ID.
	SaveDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	// ListDocuments returns every stored document ordered by ID.
	ListDocuments(ctx context.Context) ([]*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)

	Close() error
}
