package models

import "errors"

var (
	// ErrInvalidDocument is returned when a document lacks its identifier.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidQuery is returned when the query string is absent.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrIndexNotBuilt is returned when a query runs before any successful build.
	ErrIndexNotBuilt = errors.New("index not built")
	// ErrDocumentNotFound is returned when a document ID is not in the current snapshot.
	ErrDocumentNotFound = errors.New("document not found")
)
