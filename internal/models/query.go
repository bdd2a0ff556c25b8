package models

import (
	"fmt"
	"strings"
)

// Query defaults.
const (
	DefaultLimit     = 5
	DefaultFuzziness = 0.2
	DefaultMaxFuzzy  = 6
)

// DefaultBoost returns the default per-field boost weights.
func DefaultBoost() map[string]float64 {
	return map[string]float64{FieldTitle: 2, FieldBody: 1}
}

// SearchQuery is a single stateless search request.
// Nil option pointers mean "use the engine default".
type SearchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	// Prefix enables prefix matching of query terms.
	Prefix *bool `json:"prefix,omitempty"`
	// Fuzzy below 1 is a fraction of the term length; 1 or more is an absolute edit distance; 0 disables.
	Fuzzy *float64 `json:"fuzzy,omitempty"`
	// Boost overrides the per-field boost weights.
	Boost map[string]float64 `json:"boost,omitempty"`
}

// Validate checks the query and fills in the default limit.
func (q *SearchQuery) Validate() error {
	if q == nil || strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("query cannot be empty: %w", ErrInvalidQuery)
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Fuzzy != nil && *q.Fuzzy < 0 {
		return fmt.Errorf("fuzzy must not be negative: %w", ErrInvalidQuery)
	}
	for field, b := range q.Boost {
		if b < 0 {
			return fmt.Errorf("boost for %q must not be negative: %w", field, ErrInvalidQuery)
		}
	}
	return nil
}
