package models

// SearchResult is a single ranked hit.
type SearchResult struct {
	ID      string  `json:"id"`
	URI     string  `json:"uri,omitempty"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
	// Terms are the index terms that matched, sorted.
	Terms []string `json:"terms,omitempty"`
	// Match maps each matched index term to the fields it matched in.
	Match map[string][]string `json:"match,omitempty"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
	// Snapshot identifies the index snapshot the query was evaluated against.
	Snapshot string `json:"snapshot,omitempty"`
	// Suggestions contains "did you mean" terms for query terms that matched nothing.
	Suggestions []string `json:"suggestions,omitempty"`
}
