// Package cli renders search results for the mdsearch command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperjump/mdsearch/internal/models"
	"github.com/hyperjump/mdsearch/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact prints one result per line.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// NoResults is printed in text mode when nothing matched.
const NoResults = "No matching documents."

const compactTitleWidth = 60

// ParseOutputFormat maps a flag value to a SearchOutputFormat.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch f := SearchOutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		return writeSearchResultsCompact(w, response)
	default:
		return writeSearchResultsText(w, response)
	}
}

// writeSearchResultsText prints each hit as a title banner, its ID, a rule and the snippet,
// with a blank line between hits.
func writeSearchResultsText(w io.Writer, response *models.SearchResponse) error {
	if len(response.Results) == 0 {
		if _, err := fmt.Fprintln(w, NoResults); err != nil {
			return err
		}
		return writeSuggestions(w, response.Suggestions)
	}
	blocks := make([]string, 0, len(response.Results))
	for _, result := range response.Results {
		blocks = append(blocks, fmt.Sprintf("【%s】\n%s\n---\n%s", result.Title, result.ID, result.Snippet))
	}
	if _, err := fmt.Fprintln(w, strings.Join(blocks, "\n\n")); err != nil {
		return err
	}
	return writeSuggestions(w, response.Suggestions)
}

func writeSuggestions(w io.Writer, suggestions []string) error {
	if len(suggestions) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "\nDid you mean: %s\n", strings.Join(suggestions, ", "))
	return err
}

func writeSearchResultsCompact(w io.Writer, response *models.SearchResponse) error {
	for _, result := range response.Results {
		title := utils.Truncate(utils.CollapseSpace(result.Title), compactTitleWidth)
		if _, err := fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\n", result.Rank, result.Score, title, result.ID); err != nil {
			return err
		}
	}
	return nil
}

// PrintSearchResults prints search results to stdout in text format.
func PrintSearchResults(response *models.SearchResponse) {
	_ = WriteSearchResults(os.Stdout, response, OutputText)
}
