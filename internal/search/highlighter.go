package search

import "github.com/hyperjump/mdsearch/pkg/utils"

// Snippet returns the first maxLen runes of body, with "..." appended if body is longer.
// maxLen <= 0 returns body unchanged.
func Snippet(body string, maxLen int) string {
	return utils.Truncate(body, maxLen)
}
