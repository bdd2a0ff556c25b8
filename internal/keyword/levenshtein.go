package keyword

// LevenshteinDistance calculates the minimum number of single-character edits
// (insertions, deletions, or substitutions) required to change one string into another.
func LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	return BoundedDistance(ra, rb, max(len(ra), len(rb)))
}

// BoundedDistance returns the Levenshtein distance between a and b when it is at most
// limit, and limit+1 otherwise. Only two rows of the matrix are kept, and the scan stops
// as soon as every cell of a row exceeds limit since later rows can only grow.
func BoundedDistance(a, b []rune, limit int) int {
	lenA, lenB := len(a), len(b)
	if diff := lenA - lenB; diff > limit || -diff > limit {
		return limit + 1
	}
	if lenA == 0 {
		return lenB
	}
	if lenB == 0 {
		return lenA
	}

	prev := make([]int, lenB+1)
	curr := make([]int, lenB+1)
	for j := 0; j <= lenB; j++ {
		prev[j] = j
	}

	for i := 1; i <= lenA; i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= lenB; j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		if rowMin > limit {
			return limit + 1
		}
		prev, curr = curr, prev
	}

	if prev[lenB] > limit {
		return limit + 1
	}
	return prev[lenB]
}
