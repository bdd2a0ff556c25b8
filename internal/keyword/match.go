package keyword

// MatchKind says how a candidate index term was matched by a query term.
type MatchKind int

const (
	// Exact is the query term itself.
	Exact MatchKind = iota
	// Prefix is a longer term starting with the query term.
	Prefix
	// Fuzzy is a term within the edit-distance threshold of the query term.
	Fuzzy
)

// Match weights. Exact beats prefix, prefix beats any fuzzy match.
const (
	ExactWeight  = 1.0
	PrefixWeight = 0.9
	FuzzyWeight  = 0.5
)

func (k MatchKind) String() string {
	switch k {
	case Exact:
		return "exact"
	case Prefix:
		return "prefix"
	case Fuzzy:
		return "fuzzy"
	default:
		return "unknown"
	}
}

// Match is a candidate index term for one query term.
// Distance is only meaningful for Fuzzy matches.
type Match struct {
	Term     string
	Kind     MatchKind
	Distance int
	Weight   float64
}

// NewMatch builds a match and computes its weight. threshold is the fuzzy threshold in
// effect for the query term and is ignored for exact and prefix matches.
func NewMatch(term string, kind MatchKind, distance, threshold int) Match {
	return Match{Term: term, Kind: kind, Distance: distance, Weight: weight(kind, distance, threshold)}
}

func weight(kind MatchKind, distance, threshold int) float64 {
	switch kind {
	case Exact:
		return ExactWeight
	case Prefix:
		return PrefixWeight
	case Fuzzy:
		return FuzzyWeight * (1 - float64(distance)/float64(threshold+1))
	default:
		return 0
	}
}
