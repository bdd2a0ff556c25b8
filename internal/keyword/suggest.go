package keyword

import (
	"sort"
	"unicode/utf8"
)

// Suggestion is a dictionary term close to a term that matched nothing.
type Suggestion struct {
	Term      string
	Distance  int
	Frequency int
}

// SpellChecker produces "did you mean" suggestions from an index dictionary.
type SpellChecker struct {
	dictionary     Dictionary
	frequencies    FrequencySource
	maxDistance    int
	minFreq        int
	maxSuggestions int
}

// SpellCheckerOption is a functional option for configuring SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency sets the minimum document frequency for suggestions.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions sets the maximum number of suggestions returned per term.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSpellChecker creates a SpellChecker. freq may be nil, in which case every term has
// frequency 1.
func NewSpellChecker(dict Dictionary, freq FrequencySource, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		frequencies:    freq,
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsMisspelled reports whether term is absent from the dictionary.
func (s *SpellChecker) IsMisspelled(term string) bool {
	return !s.dictionary.Contains(term)
}

// Suggest returns dictionary terms within the maximum distance of term, closest first,
// then most frequent, then alphabetical. A term present in the dictionary has no suggestions.
func (s *SpellChecker) Suggest(term string) []Suggestion {
	if term == "" || s.dictionary.Contains(term) {
		return nil
	}
	tr := []rune(term)
	var out []Suggestion
	for _, candidate := range s.dictionary.Terms() {
		n := utf8.RuneCountInString(candidate)
		if n-len(tr) > s.maxDistance || len(tr)-n > s.maxDistance {
			continue
		}
		d := BoundedDistance(tr, []rune(candidate), s.maxDistance)
		if d > s.maxDistance {
			continue
		}
		freq := 1
		if s.frequencies != nil {
			freq = s.frequencies.DocFreq(candidate)
		}
		if freq < s.minFreq {
			continue
		}
		out = append(out, Suggestion{Term: candidate, Distance: d, Frequency: freq})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > s.maxSuggestions {
		out = out[:s.maxSuggestions]
	}
	return out
}
