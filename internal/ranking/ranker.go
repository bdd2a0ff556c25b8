// Package ranking scores documents against expanded query terms and orders the results.
package ranking

import (
	"math"
	"sort"

	"github.com/hyperjump/mdsearch/internal/index"
	"github.com/hyperjump/mdsearch/internal/keyword"
	"github.com/hyperjump/mdsearch/internal/models"
)

// Source is the read-only index view a Ranker scores against.
type Source interface {
	PostingsFor(term string) []index.Posting
	DocFreq(term string) int
	DocCount() int
	FieldLength(id, field string) int
}

// Scored is a document with its accumulated score.
type Scored struct {
	ID    string
	Score float64
	// Terms are the matched index terms, sorted.
	Terms []string
	// Match maps each matched index term to the sorted fields it matched in.
	Match map[string][]string
}

// Ranker accumulates per-document TF-IDF scores weighted by match kind and field boost.
type Ranker struct {
	boost map[string]float64
}

// NewRanker creates a ranker with the given field boosts. A nil map uses the defaults
// (title 2, body 1). Fields missing from the map get a boost of 1.
func NewRanker(boost map[string]float64) *Ranker {
	if boost == nil {
		boost = models.DefaultBoost()
	}
	return &Ranker{boost: boost}
}

// Boost returns the boost for field.
func (r *Ranker) Boost(field string) float64 {
	if b, ok := r.boost[field]; ok {
		return b
	}
	return 1
}

// TF is the term frequency normalized by the field length.
func TF(freq, fieldLen int) float64 {
	if fieldLen <= 0 {
		return 0
	}
	return float64(freq) / float64(fieldLen)
}

// IDF is ln(1 + N/df).
func IDF(docCount, docFreq int) float64 {
	if docFreq <= 0 {
		return 0
	}
	return math.Log(1 + float64(docCount)/float64(docFreq))
}

type accumulator struct {
	score float64
	match map[string]map[string]struct{}
}

// Score evaluates every candidate of every query term and returns all documents with a
// positive score, best first, ties broken by ascending ID.
//
//	score(doc) += weight(candidate) * boost[field] * tf(candidate, doc, field) * idf(candidate)
func (r *Ranker) Score(src Source, candidates [][]keyword.Match) []Scored {
	n := src.DocCount()
	acc := make(map[string]*accumulator)
	for _, matches := range candidates {
		for _, m := range matches {
			idf := IDF(n, src.DocFreq(m.Term))
			if idf == 0 {
				continue
			}
			for _, p := range src.PostingsFor(m.Term) {
				contribution := m.Weight * r.Boost(p.Field) * TF(p.Frequency, src.FieldLength(p.DocID, p.Field)) * idf
				if contribution <= 0 {
					continue
				}
				a, ok := acc[p.DocID]
				if !ok {
					a = &accumulator{match: make(map[string]map[string]struct{})}
					acc[p.DocID] = a
				}
				a.score += contribution
				fields, ok := a.match[m.Term]
				if !ok {
					fields = make(map[string]struct{})
					a.match[m.Term] = fields
				}
				fields[p.Field] = struct{}{}
			}
		}
	}

	out := make([]Scored, 0, len(acc))
	for id, a := range acc {
		out = append(out, newScored(id, a))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Rank is Score followed by Top.
func (r *Ranker) Rank(src Source, candidates [][]keyword.Match, limit int) []Scored {
	return Top(r.Score(src, candidates), limit)
}

// Top truncates sorted results to limit. A non-positive limit means the default of 5.
func Top(scored []Scored, limit int) []Scored {
	if limit <= 0 {
		limit = models.DefaultLimit
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func newScored(id string, a *accumulator) Scored {
	s := Scored{
		ID:    id,
		Score: a.score,
		Terms: make([]string, 0, len(a.match)),
		Match: make(map[string][]string, len(a.match)),
	}
	for term, fields := range a.match {
		s.Terms = append(s.Terms, term)
		list := make([]string, 0, len(fields))
		for f := range fields {
			list = append(list, f)
		}
		sort.Strings(list)
		s.Match[term] = list
	}
	sort.Strings(s.Terms)
	return s
}
