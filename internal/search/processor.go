package search

import (
	"github.com/hyperjump/mdsearch/internal/analysis"
	"github.com/hyperjump/mdsearch/internal/config"
	"github.com/hyperjump/mdsearch/internal/keyword"
	"github.com/hyperjump/mdsearch/internal/models"
)

// queryPlan is a validated query with every option resolved against the engine defaults.
type queryPlan struct {
	terms     []string
	limit     int
	expansion keyword.Options
	boost     map[string]float64
}

// planQuery validates query, extracts its distinct terms, and resolves its options against
// cfg. Per-query boosts are merged over the configured ones.
func planQuery(query *models.SearchQuery, cfg *config.SearchConfig) (*queryPlan, error) {
	if query != nil && query.Limit <= 0 {
		query.Limit = cfg.DefaultLimit
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	plan := &queryPlan{
		terms: analysis.UniqueTerms(query.Query),
		limit: query.Limit,
		expansion: keyword.Options{
			Prefix:   cfg.PrefixOrDefault(),
			Fuzzy:    cfg.FuzzyOrDefault(),
			MaxFuzzy: cfg.MaxFuzzy,
		},
		boost: cfg.Boost,
	}
	if query.Prefix != nil {
		plan.expansion.Prefix = *query.Prefix
	}
	if query.Fuzzy != nil {
		plan.expansion.Fuzzy = *query.Fuzzy
	}
	if len(query.Boost) > 0 {
		merged := make(map[string]float64, len(cfg.Boost)+len(query.Boost))
		for f, b := range cfg.Boost {
			merged[f] = b
		}
		for f, b := range query.Boost {
			merged[f] = b
		}
		plan.boost = merged
	}
	return plan, nil
}
