// Package search owns the current index snapshot and evaluates queries against it.
//
// Queries load the snapshot pointer once and never block writers. Every mutation builds or
// clones an index under the writer lock and publishes it as a new snapshot, so a query
// always sees one complete generation.
package search

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hyperjump/mdsearch/internal/config"
	"github.com/hyperjump/mdsearch/internal/corpus"
	"github.com/hyperjump/mdsearch/internal/fileid"
	"github.com/hyperjump/mdsearch/internal/index"
	"github.com/hyperjump/mdsearch/internal/keyword"
	"github.com/hyperjump/mdsearch/internal/metrics"
	"github.com/hyperjump/mdsearch/internal/models"
	"github.com/hyperjump/mdsearch/internal/ranking"
)

// Snapshot is an immutable, fully built index generation.
type Snapshot struct {
	ID         string
	Generation uint64
	BuiltAt    time.Time
	Index      *index.Index
}

// Status describes the current snapshot.
type Status struct {
	Built      bool      `json:"built"`
	SnapshotID string    `json:"snapshot_id,omitempty"`
	Generation uint64    `json:"generation"`
	BuiltAt    *time.Time `json:"built_at,omitempty"`
	Documents  int       `json:"documents"`
	Terms      int       `json:"terms"`
}

// Engine runs ranked full-text search over copy-on-write index snapshots.
type Engine struct {
	source  corpus.Source
	config  *config.SearchConfig
	metrics *metrics.Metrics
	logger  *zap.Logger

	current  atomic.Pointer[Snapshot]
	writeMu  sync.Mutex
	rebuilds singleflight.Group
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for build and mutation events.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records queries and rebuilds in m.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithSource sets the corpus that Rebuild loads.
func WithSource(src corpus.Source) EngineOption {
	return func(e *Engine) { e.source = src }
}

// NewEngine creates an engine with no snapshot. cfg nil means the default search settings.
func NewEngine(cfg *config.SearchConfig, opts ...EngineOption) *Engine {
	if cfg == nil {
		cfg = &config.Default().Search
	}
	e := &Engine{config: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot returns the current snapshot, or nil before the first successful build.
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}

// Status reports the current snapshot's identity and size.
func (e *Engine) Status() Status {
	snap := e.current.Load()
	if snap == nil {
		return Status{}
	}
	builtAt := snap.BuiltAt
	return Status{
		Built:      true,
		SnapshotID: snap.ID,
		Generation: snap.Generation,
		BuiltAt:    &builtAt,
		Documents:  snap.Index.DocCount(),
		Terms:      snap.Index.TermCount(),
	}
}

// Build indexes docs from scratch and publishes the result. On error the current snapshot
// is left unchanged.
func (e *Engine) Build(docs []*models.Document) (*Snapshot, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	start := time.Now()
	idx, err := index.Build(docs)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	snap := e.publish(idx)
	if e.logger != nil {
		e.logger.Info("index built",
			zap.String("snapshot", snap.ID),
			zap.Uint64("generation", snap.Generation),
			zap.Int("documents", idx.DocCount()),
			zap.Int("terms", idx.TermCount()),
			zap.Duration("took", time.Since(start)))
	}
	return snap, nil
}

// Rebuild reloads the corpus source and builds a new snapshot. Concurrent calls share one
// load and build.
func (e *Engine) Rebuild(ctx context.Context) (*Snapshot, error) {
	if e.source == nil {
		return nil, errors.New("rebuild: no corpus source configured")
	}
	v, err, _ := e.rebuilds.Do("rebuild", func() (interface{}, error) {
		snap, err := e.rebuild(ctx)
		e.metrics.ObserveRebuild(err)
		return snap, err
	})
	if err != nil {
		if e.logger != nil {
			e.logger.Error("index rebuild failed", zap.Error(err))
		}
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (e *Engine) rebuild(ctx context.Context) (*Snapshot, error) {
	docs, err := e.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	return e.Build(docs)
}

// Put adds or replaces one document and publishes a new snapshot.
func (e *Engine) Put(doc *models.Document) (*Snapshot, error) {
	if doc == nil || doc.ID == "" {
		return nil, fmt.Errorf("document id is required: %w", models.ErrInvalidDocument)
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	cur := e.current.Load()
	if cur == nil {
		return nil, models.ErrIndexNotBuilt
	}
	idx := cur.Index.Clone()
	if err := idx.Put(doc); err != nil {
		return nil, err
	}
	snap := e.publish(idx)
	if e.logger != nil {
		e.logger.Debug("document indexed", zap.String("id", doc.ID), zap.Uint64("generation", snap.Generation))
	}
	return snap, nil
}

// Remove deletes one document. It reports whether the document was indexed; when it was
// not, no new snapshot is published.
func (e *Engine) Remove(id string) (bool, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	cur := e.current.Load()
	if cur == nil {
		return false, models.ErrIndexNotBuilt
	}
	if _, ok := cur.Index.Get(id); !ok {
		return false, nil
	}
	idx := cur.Index.Clone()
	idx.Remove(id)
	snap := e.publish(idx)
	if e.logger != nil {
		e.logger.Debug("document removed", zap.String("id", id), zap.Uint64("generation", snap.Generation))
	}
	return true, nil
}

// RemoveTree deletes every document whose ID is dir or lies below it, publishing at most one
// snapshot. It returns the number of documents removed.
func (e *Engine) RemoveTree(dir string) (int, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	cur := e.current.Load()
	if cur == nil {
		return 0, models.ErrIndexNotBuilt
	}
	prefix := strings.TrimSuffix(dir, string(filepath.Separator)) + string(filepath.Separator)
	var doomed []string
	for _, id := range cur.Index.IDs() {
		if id == dir || strings.HasPrefix(id, prefix) {
			doomed = append(doomed, id)
		}
	}
	if len(doomed) == 0 {
		return 0, nil
	}
	idx := cur.Index.Clone()
	for _, id := range doomed {
		idx.Remove(id)
	}
	snap := e.publish(idx)
	if e.logger != nil {
		e.logger.Debug("documents removed", zap.String("dir", dir), zap.Int("count", len(doomed)), zap.Uint64("generation", snap.Generation))
	}
	return len(doomed), nil
}

// Get returns a copy of an indexed document.
func (e *Engine) Get(id string) (*models.Document, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, models.ErrIndexNotBuilt
	}
	doc, ok := snap.Index.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
	}
	return doc.Clone(), nil
}

// List returns a reference to every indexed document, sorted by ID.
func (e *Engine) List() ([]models.DocumentRef, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, models.ErrIndexNotBuilt
	}
	ids := snap.Index.IDs()
	refs := make([]models.DocumentRef, 0, len(ids))
	for _, id := range ids {
		doc, _ := snap.Index.Get(id)
		refs = append(refs, models.DocumentRef{ID: id, URI: fileid.URI(id), Title: doc.Title()})
	}
	return refs, nil
}

// Search evaluates query against the current snapshot.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (resp *models.SearchResponse, err error) {
	start := time.Now()
	defer func() {
		n := 0
		if resp != nil {
			n = len(resp.Results)
		}
		e.metrics.ObserveSearch(time.Since(start), n, err)
	}()

	plan, err := planQuery(query, e.config)
	if err != nil {
		return nil, err
	}
	snap := e.current.Load()
	if snap == nil {
		return nil, models.ErrIndexNotBuilt
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dict := snap.Index.Dictionary()
	candidates := make([][]keyword.Match, 0, len(plan.terms))
	var unmatched []string
	for _, term := range plan.terms {
		matches := keyword.Expand(dict, term, plan.expansion)
		if len(matches) == 0 {
			unmatched = append(unmatched, term)
			continue
		}
		candidates = append(candidates, matches)
	}

	scored := ranking.NewRanker(plan.boost).Score(snap.Index, candidates)
	top := ranking.Top(scored, plan.limit)

	resp = &models.SearchResponse{
		Results:  make([]*models.SearchResult, 0, len(top)),
		Total:    len(scored),
		Query:    query.Query,
		Snapshot: snap.ID,
	}
	for i, s := range top {
		doc, ok := snap.Index.Get(s.ID)
		if !ok {
			continue
		}
		resp.Results = append(resp.Results, &models.SearchResult{
			ID:      s.ID,
			URI:     fileid.URI(s.ID),
			Title:   doc.Title(),
			Snippet: Snippet(doc.Body(), e.config.SnippetLength),
			Score:   s.Score,
			Rank:    i + 1,
			Terms:   s.Terms,
			Match:   s.Match,
		})
	}
	if len(unmatched) > 0 && e.config.SuggestionsOrDefault() {
		resp.Suggestions = suggest(snap.Index, unmatched)
	}
	resp.QueryTime = time.Since(start).Milliseconds()
	return resp, nil
}

// suggest returns the best dictionary term for each unmatched query term, deduplicated.
func suggest(idx *index.Index, unmatched []string) []string {
	checker := keyword.NewSpellChecker(idx.Dictionary(), idx, keyword.WithMaxSuggestions(1))
	seen := make(map[string]struct{})
	var out []string
	for _, term := range unmatched {
		for _, s := range checker.Suggest(term) {
			if _, ok := seen[s.Term]; ok {
				continue
			}
			seen[s.Term] = struct{}{}
			out = append(out, s.Term)
		}
	}
	return out
}

// publish swaps in idx as the next generation. Callers hold writeMu.
func (e *Engine) publish(idx *index.Index) *Snapshot {
	var gen uint64 = 1
	if cur := e.current.Load(); cur != nil {
		gen = cur.Generation + 1
	}
	snap := &Snapshot{
		ID:         uuid.NewString(),
		Generation: gen,
		BuiltAt:    time.Now().UTC(),
		Index:      idx,
	}
	e.current.Store(snap)
	e.metrics.SetIndexStats(idx.DocCount(), idx.TermCount(), gen)
	return snap
}
