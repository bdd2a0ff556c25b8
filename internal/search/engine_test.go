package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/mdsearch/internal/analysis"
	"github.com/hyperjump/mdsearch/internal/corpus"
	"github.com/hyperjump/mdsearch/internal/metrics"
	"github.com/hyperjump/mdsearch/internal/models"
)

func setupGuideCorpus() corpus.Static {
	return corpus.Static{
		models.NewDocument("A", "Setup Guide", "Install the CLI tool."),
		models.NewDocument("B", "Troubleshooting", "Common setup issues."),
	}
}

func newBuiltEngine(t *testing.T, docs corpus.Static, opts ...EngineOption) *Engine {
	t.Helper()
	e := NewEngine(nil, append([]EngineOption{WithSource(docs)}, opts...)...)
	_, err := e.Rebuild(context.Background())
	require.NoError(t, err)
	return e
}

func search(t *testing.T, e *Engine, q models.SearchQuery) *models.SearchResponse {
	t.Helper()
	resp, err := e.Search(context.Background(), &q)
	require.NoError(t, err)
	return resp
}

func resultIDs(resp *models.SearchResponse) []string {
	out := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		out[i] = r.ID
	}
	return out
}

func boolPtr(b bool) *bool { return &b }
func floatPtr(f float64) *float64 { return &f }

func TestEngine_SetupGuideScenario(t *testing.T) {
	e := newBuiltEngine(t, setupGuideCorpus())

	resp := search(t, e, models.SearchQuery{Query: "setup", Limit: 5})
	require.Equal(t, []string{"A", "B"}, resultIDs(resp))
	assert.Greater(t, resp.Results[0].Score, resp.Results[1].Score)
	assert.Equal(t, "Setup Guide", resp.Results[0].Title)
	assert.Equal(t, "Install the CLI tool.", resp.Results[0].Snippet)
	assert.Equal(t, 1, resp.Results[0].Rank)
	assert.Equal(t, 2, resp.Results[1].Rank)
	assert.Equal(t, []string{"title"}, resp.Results[0].Match["setup"])
	assert.Equal(t, []string{"body"}, resp.Results[1].Match["setup"])
	assert.Equal(t, e.Snapshot().ID, resp.Snapshot)
	assert.Equal(t, 2, resp.Total)
}

func TestEngine_ExactMatchCompleteness(t *testing.T) {
	docs := corpus.Static{
		models.NewDocument("intro", "Introduction", "Welcome to the project. Read this first."),
		models.NewDocument("install", "Installing", "Run make install, then configure the daemon."),
		models.NewDocument("api", "HTTP API", "POST /api/v1/search returns JSON results."),
		models.NewDocument("faq", "FAQ", "Ünïcode Straße and CAFÉ are normalized."),
		models.NewDocument("empty-title", "", "body only document"),
	}
	e := newBuiltEngine(t, docs)

	for _, doc := range docs {
		for _, text := range []string{doc.Title(), doc.Body()} {
			for _, term := range analysis.UniqueTerms(text) {
				resp := search(t, e, models.SearchQuery{Query: term, Limit: 100})
				assert.Contains(t, resultIDs(resp), doc.ID, "query %q should return %s", term, doc.ID)
			}
		}
	}
}

func TestEngine_PrefixMatching(t *testing.T) {
	docs := corpus.Static{
		models.NewDocument("d1", "", "document storage"),
		models.NewDocument("d2", "", "docker images"),
		models.NewDocument("d3", "", "dog walking"),
		models.NewDocument("d4", "", "doc"),
		models.NewDocument("d5", "", "adoc syntax"),
	}
	e := newBuiltEngine(t, docs)

	resp := search(t, e, models.SearchQuery{Query: "doc", Limit: 10})
	assert.ElementsMatch(t, []string{"d1", "d2", "d4"}, resultIDs(resp))
	for _, r := range resp.Results {
		for _, term := range r.Terms {
			assert.True(t, strings.HasPrefix(term, "doc"), "matched term %q lacks prefix", term)
		}
	}
	assert.Equal(t, "d4", resp.Results[0].ID, "exact match should outrank prefix matches")

	resp = search(t, e, models.SearchQuery{Query: "doc", Limit: 10, Prefix: boolPtr(false)})
	assert.Equal(t, []string{"d4"}, resultIDs(resp))
}

func TestEngine_FuzzyMatching(t *testing.T) {
	docs := corpus.Static{
		models.NewDocument("i", "", "install the package"),
		models.NewDocument("o", "", "other words entirely"),
	}
	e := newBuiltEngine(t, docs)

	resp := search(t, e, models.SearchQuery{Query: "imstall"})
	require.Equal(t, []string{"i"}, resultIDs(resp), "distance 1 within threshold floor(0.2*7)=1")
	assert.Equal(t, []string{"install"}, resp.Results[0].Terms)

	resp = search(t, e, models.SearchQuery{Query: "imsrall"})
	assert.Empty(t, resp.Results, "distance 2 exceeds the threshold")

	resp = search(t, e, models.SearchQuery{Query: "imsrall", Fuzzy: floatPtr(2)})
	assert.Equal(t, []string{"i"}, resultIDs(resp), "absolute fuzzy distance")

	resp = search(t, e, models.SearchQuery{Query: "imstall", Fuzzy: floatPtr(0)})
	assert.Empty(t, resp.Results, "fuzzy disabled")

	resp = search(t, e, models.SearchQuery{Query: "insta"})
	assert.Equal(t, []string{"i"}, resultIDs(resp))
	resp = search(t, e, models.SearchQuery{Query: "imsta"})
	assert.Empty(t, resp.Results, "5-rune query allows one edit but no prefix of install is within it")
}

func TestEngine_FieldBoost(t *testing.T) {
	docs := corpus.Static{
		models.NewDocument("body-doc", "alpha beta", "gamma target"),
		models.NewDocument("title-doc", "alpha target", "gamma delta"),
	}
	e := newBuiltEngine(t, docs)

	resp := search(t, e, models.SearchQuery{Query: "target"})
	require.Equal(t, []string{"title-doc", "body-doc"}, resultIDs(resp))
	assert.Greater(t, resp.Results[0].Score, resp.Results[1].Score)

	resp = search(t, e, models.SearchQuery{Query: "target", Boost: map[string]float64{"body": 5}})
	assert.Equal(t, []string{"body-doc", "title-doc"}, resultIDs(resp), "per-query boost merges over defaults")

	resp = search(t, e, models.SearchQuery{Query: "target", Boost: map[string]float64{"title": 0}})
	assert.Equal(t, []string{"body-doc"}, resultIDs(resp), "zero-score documents are never returned")
}

func TestEngine_RebuildDeterminism(t *testing.T) {
	var docs corpus.Static
	for i := 0; i < 20; i++ {
		docs = append(docs, models.NewDocument(
			fmt.Sprintf("doc-%02d", i),
			fmt.Sprintf("Guide part %d", i%3),
			strings.Repeat("setup configure install ", i%4+1)+fmt.Sprintf("section %d", i),
		))
	}
	e := newBuiltEngine(t, docs)
	first := search(t, e, models.SearchQuery{Query: "setup guide instal", Limit: 7})
	firstSnap := e.Snapshot()

	_, err := e.Rebuild(context.Background())
	require.NoError(t, err)
	second := search(t, e, models.SearchQuery{Query: "setup guide instal", Limit: 7})

	require.Len(t, second.Results, 7)
	assert.Equal(t, resultIDs(first), resultIDs(second))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].Score, second.Results[i].Score)
	}
	assert.NotEqual(t, firstSnap.ID, e.Snapshot().ID)
	assert.Equal(t, firstSnap.Generation+1, e.Snapshot().Generation)
}

func TestEngine_LimitEnforcement(t *testing.T) {
	var docs corpus.Static
	for i := 1; i <= 5; i++ {
		docs = append(docs, models.NewDocument(
			fmt.Sprintf("d%d", i), "", strings.Repeat("alpha ", i)+strings.Repeat("filler ", 6-i)))
	}
	e := newBuiltEngine(t, docs)

	all := search(t, e, models.SearchQuery{Query: "alpha", Limit: 10})
	require.Len(t, all.Results, 5)
	assert.Equal(t, []string{"d5", "d4", "d3", "d2", "d1"}, resultIDs(all))

	two := search(t, e, models.SearchQuery{Query: "alpha", Limit: 2})
	assert.Equal(t, resultIDs(all)[:2], resultIDs(two))
	assert.Equal(t, 5, two.Total)

	def := search(t, e, models.SearchQuery{Query: "alpha"})
	assert.Len(t, def.Results, models.DefaultLimit)
	neg := search(t, e, models.SearchQuery{Query: "alpha", Limit: -1})
	assert.Len(t, neg.Results, models.DefaultLimit)
}

func TestEngine_RemoveDocument(t *testing.T) {
	docs := corpus.Static{
		models.NewDocument("keep", "Keeper", "shared words only"),
		models.NewDocument("drop", "Dropper", "shared words and zebra"),
	}
	e := newBuiltEngine(t, docs)
	require.Len(t, search(t, e, models.SearchQuery{Query: "zebra"}).Results, 1)

	removed, err := e.Remove("drop")
	require.NoError(t, err)
	assert.True(t, removed)

	assert.Empty(t, search(t, e, models.SearchQuery{Query: "zebra"}).Results)
	idx := e.Snapshot().Index
	assert.False(t, idx.Dictionary().Contains("zebra"))
	assert.False(t, idx.Dictionary().Contains("dropper"))
	assert.True(t, idx.Dictionary().Contains("shared"))
	assert.NoError(t, idx.CheckInvariants())

	gen := e.Snapshot().Generation
	removed, err = e.Remove("drop")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, gen, e.Snapshot().Generation, "removing an absent document publishes nothing")
}

func TestEngine_RemoveTree(t *testing.T) {
	docs := corpus.Static{
		models.NewDocument("/docs/guide.md", "Guide", "setup"),
		models.NewDocument("/docs/sub/a.md", "A", "setup"),
		models.NewDocument("/docs/sub/b.md", "B", "setup"),
		models.NewDocument("/docs/subway.md", "Subway", "setup"),
	}
	e := newBuiltEngine(t, docs)
	gen := e.Snapshot().Generation

	n, err := e.RemoveTree("/docs/sub")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, gen+1, e.Snapshot().Generation, "one snapshot per tree removal")
	assert.Equal(t, []string{"/docs/guide.md", "/docs/subway.md"}, resultIDs(search(t, e, models.SearchQuery{Query: "setup"})))

	n, err = e.RemoveTree("/docs/guide.md")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = e.RemoveTree("/elsewhere")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEngine_PutReplacesDocument(t *testing.T) {
	e := newBuiltEngine(t, setupGuideCorpus())
	before := e.Snapshot()

	_, err := e.Put(models.NewDocument("A", "Quickstart", "Nothing about configuration."))
	require.NoError(t, err)

	resp := search(t, e, models.SearchQuery{Query: "setup"})
	assert.Equal(t, []string{"B"}, resultIDs(resp))
	assert.Equal(t, []string{"A"}, resultIDs(search(t, e, models.SearchQuery{Query: "quickstart"})))
	assert.NoError(t, e.Snapshot().Index.CheckInvariants())

	doc, ok := before.Index.Get("A")
	require.True(t, ok, "earlier snapshots are immutable")
	assert.Equal(t, "Setup Guide", doc.Title())

	_, err = e.Put(models.NewDocument("", "t", "b"))
	assert.ErrorIs(t, err, models.ErrInvalidDocument)
}

func TestEngine_Errors(t *testing.T) {
	e := NewEngine(nil)
	ctx := context.Background()

	_, err := e.Search(ctx, &models.SearchQuery{Query: "setup"})
	assert.ErrorIs(t, err, models.ErrIndexNotBuilt)
	_, err = e.Put(models.NewDocument("x", "", ""))
	assert.ErrorIs(t, err, models.ErrIndexNotBuilt)
	_, err = e.Remove("x")
	assert.ErrorIs(t, err, models.ErrIndexNotBuilt)
	_, err = e.Get("x")
	assert.ErrorIs(t, err, models.ErrIndexNotBuilt)
	_, err = e.List()
	assert.ErrorIs(t, err, models.ErrIndexNotBuilt)
	_, err = e.Rebuild(ctx)
	assert.Error(t, err, "rebuild needs a source")
	assert.False(t, e.Status().Built)

	_, err = e.Build(nil)
	require.NoError(t, err)
	_, err = e.Search(ctx, &models.SearchQuery{Query: ""})
	assert.ErrorIs(t, err, models.ErrInvalidQuery)
	_, err = e.Search(ctx, &models.SearchQuery{Query: "   "})
	assert.ErrorIs(t, err, models.ErrInvalidQuery)
	_, err = e.Search(ctx, nil)
	assert.ErrorIs(t, err, models.ErrInvalidQuery)

	resp, err := e.Search(ctx, &models.SearchQuery{Query: "!!! ---"})
	require.NoError(t, err, "a query with no terms is an empty result, not an error")
	assert.Empty(t, resp.Results)
}

func TestEngine_FailedRebuildKeepsSnapshot(t *testing.T) {
	boom := errors.New("disk gone")
	calls := 0
	src := sourceFunc(func(ctx context.Context) ([]*models.Document, error) {
		calls++
		if calls > 1 {
			return nil, boom
		}
		return setupGuideCorpus().Load(ctx)
	})
	m := metrics.New()
	e := NewEngine(nil, WithSource(src), WithMetrics(m))
	_, err := e.Rebuild(context.Background())
	require.NoError(t, err)
	snap := e.Snapshot()

	_, err = e.Rebuild(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Same(t, snap, e.Snapshot())
	assert.Len(t, search(t, e, models.SearchQuery{Query: "setup"}).Results, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexRebuildsTotal.WithLabelValues(metrics.StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexRebuildsTotal.WithLabelValues(metrics.StatusFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues(metrics.ResultHit)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.IndexDocuments))
}

type sourceFunc func(ctx context.Context) ([]*models.Document, error)

func (f sourceFunc) Load(ctx context.Context) ([]*models.Document, error) { return f(ctx) }

func TestEngine_Suggestions(t *testing.T) {
	e := newBuiltEngine(t, setupGuideCorpus())

	resp := search(t, e, models.SearchQuery{Query: "gide"})
	assert.Empty(t, resp.Results)
	assert.Equal(t, []string{"guide"}, resp.Suggestions)

	resp = search(t, e, models.SearchQuery{Query: "setup gide"})
	assert.Len(t, resp.Results, 2)
	assert.Equal(t, []string{"guide"}, resp.Suggestions)

	resp = search(t, e, models.SearchQuery{Query: "setup"})
	assert.Empty(t, resp.Suggestions)
}

func TestEngine_GetListStatus(t *testing.T) {
	e := newBuiltEngine(t, corpus.Static{
		models.NewDocument("/docs/b.md", "Bee", "b"),
		models.NewDocument("note-1", "Note", "n"),
		models.NewDocument("/docs/a.md", "Ay", "a"),
	})

	refs, err := e.List()
	require.NoError(t, err)
	assert.Equal(t, []models.DocumentRef{
		{ID: "/docs/a.md", URI: "file:///docs/a.md", Title: "Ay"},
		{ID: "/docs/b.md", URI: "file:///docs/b.md", Title: "Bee"},
		{ID: "note-1", Title: "Note"},
	}, refs)

	doc, err := e.Get("/docs/a.md")
	require.NoError(t, err)
	assert.Equal(t, "Ay", doc.Title())
	doc.Fields["title"] = "mutated"
	again, _ := e.Get("/docs/a.md")
	assert.Equal(t, "Ay", again.Title(), "Get returns a copy")

	_, err = e.Get("missing")
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)

	st := e.Status()
	assert.True(t, st.Built)
	assert.Equal(t, 3, st.Documents)
	assert.Equal(t, uint64(1), st.Generation)
	assert.Equal(t, e.Snapshot().Index.TermCount(), st.Terms)
	require.NotNil(t, st.BuiltAt)
	assert.Equal(t, e.Snapshot().BuiltAt, *st.BuiltAt)
}

func TestEngine_SnippetTruncation(t *testing.T) {
	body := "setup " + strings.Repeat("x", 300)
	e := newBuiltEngine(t, corpus.Static{models.NewDocument("long", "Long", body)})
	resp := search(t, e, models.SearchQuery{Query: "setup"})
	require.Len(t, resp.Results, 1)
	assert.Equal(t, body[:200]+"...", resp.Results[0].Snippet)
}

func TestEngine_ConcurrentQueriesDuringMutation(t *testing.T) {
	e := newBuiltEngine(t, setupGuideCorpus())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				resp, err := e.Search(ctx, &models.SearchQuery{Query: "setup"})
				if err != nil {
					errs <- err
					return
				}
				if len(resp.Results) < 2 {
					errs <- fmt.Errorf("saw %d results", len(resp.Results))
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if _, err := e.Put(models.NewDocument(fmt.Sprintf("extra-%d", i), "Setup extra", "more setup")); err != nil {
				errs <- err
				return
			}
		}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			if _, err := e.Rebuild(ctx); err != nil {
				errs <- err
				return
			}
		}
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	assert.NoError(t, e.Snapshot().Index.CheckInvariants())
}
