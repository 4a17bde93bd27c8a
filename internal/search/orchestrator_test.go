package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsreach/contact-discovery/internal/config"
	"github.com/newsreach/contact-discovery/internal/counter"
	"github.com/newsreach/contact-discovery/internal/emailcheck"
	"github.com/newsreach/contact-discovery/internal/enhance"
	"github.com/newsreach/contact-discovery/internal/extract"
	"github.com/newsreach/contact-discovery/internal/fetch"
	"github.com/newsreach/contact-discovery/internal/model"
	"github.com/newsreach/contact-discovery/internal/ratelimit"
)

// --- Fakes ---

type fakeGenerator struct {
	reply          string
	err            error
	blockUntilDone bool
}

func (g *fakeGenerator) GenerateText(ctx context.Context, _ string) (string, error) {
	if g.blockUntilDone {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return g.reply, g.err
}

type fakeSource struct{}

func (fakeSource) FindPages(_ context.Context, query string, _ int) ([]string, error) {
	return []string{"https://pages.example/" + query}, nil
}

type fakeFetcher struct {
	blockUntilDone bool
}

func (f *fakeFetcher) FetchContent(ctx context.Context, url string) (*fetch.Result, error) {
	if f.blockUntilDone {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &fetch.Result{URL: url, Text: "page body"}, nil
}

type fakeExtractor struct {
	frags []extract.Fragment
	err   error
}

func (x *fakeExtractor) ExtractContacts(context.Context, string) ([]extract.Fragment, error) {
	return x.frags, x.err
}

type orchestratorFixture struct {
	cfg       *config.Config
	generator *fakeGenerator
	fetcher   *fakeFetcher
	extractor *fakeExtractor
	orch      *Orchestrator
}

func newFixture(t *testing.T, searchPoints int) *orchestratorFixture {
	t.Helper()
	cfg := config.NewForTesting()
	log := zerolog.Nop()

	limiter := ratelimit.New(counter.NewMemoryStore(), map[string]ratelimit.Policy{
		ratelimit.EndpointSearch: {Points: searchPoints, Window: time.Minute, Block: 5 * time.Minute},
	}, log)

	f := &orchestratorFixture{
		cfg:       cfg,
		generator: &fakeGenerator{reply: "1. tech journalists germany\n2. tech reporters berlin"},
		fetcher:   &fakeFetcher{},
		extractor: &fakeExtractor{frags: []extract.Fragment{
			{Name: "Lois Lane", Email: "lois.lane@dailyplanet.com", Role: "reporter", Confidence: 0.5},
			{Name: "Clark Kent", Email: "clark.kent@dailyplanet.com", Confidence: 0.8},
			{Email: "throwaway.user@mailinator.com", Confidence: 0.8},
		}},
	}
	enhancer := enhance.New(f.generator, cfg, log)
	validator := emailcheck.NewValidator(cfg, emailcheck.NewHeuristicClassifier(), log)
	f.orch = New(cfg, limiter, enhancer, fakeSource{}, f.fetcher, f.extractor, validator, log)
	return f
}

func waitStatus(t *testing.T, o *Orchestrator, id string, want model.SearchStatus) *model.SearchExecution {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := o.GetStatus(context.Background(), id)
		require.NoError(t, err)
		if rec.Status == want {
			return rec
		}
		if rec.Status.IsTerminal() {
			t.Fatalf("search %s reached %s (reason %q, errors %v), want %s", id, rec.Status, rec.Reason, rec.Errors, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("search %s never reached %s", id, want)
	return nil
}

// --- Tests ---

func TestOrchestrator_CompletesWithMergedResults(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	id, err := f.orch.Submit(ctx, model.SearchRequest{Query: "tech journalists", RequesterID: "u1"})
	require.NoError(t, err)

	rec := waitStatus(t, f.orch, id, model.StatusCompleted)
	assert.Equal(t, 100, rec.Progress)
	require.Len(t, rec.Results, 2)

	// Deduped across the two fetched pages and sorted by confidence; the
	// disposable address is filtered out by validation.
	assert.Equal(t, "clark.kent@dailyplanet.com", rec.Results[0].Email)
	assert.Equal(t, "lois.lane@dailyplanet.com", rec.Results[1].Email)
	assert.Equal(t, "reporter", rec.Results[1].Role)
	assert.NotEmpty(t, rec.Results[0].SourceURL)
}

func TestOrchestrator_MaxResultsTruncates(t *testing.T) {
	f := newFixture(t, 5)

	id, err := f.orch.Submit(context.Background(), model.SearchRequest{
		Query:       "tech journalists",
		RequesterID: "u1",
		Options:     model.SearchOptions{MaxResults: 1},
	})
	require.NoError(t, err)

	rec := waitStatus(t, f.orch, id, model.StatusCompleted)
	require.Len(t, rec.Results, 1)
	assert.Equal(t, "clark.kent@dailyplanet.com", rec.Results[0].Email)
}

func TestOrchestrator_RateLimitDenialFailsRun(t *testing.T) {
	f := newFixture(t, 0)

	id, err := f.orch.Submit(context.Background(), model.SearchRequest{Query: "q", RequesterID: "u1"})
	require.NoError(t, err)

	rec := waitStatus(t, f.orch, id, model.StatusFailed)
	assert.Equal(t, model.ReasonRateLimited, rec.Reason)
	assert.NotEmpty(t, rec.Errors)
}

func TestOrchestrator_ZeroQueriesFailsRun(t *testing.T) {
	f := newFixture(t, 5)
	f.generator.reply = "I cannot produce a list right now."

	id, err := f.orch.Submit(context.Background(), model.SearchRequest{Query: "q", RequesterID: "u1"})
	require.NoError(t, err)

	rec := waitStatus(t, f.orch, id, model.StatusFailed)
	assert.Equal(t, model.ReasonNoQueries, rec.Reason)
}

func TestOrchestrator_EnhancementErrorIsRecordedThenFails(t *testing.T) {
	f := newFixture(t, 5)
	f.generator.err = errors.New("model down")

	id, err := f.orch.Submit(context.Background(), model.SearchRequest{Query: "q", RequesterID: "u1"})
	require.NoError(t, err)

	rec := waitStatus(t, f.orch, id, model.StatusFailed)
	assert.Equal(t, model.ReasonNoQueries, rec.Reason)
	require.NotEmpty(t, rec.Errors)
	assert.Contains(t, rec.Errors[0], "model down")
}

func TestOrchestrator_ExtractionFailuresArePartial(t *testing.T) {
	f := newFixture(t, 5)
	f.extractor.frags = nil
	f.extractor.err = errors.New("malformed page")

	id, err := f.orch.Submit(context.Background(), model.SearchRequest{Query: "q", RequesterID: "u1"})
	require.NoError(t, err)

	// Per-source extraction failures never fail the run.
	rec := waitStatus(t, f.orch, id, model.StatusCompleted)
	assert.Empty(t, rec.Results)
	assert.NotEmpty(t, rec.Errors)
}

func TestOrchestrator_CancelStopsRun(t *testing.T) {
	f := newFixture(t, 5)
	f.fetcher.blockUntilDone = true
	ctx := context.Background()

	id, err := f.orch.Submit(ctx, model.SearchRequest{Query: "q", RequesterID: "u1"})
	require.NoError(t, err)
	waitStatus(t, f.orch, id, model.StatusProcessing)

	require.NoError(t, f.orch.Cancel(ctx, id))

	rec, err := f.orch.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, rec.Status)

	// Terminal states are absorbing: the draining goroutine cannot move the
	// record out of cancelled.
	time.Sleep(50 * time.Millisecond)
	rec, err = f.orch.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, rec.Status)
	assert.Less(t, rec.Progress, 100)
}

func TestOrchestrator_TimeoutFailsWithReason(t *testing.T) {
	f := newFixture(t, 5)
	f.cfg.SearchTimeout = 100 * time.Millisecond
	f.fetcher.blockUntilDone = true

	id, err := f.orch.Submit(context.Background(), model.SearchRequest{Query: "q", RequesterID: "u1"})
	require.NoError(t, err)

	rec := waitStatus(t, f.orch, id, model.StatusFailed)
	assert.Equal(t, model.ReasonTimeout, rec.Reason)
}

func TestOrchestrator_TimeoutDuringEnhancementReportsTimeout(t *testing.T) {
	f := newFixture(t, 5)
	f.cfg.SearchTimeout = 100 * time.Millisecond
	f.generator.blockUntilDone = true

	id, err := f.orch.Submit(context.Background(), model.SearchRequest{Query: "q", RequesterID: "u1"})
	require.NoError(t, err)

	rec := waitStatus(t, f.orch, id, model.StatusFailed)
	assert.Equal(t, model.ReasonTimeout, rec.Reason)
}

func TestOrchestrator_SubmitValidation(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	_, err := f.orch.Submit(ctx, model.SearchRequest{RequesterID: "u1"})
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = f.orch.Submit(ctx, model.SearchRequest{Query: "q"})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestOrchestrator_UnknownSearchID(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	_, err := f.orch.GetStatus(ctx, "nope")
	require.ErrorIs(t, err, model.ErrNotFound)
	require.ErrorIs(t, f.orch.Cancel(ctx, "nope"), model.ErrNotFound)
}
