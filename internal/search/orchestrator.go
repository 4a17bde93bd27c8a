// Package search drives the end-to-end contact discovery lifecycle:
// admission, query enhancement, bounded-concurrency fetching, extraction,
// validation and dedup/ranking, with progress reporting throughout.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/newsreach/contact-discovery/internal/config"
	"github.com/newsreach/contact-discovery/internal/emailcheck"
	"github.com/newsreach/contact-discovery/internal/enhance"
	"github.com/newsreach/contact-discovery/internal/extract"
	"github.com/newsreach/contact-discovery/internal/fetch"
	"github.com/newsreach/contact-discovery/internal/model"
	"github.com/newsreach/contact-discovery/internal/ratelimit"
)

// Progress milestones. Progress is monotonically non-decreasing until the
// execution reaches a terminal state.
const (
	progressEnhanced  = 20
	progressFetchCap  = 70
	progressValidated = 90
	progressDone      = 100
)

// execution pairs the externally visible record with its cancel handle.
// Only the goroutine that owns the search id mutates the record; the mutex
// exists so readers can take consistent copies.
type execution struct {
	mu     sync.Mutex
	rec    model.SearchExecution
	cancel context.CancelFunc
}

// Orchestrator composes the rate limiter, enhancement engine and the
// external fetch/extract capabilities into the discovery state machine.
type Orchestrator struct {
	cfg       *config.Config
	limiter   *ratelimit.Limiter
	enhancer  *enhance.Engine
	source    fetch.PageSource
	fetcher   fetch.ContentFetcher
	extractor extract.ContactExtractor
	validator *emailcheck.Validator
	log       zerolog.Logger

	mu         sync.RWMutex
	executions map[string]*execution
}

// New wires an Orchestrator from its dependencies.
func New(
	cfg *config.Config,
	limiter *ratelimit.Limiter,
	enhancer *enhance.Engine,
	source fetch.PageSource,
	fetcher fetch.ContentFetcher,
	extractor extract.ContactExtractor,
	validator *emailcheck.Validator,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		limiter:    limiter,
		enhancer:   enhancer,
		source:     source,
		fetcher:    fetcher,
		extractor:  extractor,
		validator:  validator,
		log:        log,
		executions: make(map[string]*execution),
	}
}

// Submit accepts a SearchRequest, registers a pending execution and starts
// the search asynchronously. It returns the new search id.
func (o *Orchestrator) Submit(_ context.Context, req model.SearchRequest) (string, error) {
	if req.Query == "" {
		return "", fmt.Errorf("%w: query is required", model.ErrValidation)
	}
	if req.RequesterID == "" {
		return "", fmt.Errorf("%w: requesterId is required", model.ErrValidation)
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	// The run outlives the submit call; the global budget is the only
	// deadline.
	runCtx, cancel := context.WithTimeout(context.Background(), o.cfg.SearchTimeout)

	e := &execution{
		rec: model.SearchExecution{
			ID:        id,
			Status:    model.StatusPending,
			Results:   []model.CandidateContact{},
			CreatedAt: now,
			UpdatedAt: now,
		},
		cancel: cancel,
	}

	o.mu.Lock()
	o.executions[id] = e
	o.mu.Unlock()

	go o.run(runCtx, cancel, id, req)
	return id, nil
}

// GetStatus returns a copy of the execution record for id.
func (o *Orchestrator) GetStatus(_ context.Context, id string) (*model.SearchExecution, error) {
	o.mu.RLock()
	e, ok := o.executions[id]
	o.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: search %s", model.ErrNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	rec := e.rec
	rec.Results = append([]model.CandidateContact(nil), e.rec.Results...)
	rec.Errors = append([]string(nil), e.rec.Errors...)
	return &rec, nil
}

// Cancel stops issuing new work for id and flips the execution to
// cancelled. In-flight external calls are not aborted.
func (o *Orchestrator) Cancel(_ context.Context, id string) error {
	o.mu.RLock()
	e, ok := o.executions[id]
	o.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: search %s", model.ErrNotFound, id)
	}

	e.mu.Lock()
	if e.rec.Status.IsTerminal() {
		e.mu.Unlock()
		return nil
	}
	e.rec.Status = model.StatusCancelled
	e.rec.UpdatedAt = time.Now().UTC()
	e.mu.Unlock()

	e.cancel()
	return nil
}

func (o *Orchestrator) run(ctx context.Context, cancel context.CancelFunc, id string, req model.SearchRequest) {
	defer cancel()

	log := o.log.With().Str("search_id", id).Str("correlation_id", uuid.NewString()).Logger()

	// Admission.
	if _, err := o.limiter.CheckLimit(ctx, req.RequesterID, ratelimit.EndpointSearch, 1); err != nil {
		var rle *model.RateLimitError
		if errors.As(err, &rle) {
			log.Info().Int("retry_after_s", rle.RetryAfterSeconds).Msg("search denied by rate limiter")
			o.fail(id, model.ReasonRateLimited, err.Error())
			return
		}
		log.Error().Stack().Err(err).Msg("admission check failed")
		o.fail(id, model.ReasonInternal, err.Error())
		return
	}
	if !o.transition(id, model.StatusPending, model.StatusProcessing) {
		return
	}

	// Stage 1: query enhancement.
	queries, err := o.enhancer.EnhanceQuery(ctx, enhance.Request{
		BaseQuery:      req.Query,
		Criteria:       req.Criteria,
		Type:           enhancementTypeFor(req),
		TargetCount:    o.cfg.SearchMaxQueries,
		DiversityBoost: req.Options.DiversityBoost,
	})
	if err != nil {
		log.Warn().Err(err).Msg("query enhancement failed")
		o.appendError(id, err.Error())
	}
	// Budget exhaustion during enhancement is a timeout, not a query failure.
	if timedOut(ctx) {
		o.failTimeout(id)
		return
	}
	if len(queries) == 0 {
		o.fail(id, model.ReasonNoQueries, "query enhancement produced zero queries")
		return
	}
	o.setProgress(id, progressEnhanced)
	log.Info().Int("queries", len(queries)).Msg("query set ready")

	// Stage 2: bounded-concurrency fetch and extraction. Partial failures
	// are recorded and never abort the batch.
	fragments := o.fetchAll(ctx, id, log, queries)
	if timedOut(ctx) {
		o.failTimeout(id)
		return
	}

	// Stage 3: email validation.
	candidates := o.validateAll(ctx, id, log, fragments)
	o.setProgress(id, progressValidated)
	if timedOut(ctx) {
		// Keep whatever was validated before the budget ran out.
		o.setResults(id, mergeCandidates(candidates))
		o.failTimeout(id)
		return
	}

	// Stage 4: dedup, rank, finalize.
	merged := mergeCandidates(candidates)
	maxResults := req.Options.MaxResults
	if maxResults <= 0 || maxResults > o.cfg.SearchMaxResults {
		maxResults = o.cfg.SearchMaxResults
	}
	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	o.setResults(id, merged)
	o.setProgress(id, progressDone)
	o.transition(id, model.StatusProcessing, model.StatusCompleted)
	log.Info().Int("results", len(merged)).Msg("search completed")
}

type sourcedFragment struct {
	frag extract.Fragment
	url  string
}

func (o *Orchestrator) fetchAll(ctx context.Context, id string, log zerolog.Logger, queries []string) []sourcedFragment {
	var (
		mu        sync.Mutex
		fragments []sourcedFragment
		done      int
		wg        sync.WaitGroup
	)
	sem := make(chan struct{}, o.cfg.FetchConcurrency)

	for _, q := range queries {
		// Stop issuing new work once cancelled or out of budget.
		if ctx.Err() != nil || o.isTerminal(id) {
			break
		}
		wg.Add(1)
		go func(query string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			urls, err := o.source.FindPages(ctx, query, 3)
			if err != nil {
				o.appendError(id, fmt.Sprintf("page lookup failed for %q: %v", query, err))
			}
			for _, u := range urls {
				if ctx.Err() != nil || o.isTerminal(id) {
					return
				}
				res, err := o.fetcher.FetchContent(ctx, u)
				if err != nil {
					o.appendError(id, fmt.Sprintf("fetch failed: %v", err))
					continue
				}
				frags, err := o.extractor.ExtractContacts(ctx, res.Text)
				if err != nil {
					extErr := &model.ExtractionError{SourceURL: u, Err: err}
					log.Warn().Err(extErr).Msg("skipping source")
					o.appendError(id, extErr.Error())
					continue
				}
				mu.Lock()
				for _, f := range frags {
					fragments = append(fragments, sourcedFragment{frag: f, url: u})
				}
				mu.Unlock()
			}

			mu.Lock()
			done++
			progress := progressEnhanced + (progressFetchCap-progressEnhanced)*done/len(queries)
			mu.Unlock()
			o.setProgress(id, progress)
		}(q)
	}
	wg.Wait()

	return fragments
}

func (o *Orchestrator) validateAll(ctx context.Context, id string, log zerolog.Logger, fragments []sourcedFragment) []model.CandidateContact {
	opts := emailcheck.Options{Strict: o.cfg.ValidationStrict}
	candidates := make([]model.CandidateContact, 0, len(fragments))

	for _, sf := range fragments {
		if ctx.Err() != nil || o.isTerminal(id) {
			break
		}
		res, err := o.validator.ValidateEmail(ctx, sf.frag.Email, opts)
		if err != nil {
			log.Warn().Err(err).Str("email", sf.frag.Email).Msg("validation failed, skipping fragment")
			o.appendError(id, err.Error())
			continue
		}
		if !res.IsValid {
			continue
		}
		candidates = append(candidates, model.CandidateContact{
			Name:         sf.frag.Name,
			Email:        sf.frag.Email,
			Role:         sf.frag.Role,
			Organization: sf.frag.Organization,
			SourceURL:    sf.url,
			Confidence:   sf.frag.Confidence,
			SpamScore:    res.SpamScore,
		})
	}
	return candidates
}

// enhancementTypeFor picks localization when the request carries locale
// criteria, expansion otherwise.
func enhancementTypeFor(req model.SearchRequest) model.EnhancementType {
	if len(req.Criteria.Countries) > 0 || len(req.Criteria.Languages) > 0 {
		return model.EnhancementLocalization
	}
	return model.EnhancementExpansion
}

func timedOut(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}

// --- execution record helpers ---
// All writes honor the transition table: terminal states are absorbing and
// progress never decreases.

func (o *Orchestrator) get(id string) *execution {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.executions[id]
}

func (o *Orchestrator) isTerminal(id string) bool {
	e := o.get(id)
	if e == nil {
		return true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec.Status.IsTerminal()
}

func (o *Orchestrator) transition(id string, from, to model.SearchStatus) bool {
	e := o.get(id)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec.Status != from || e.rec.Status.IsTerminal() {
		return false
	}
	e.rec.Status = to
	e.rec.UpdatedAt = time.Now().UTC()
	return true
}

func (o *Orchestrator) fail(id, reason, msg string) {
	e := o.get(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec.Status.IsTerminal() {
		return
	}
	e.rec.Status = model.StatusFailed
	e.rec.Reason = reason
	if msg != "" {
		e.rec.Errors = append(e.rec.Errors, msg)
	}
	e.rec.UpdatedAt = time.Now().UTC()
}

// failTimeout marks the run failed with reason=timeout, preserving whatever
// partial results were already recorded.
func (o *Orchestrator) failTimeout(id string) {
	o.fail(id, model.ReasonTimeout, "search budget exceeded")
}

func (o *Orchestrator) setProgress(id string, p int) {
	e := o.get(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec.Status.IsTerminal() {
		return
	}
	if p > progressDone {
		p = progressDone
	}
	if p > e.rec.Progress {
		e.rec.Progress = p
		e.rec.UpdatedAt = time.Now().UTC()
	}
}

func (o *Orchestrator) setResults(id string, results []model.CandidateContact) {
	e := o.get(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec.Status == model.StatusCancelled || e.rec.Status == model.StatusCompleted {
		return
	}
	e.rec.Results = results
	e.rec.UpdatedAt = time.Now().UTC()
}

func (o *Orchestrator) appendError(id, msg string) {
	e := o.get(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rec.Errors = append(e.rec.Errors, msg)
	e.rec.UpdatedAt = time.Now().UTC()
}
