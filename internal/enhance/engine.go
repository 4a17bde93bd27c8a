// Package enhance turns one base query plus structured filters into a
// diversified, deduplicated set of search queries via an LLM capability.
package enhance

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/newsreach/contact-discovery/internal/config"
	"github.com/newsreach/contact-discovery/internal/llm"
	"github.com/newsreach/contact-discovery/internal/model"
	"github.com/newsreach/contact-discovery/internal/retry"
)

// Request describes one enhancement operation.
type Request struct {
	BaseQuery      string
	Criteria       model.SearchCriteria
	Type           model.EnhancementType
	TargetCount    int
	DiversityBoost bool
}

// Engine generates enhanced query sets. All LLM calls go through a single
// retry policy.
type Engine struct {
	gen   llm.TextGenerator
	retry retry.Policy
	log   zerolog.Logger
}

// New creates an Engine using cfg's retry settings.
func New(gen llm.TextGenerator, cfg *config.Config, log zerolog.Logger) *Engine {
	return &Engine{
		gen: gen,
		retry: retry.Policy{
			MaxAttempts:    cfg.AIMaxAttempts,
			InitialBackoff: cfg.AIBackoffInitial,
			MaxBackoff:     cfg.AIBackoffMax,
			CallTimeout:    cfg.LLMTimeout,
		},
		log: log,
	}
}

// EnhanceQuery produces up to req.TargetCount unique, normalized query
// strings. Localization failures for an individual locale are logged and
// skipped; other generation failures surface as *model.AIProviderError.
func (e *Engine) EnhanceQuery(ctx context.Context, req Request) ([]string, error) {
	if req.BaseQuery == "" {
		return nil, fmt.Errorf("%w: base query is required", model.ErrValidation)
	}
	if req.TargetCount <= 0 {
		req.TargetCount = 5
	}

	var candidates []string
	var err error
	switch req.Type {
	case model.EnhancementExpansion:
		candidates, err = e.generate(ctx, "expansion", expansionPrompt(req.BaseQuery, req.Criteria))
	case model.EnhancementRefinement:
		candidates, err = e.generate(ctx, "refinement", refinementPrompt(req.BaseQuery, req.Criteria))
	case model.EnhancementLocalization:
		candidates = e.localize(ctx, req)
	case model.EnhancementDiversification:
		candidates, err = e.generate(ctx, "diversification", diversificationPrompt(req.BaseQuery, req.Criteria))
	default:
		return nil, fmt.Errorf("%w: unknown enhancement type %q", model.ErrValidation, req.Type)
	}
	if err != nil {
		return nil, err
	}

	if req.DiversityBoost {
		candidates = applyDiversityBoost(candidates, req.Criteria)
	}

	return finalize(candidates, req.TargetCount), nil
}

func (e *Engine) generate(ctx context.Context, op, prompt string) ([]string, error) {
	raw, err := retry.Do(ctx, e.retry, op, func(callCtx context.Context) (string, error) {
		return e.gen.GenerateText(callCtx, prompt)
	})
	if err != nil {
		return nil, err
	}
	return parseNumberedList(raw), nil
}

// localize issues one LLM call per country and per language. A failed
// locale never aborts the others.
func (e *Engine) localize(ctx context.Context, req Request) []string {
	type locale struct{ kind, value string }
	var locales []locale
	for _, c := range req.Criteria.Countries {
		locales = append(locales, locale{kind: "country", value: c})
	}
	for _, l := range req.Criteria.Languages {
		locales = append(locales, locale{kind: "language", value: l})
	}

	var candidates []string
	for _, loc := range locales {
		variants, err := e.generate(ctx, "localization:"+loc.value, localizationPrompt(req.BaseQuery, loc.value, loc.kind))
		if err != nil {
			e.log.Warn().Err(err).Str("locale", loc.value).Str("kind", loc.kind).Msg("locale enhancement failed, skipping")
			continue
		}
		candidates = append(candidates, variants...)
	}
	return candidates
}

// applyDiversityBoost appends each category and beat as a suffix to every
// generated query, then removes exact duplicates order-preserving.
func applyDiversityBoost(queries []string, c model.SearchCriteria) []string {
	boosted := append([]string(nil), queries...)
	for _, q := range queries {
		for _, cat := range c.Categories {
			boosted = append(boosted, q+" "+cat)
		}
		for _, beat := range c.Beats {
			boosted = append(boosted, q+" "+beat)
		}
	}
	return dedupeExact(boosted)
}
