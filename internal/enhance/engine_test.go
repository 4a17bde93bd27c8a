package enhance

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsreach/contact-discovery/internal/config"
	"github.com/newsreach/contact-discovery/internal/model"
)

// scriptedGenerator answers prompts from a function, counting calls.
type scriptedGenerator struct {
	respond func(prompt string) (string, error)
	calls   atomic.Int32
}

func (g *scriptedGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	return g.respond(prompt)
}

func newTestEngine(gen *scriptedGenerator) *Engine {
	return New(gen, config.NewForTesting(), zerolog.Nop())
}

func TestEnhanceQuery_Expansion(t *testing.T) {
	gen := &scriptedGenerator{respond: func(string) (string, error) {
		return "1. tech journalists germany\n2. Technology Reporters Berlin\n3. tech journalists germany\n4. startup press contacts", nil
	}}
	e := newTestEngine(gen)

	got, err := e.EnhanceQuery(context.Background(), Request{
		BaseQuery:   "tech journalists",
		Type:        model.EnhancementExpansion,
		TargetCount: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"tech journalists germany",
		"technology reporters berlin",
		"startup press contacts",
	}, got)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestEnhanceQuery_TargetCountTruncates(t *testing.T) {
	gen := &scriptedGenerator{respond: func(string) (string, error) {
		return "1. one query\n2. two query\n3. three query\n4. four query", nil
	}}
	e := newTestEngine(gen)

	got, err := e.EnhanceQuery(context.Background(), Request{
		BaseQuery:   "base",
		Type:        model.EnhancementExpansion,
		TargetCount: 2,
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestEnhanceQuery_EmptyBaseQuery(t *testing.T) {
	e := newTestEngine(&scriptedGenerator{respond: func(string) (string, error) { return "", nil }})
	_, err := e.EnhanceQuery(context.Background(), Request{Type: model.EnhancementExpansion})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestEnhanceQuery_UnknownType(t *testing.T) {
	e := newTestEngine(&scriptedGenerator{respond: func(string) (string, error) { return "", nil }})
	_, err := e.EnhanceQuery(context.Background(), Request{BaseQuery: "q", Type: "sideways"})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestEnhanceQuery_RetriesThenSucceeds(t *testing.T) {
	gen := &scriptedGenerator{}
	gen.respond = func(string) (string, error) {
		if gen.calls.Load() < 3 {
			return "", errors.New("model busy")
		}
		return "1. recovered query", nil
	}
	e := newTestEngine(gen)

	got, err := e.EnhanceQuery(context.Background(), Request{
		BaseQuery: "base",
		Type:      model.EnhancementRefinement,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"recovered query"}, got)
	assert.Equal(t, int32(3), gen.calls.Load())
}

func TestEnhanceQuery_RetryExhaustion(t *testing.T) {
	gen := &scriptedGenerator{respond: func(string) (string, error) {
		return "", errors.New("model down")
	}}
	e := newTestEngine(gen)

	_, err := e.EnhanceQuery(context.Background(), Request{
		BaseQuery: "base",
		Type:      model.EnhancementExpansion,
	})
	var aiErr *model.AIProviderError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, 3, aiErr.Attempts)
	assert.Equal(t, int32(3), gen.calls.Load())
}

func TestEnhanceQuery_LocalizationSkipsFailedLocales(t *testing.T) {
	gen := &scriptedGenerator{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, `"Germany"`) {
			return "", errors.New("locale model down")
		}
		return "1. journalistes tech france\n2. presse startup paris", nil
	}}
	e := newTestEngine(gen)

	got, err := e.EnhanceQuery(context.Background(), Request{
		BaseQuery: "tech journalists",
		Criteria: model.SearchCriteria{
			Countries: []string{"Germany", "France"},
		},
		Type: model.EnhancementLocalization,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"journalistes tech france", "presse startup paris"}, got)
	// Germany burned its retry budget; France succeeded first try.
	assert.Equal(t, int32(4), gen.calls.Load())
}

func TestEnhanceQuery_DiversityBoostAppendsCriteria(t *testing.T) {
	gen := &scriptedGenerator{respond: func(string) (string, error) {
		return "1. tech reporters", nil
	}}
	e := newTestEngine(gen)

	got, err := e.EnhanceQuery(context.Background(), Request{
		BaseQuery: "tech reporters",
		Criteria: model.SearchCriteria{
			Categories: []string{"fintech"},
			Beats:      []string{"startups"},
		},
		Type:           model.EnhancementExpansion,
		TargetCount:    10,
		DiversityBoost: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"tech reporters",
		"tech reporters fintech",
		"tech reporters startups",
	}, got)
}
