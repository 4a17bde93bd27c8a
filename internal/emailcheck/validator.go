// Package emailcheck scores candidate email addresses with layered
// heuristics and a TTL-bound result cache.
package emailcheck

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/newsreach/contact-discovery/internal/config"
	"github.com/newsreach/contact-discovery/internal/model"
	"github.com/newsreach/contact-discovery/internal/retry"
)

// Options selects the validation mode. Part of the cache key.
type Options struct {
	Strict bool
}

// Validator runs the multi-check email scoring pipeline.
type Validator struct {
	cfg        *config.Config
	classifier Classifier
	retry      retry.Policy
	cache      *resultCache
	log        zerolog.Logger
}

// NewValidator creates a Validator. classifier may be the built-in
// heuristic or an external capability adapter; its calls go through the
// same retry policy as the enhancement engine's.
func NewValidator(cfg *config.Config, classifier Classifier, log zerolog.Logger) *Validator {
	return &Validator{
		cfg:        cfg,
		classifier: classifier,
		retry: retry.Policy{
			MaxAttempts:    cfg.AIMaxAttempts,
			InitialBackoff: cfg.AIBackoffInitial,
			MaxBackoff:     cfg.AIBackoffMax,
			CallTimeout:    cfg.LLMTimeout,
		},
		cache: newResultCache(cfg.ValidationCacheTTL),
		log:   log,
	}
}

// ValidateEmail scores a single address. Within the cache TTL, repeat calls
// with the same (email, options) return the stored result verbatim without
// re-running any checks. Classifier failures are retried internally; one that
// persists surfaces as *model.AIProviderError, distinct from an
// invalid-email result.
func (v *Validator) ValidateEmail(ctx context.Context, email string, opts Options) (model.EmailValidationResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.EmailValidationResult{}, fmt.Errorf("%w: email is required", model.ErrValidation)
	}

	// Format gate short-circuits before any heuristic work.
	if fc := checkFormat(email); !fc.OK {
		return model.EmailValidationResult{
			Email:       email,
			IsValid:     false,
			Reasoning:   fc.Reasoning,
			Suggestions: fc.Suggestions,
		}, nil
	}

	key := cacheKey(email, opts)
	if cached, ok := v.cache.get(key); ok {
		return cached, nil
	}

	local, domain, _ := splitEmail(email)

	// The remaining checks are independent I/O/heuristic operations and run
	// concurrently.
	var (
		wg          sync.WaitGroup
		class       model.EmailClassification
		classErr    error
		domainCheck DomainCheck
		mxCheck     MXCheck
		dispCheck   DisposableCheck
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		class, classErr = retry.Do(ctx, v.retry, "classify_email", func(callCtx context.Context) (model.EmailClassification, error) {
			return v.classifier.ClassifyEmail(callCtx, email)
		})
	}()
	go func() {
		defer wg.Done()
		domainCheck = checkDomain(domain, v.cfg.DisposableDomains)
	}()
	go func() {
		defer wg.Done()
		mxCheck = checkMX(domain)
	}()
	go func() {
		defer wg.Done()
		dispCheck = checkDisposable(domain, v.cfg.DisposableDomains)
	}()
	wg.Wait()

	// classErr is already a *model.AIProviderError from the retry loop.
	if classErr != nil {
		return model.EmailValidationResult{}, classErr
	}

	res := v.combine(email, local, class, domainCheck, mxCheck, dispCheck, opts)
	v.cache.put(key, res)
	return res, nil
}

func (v *Validator) combine(email, local string, class model.EmailClassification, dc DomainCheck, mx MXCheck, disp DisposableCheck, opts Options) model.EmailValidationResult {
	res := model.EmailValidationResult{
		Email:        email,
		IsDisposable: disp.Disposable,
		IsTemporary:  disp.Disposable,
		DomainExists: dc.Exists,
		MXRecords:    mx.HasMX,
	}

	score := 0.0
	if class.Type == model.EmailTypeGeneric || class.Type == model.EmailTypeDepartment {
		score += v.cfg.SpamWeightGeneric
	}
	if disp.Disposable {
		score += v.cfg.SpamWeightDisposable
	}
	if !dc.Exists {
		score += v.cfg.SpamWeightNoDomain
	}
	if !mx.HasMX {
		score += v.cfg.SpamWeightNoMX
	}
	lowerLocal := strings.ToLower(local)
	if strings.Contains(lowerLocal, "test") || strings.Contains(lowerLocal, "demo") || strings.Contains(lowerLocal, "sample") {
		score += v.cfg.SpamWeightTestWord
	}
	if len(local) > 20 || len(local) < 3 {
		score += v.cfg.SpamWeightOddLength
	}
	if score > 1.0 {
		score = 1.0
	}
	res.SpamScore = score

	if opts.Strict {
		res.IsValid = dc.Exists && mx.HasMX && !disp.Disposable &&
			score <= v.cfg.SpamStrictThreshold && class.Type != model.EmailTypeUnknown
	} else {
		res.IsValid = !disp.Disposable && score <= v.cfg.SpamLenientThreshold
	}

	var reasons []string
	reasons = append(reasons, fmt.Sprintf("Email type: %s (confidence %.2f)", class.Type, class.Confidence))
	if disp.Disposable {
		reasons = append(reasons, fmt.Sprintf("Disposable email provider detected (%s)", disp.Provider))
	}
	if dc.Reasoning != "" && !disp.Disposable {
		reasons = append(reasons, dc.Reasoning)
	}
	if !mx.HasMX {
		reasons = append(reasons, "No MX records expected for domain")
	}
	if res.IsValid {
		reasons = append(reasons, "Passed validation")
	}
	res.Reasoning = strings.Join(reasons, "; ")

	var suggestions []string
	suggestions = append(suggestions, class.Suggestions...)
	if score > 0.5 {
		suggestions = append(suggestions, "Consider a professional email address for outreach")
	}
	res.Suggestions = dedupeStrings(suggestions)

	return res
}

// ValidateMultiple validates a list, returning results in input order.
func (v *Validator) ValidateMultiple(ctx context.Context, emails []string, opts Options) ([]model.EmailValidationResult, error) {
	results := make([]model.EmailValidationResult, 0, len(emails))
	for _, e := range emails {
		res, err := v.ValidateEmail(ctx, e, opts)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// BatchValidate chunks the input and sleeps between chunks to respect
// external quotas. Results keep input order.
func (v *Validator) BatchValidate(ctx context.Context, emails []string, opts Options, batchSize int, delay time.Duration) ([]model.EmailValidationResult, error) {
	if batchSize <= 0 {
		batchSize = 10
	}
	results := make([]model.EmailValidationResult, 0, len(emails))
	for start := 0; start < len(emails); start += batchSize {
		end := start + batchSize
		if end > len(emails) {
			end = len(emails)
		}
		chunk, err := v.ValidateMultiple(ctx, emails[start:end], opts)
		if err != nil {
			return nil, err
		}
		results = append(results, chunk...)

		if end < len(emails) && delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return results, nil
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
