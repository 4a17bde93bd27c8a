package emailcheck

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsreach/contact-discovery/internal/config"
	"github.com/newsreach/contact-discovery/internal/model"
)

// countingClassifier wraps the heuristic classifier and counts invocations
// so cache and retry behavior are observable. The first `failures` calls
// return a transient error; a non-nil err makes every call fail.
type countingClassifier struct {
	inner    Classifier
	calls    atomic.Int32
	failures int32
	err      error
}

func (c *countingClassifier) ClassifyEmail(ctx context.Context, email string) (model.EmailClassification, error) {
	n := c.calls.Add(1)
	if c.err != nil {
		return model.EmailClassification{}, c.err
	}
	if n <= c.failures {
		return model.EmailClassification{}, errors.New("transient: model busy")
	}
	return c.inner.ClassifyEmail(ctx, email)
}

func newTestValidator(t *testing.T) (*Validator, *countingClassifier) {
	t.Helper()
	cls := &countingClassifier{inner: NewHeuristicClassifier()}
	return NewValidator(config.NewForTesting(), cls, zerolog.Nop()), cls
}

func TestValidateEmail_FormatFailures(t *testing.T) {
	v, cls := newTestValidator(t)
	ctx := context.Background()

	cases := []struct {
		email     string
		reasoning string
	}{
		{"not-an-email", "Email must contain @ symbol"},
		{"user@.example.com", "Email domain cannot start with a dot"},
		{"user..name@example.com", "Email contains consecutive dots"},
		{".user@example.com", "Email local part cannot start or end with a dot"},
		{"user@nodot", "Email format is invalid"},
	}
	for _, tc := range cases {
		res, err := v.ValidateEmail(ctx, tc.email, Options{})
		require.NoError(t, err, tc.email)
		assert.False(t, res.IsValid, tc.email)
		assert.Equal(t, tc.reasoning, res.Reasoning, tc.email)
	}

	// Format failures short-circuit before the classifier runs.
	assert.Equal(t, int32(0), cls.calls.Load())
}

func TestValidateEmail_PersonalAddressPasses(t *testing.T) {
	v, _ := newTestValidator(t)

	res, err := v.ValidateEmail(context.Background(), "jane.doe@dailyplanet.com", Options{})
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.True(t, res.DomainExists)
	assert.True(t, res.MXRecords)
	assert.False(t, res.IsDisposable)
	assert.InDelta(t, 0.0, res.SpamScore, 0.001)
	assert.Contains(t, res.Reasoning, "Email type: personal")
	assert.Contains(t, res.Reasoning, "Passed validation")
}

func TestValidateEmail_DisposableFailsBothModes(t *testing.T) {
	v, _ := newTestValidator(t)
	ctx := context.Background()

	for _, strict := range []bool{false, true} {
		res, err := v.ValidateEmail(ctx, "someone.real@mailinator.com", Options{Strict: strict})
		require.NoError(t, err)
		assert.False(t, res.IsValid, "strict=%t", strict)
		assert.True(t, res.IsDisposable)
		assert.True(t, res.IsTemporary)
		assert.GreaterOrEqual(t, res.SpamScore, 0.8)
		assert.Contains(t, res.Reasoning, "Disposable email provider detected (mailinator)")
	}
}

func TestValidateEmail_StrictRejectsGenericAndUnknown(t *testing.T) {
	v, _ := newTestValidator(t)
	ctx := context.Background()

	// Generic inbox: valid leniently, spam-weighted.
	res, err := v.ValidateEmail(ctx, "info@dailyplanet.com", Options{})
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.InDelta(t, 0.4, res.SpamScore, 0.001)

	// Unknown type never passes strict mode.
	res, err = v.ValidateEmail(ctx, "x7@dailyplanet.com", Options{Strict: true})
	require.NoError(t, err)
	assert.False(t, res.IsValid)
}

func TestValidateEmail_TestWordRaisesSpamScore(t *testing.T) {
	v, _ := newTestValidator(t)
	ctx := context.Background()

	res, err := v.ValidateEmail(ctx, "test.account@dailyplanet.com", Options{})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, res.SpamScore, 0.001)

	// A reserved TLD adds the missing-MX weight on top; past 0.5 the outreach
	// suggestion appears.
	res, err = v.ValidateEmail(ctx, "test.demo@devsite.test", Options{})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, res.SpamScore, 0.001)
	assert.False(t, res.MXRecords)
	assert.Contains(t, res.Reasoning, "No MX records expected for domain")
	assert.Contains(t, res.Suggestions, "Consider a professional email address for outreach")
}

func TestValidateEmail_CacheHitSkipsChecks(t *testing.T) {
	v, cls := newTestValidator(t)
	ctx := context.Background()

	first, err := v.ValidateEmail(ctx, "jane.doe@dailyplanet.com", Options{})
	require.NoError(t, err)
	require.Equal(t, int32(1), cls.calls.Load())

	second, err := v.ValidateEmail(ctx, "jane.doe@dailyplanet.com", Options{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), cls.calls.Load())

	// Different options form a distinct cache entry.
	_, err = v.ValidateEmail(ctx, "jane.doe@dailyplanet.com", Options{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, int32(2), cls.calls.Load())
}

func TestValidateEmail_CacheExpiryRecomputes(t *testing.T) {
	v, cls := newTestValidator(t)
	now := time.Now()
	v.cache.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := v.ValidateEmail(ctx, "jane.doe@dailyplanet.com", Options{})
	require.NoError(t, err)
	require.Equal(t, int32(1), cls.calls.Load())

	now = now.Add(31 * time.Minute)
	_, err = v.ValidateEmail(ctx, "jane.doe@dailyplanet.com", Options{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), cls.calls.Load())
}

func TestValidateEmail_TransientClassifierFailureIsRetried(t *testing.T) {
	v, cls := newTestValidator(t)
	cls.failures = 1

	res, err := v.ValidateEmail(context.Background(), "jane.doe@dailyplanet.com", Options{})
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	// One failed attempt plus the retry that succeeded.
	assert.Equal(t, int32(2), cls.calls.Load())
}

func TestValidateEmail_ClassifierFailureIsProviderError(t *testing.T) {
	v, cls := newTestValidator(t)
	cls.err = errors.New("model overloaded")

	_, err := v.ValidateEmail(context.Background(), "jane.doe@dailyplanet.com", Options{})
	var aiErr *model.AIProviderError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, "classify_email", aiErr.Op)
	assert.Equal(t, 3, aiErr.Attempts)
	assert.Equal(t, int32(3), cls.calls.Load())
}

func TestValidateMultiple_KeepsInputOrder(t *testing.T) {
	v, _ := newTestValidator(t)

	emails := []string{"info@dailyplanet.com", "jane.doe@dailyplanet.com", "bad-address"}
	results, err := v.ValidateMultiple(context.Background(), emails, Options{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, emails[i], r.Email)
	}
	assert.False(t, results[2].IsValid)
}

func TestBatchValidate_ChunksWithDelay(t *testing.T) {
	v, cls := newTestValidator(t)

	emails := []string{
		"a.one@dailyplanet.com", "b.two@dailyplanet.com",
		"c.three@dailyplanet.com", "d.four@dailyplanet.com",
	}
	results, err := v.BatchValidate(context.Background(), emails, Options{}, 2, time.Millisecond)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, int32(4), cls.calls.Load())
}

func TestBatchValidate_HonorsContextCancellation(t *testing.T) {
	v, _ := newTestValidator(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	emails := []string{"a.one@dailyplanet.com", "b.two@dailyplanet.com", "c.three@dailyplanet.com"}
	_, err := v.BatchValidate(ctx, emails, Options{}, 1, time.Second)
	require.ErrorIs(t, err, context.Canceled)
}
