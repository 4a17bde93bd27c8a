package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsreach/contact-discovery/internal/model"
)

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	p := Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}

	attempts := 0
	out, err := Do(context.Background(), p, "generate", func(context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("busy")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustionReturnsProviderError(t *testing.T) {
	p := Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}

	attempts := 0
	_, err := Do(context.Background(), p, "generate", func(context.Context) (int, error) {
		attempts++
		return 0, errors.New("down")
	})
	var aiErr *model.AIProviderError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, "generate", aiErr.Op)
	assert.Equal(t, 3, aiErr.Attempts)
	assert.Equal(t, 3, attempts)
}

func TestDo_StopsWhenContextCancelled(t *testing.T) {
	p := Policy{MaxAttempts: 5, InitialBackoff: 50 * time.Millisecond, MaxBackoff: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, p, "generate", func(context.Context) (string, error) {
		attempts++
		return "", errors.New("busy")
	})
	var aiErr *model.AIProviderError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, "generate", aiErr.Op)
	assert.True(t, errors.Is(aiErr.Err, context.Canceled))
	assert.Equal(t, 1, attempts)
}

func TestDo_PerAttemptTimeout(t *testing.T) {
	p := Policy{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		CallTimeout:    20 * time.Millisecond,
	}

	_, err := Do(context.Background(), p, "generate", func(callCtx context.Context) (string, error) {
		<-callCtx.Done()
		return "", callCtx.Err()
	})
	var aiErr *model.AIProviderError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, 2, aiErr.Attempts)
	assert.True(t, errors.Is(aiErr.Err, context.DeadlineExceeded))
}
