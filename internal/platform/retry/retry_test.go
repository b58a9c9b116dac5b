package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/platform/retry"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastPolicy = retry.Policy{
	MaxAttempts:    3,
	InitialBackoff: 1 * time.Millisecond,
}

func TestDo_SuccessFirstAttempt(t *testing.T) {
	calls := 0
	err := retry.DoVoid(context.Background(), fastPolicy, alwaysRetry, func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	calls := 0
	val, err := retry.Do(context.Background(), fastPolicy, alwaysRetry, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, val)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := retry.DoVoid(context.Background(), fastPolicy, alwaysStop, func(context.Context) error {
		calls++
		return permanent
	})

	var permErr *retry.PermanentError
	require.ErrorAs(t, err, &permErr)
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustedRetries(t *testing.T) {
	underlying := errors.New("transient")
	calls := 0
	err := retry.DoVoid(context.Background(), fastPolicy, alwaysRetry, func(context.Context) error {
		calls++
		return underlying
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, underlying)
	assert.Equal(t, fastPolicy.MaxAttempts, calls)
}

func TestDo_UnlimitedAttemptsUntilSuccess(t *testing.T) {
	p := retry.Policy{InitialBackoff: time.Millisecond}
	calls := 0
	err := retry.DoVoid(context.Background(), p, alwaysRetry, func(context.Context) error {
		calls++
		if calls < 25 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 25, calls)
}

func TestDo_FixedBackoffByDefault(t *testing.T) {
	var observed []time.Duration
	p := retry.Policy{
		MaxAttempts:    4,
		InitialBackoff: 2 * time.Millisecond,
		OnRetry: func(_ int, _ error, backoff time.Duration) {
			observed = append(observed, backoff)
		},
	}

	_ = retry.DoVoid(context.Background(), p, alwaysRetry, func(context.Context) error {
		return errors.New("fail")
	})

	assert.Equal(t, []time.Duration{2 * time.Millisecond, 2 * time.Millisecond, 2 * time.Millisecond}, observed)
}

func TestDo_MultiplierGrowsBackoff(t *testing.T) {
	var observed []time.Duration
	p := retry.Policy{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Millisecond,
		Multiplier:     2,
		OnRetry: func(_ int, _ error, backoff time.Duration) {
			observed = append(observed, backoff)
		},
	}

	_ = retry.DoVoid(context.Background(), p, alwaysRetry, func(context.Context) error {
		return errors.New("fail")
	})

	assert.Equal(t, []time.Duration{1 * time.Millisecond, 2 * time.Millisecond}, observed)
}

func TestDo_WaitsOnClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := retry.Policy{InitialBackoff: 5 * time.Second, Clock: clock}

	attempts := make(chan int, 10)
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- retry.DoVoid(context.Background(), p, alwaysRetry, func(context.Context) error {
			calls++
			attempts <- calls
			if calls < 2 {
				return errors.New("transient")
			}
			return nil
		})
	}()

	assert.Equal(t, 1, <-attempts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	select {
	case <-attempts:
		t.Fatal("second attempt must wait for the backoff")
	default:
	}

	clock.Advance(5 * time.Second)
	assert.Equal(t, 2, <-attempts)
	require.NoError(t, <-done)
}

func TestDo_ContextCancellationDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := retry.Policy{InitialBackoff: 10 * time.Second}

	calls := 0
	err := retry.DoVoid(ctx, p, alwaysRetry, func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetryCallback(t *testing.T) {
	var recorded []int
	p := fastPolicy
	p.OnRetry = func(attempt int, _ error, _ time.Duration) {
		recorded = append(recorded, attempt)
	}

	_ = retry.DoVoid(context.Background(), p, alwaysRetry, func(context.Context) error {
		return errors.New("fail")
	})

	// no callback for the final, exhausting attempt
	assert.Equal(t, []int{1, 2}, recorded)
}

func alwaysRetry(error) retry.Action { return retry.Retry }
func alwaysStop(error) retry.Action  { return retry.Stop }
