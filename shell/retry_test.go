package shell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/shell"
	"github.com/Jehd061990/liber/store"
)

func fastRetry() []shell.RetryOption {
	return []shell.RetryOption{shell.WithBaseDelay(time.Millisecond), shell.WithJitterFactor(0)}
}

func Test_RetryWithExponentialBackoff_Success_NoRetries(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return nil
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, meta.Attempts)
	assert.Zero(t, meta.TotalDelay)
	assert.Equal(t, "none", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_RetriesConcurrencyConflicts(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		if callCount < 3 {
			return errors.Join(store.ErrConcurrencyConflict, errors.New("guard matched no row"))
		}

		return nil
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn, fastRetry()...)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.Greater(t, meta.TotalDelay, time.Duration(0))
	assert.Equal(t, "none", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_NeverRetriesBusinessRejections(t *testing.T) {
	testCases := []struct {
		name string
		err  error
	}{
		{name: "rule violation", err: &core.BookUnavailableError{BookID: uuid.New()}},
		{name: "validation", err: &core.MissingReasonError{}},
		{name: "timeout", err: context.DeadlineExceeded},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			callCount := 0
			fn := func(_ context.Context) error {
				callCount++
				return tc.err
			}

			// act
			meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn, fastRetry()...)

			// assert
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, 1, callCount)
			assert.Equal(t, 1, meta.Attempts)
			assert.False(t, meta.RetriesExhausted)
		})
	}
}

func Test_RetryWithExponentialBackoff_ExhaustsAttempts(t *testing.T) {
	// arrange
	collector := &countingCollector{}
	options := append(fastRetry(), shell.WithMaxAttempts(3), shell.WithMetrics(collector, "LendBook"))
	fn := func(_ context.Context) error { return store.ErrConcurrencyConflict }

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), fn, options...)

	// assert
	assert.ErrorIs(t, err, store.ErrConcurrencyConflict)
	assert.Equal(t, 3, meta.Attempts)
	assert.True(t, meta.RetriesExhausted)
	assert.Equal(t, "concurrency_conflict", meta.LastErrorType)
	assert.Equal(t, 2, collector.counters[shell.CommandHandlerRetriesMetric])
	assert.Equal(t, 1, collector.counters[shell.CommandHandlerMaxRetriesReachedMetric])
	assert.Equal(t, 2, collector.durations[shell.CommandHandlerRetryDelayMetric])
}

func Test_RetryWithExponentialBackoff_StopsWhenContextIsCanceled(t *testing.T) {
	// arrange
	ctx, cancel := context.WithCancel(context.Background())
	fn := func(_ context.Context) error {
		cancel()
		return store.ErrConcurrencyConflict
	}

	// act
	meta, err := shell.RetryWithExponentialBackoff(ctx, fn, shell.WithBaseDelay(time.Second))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, "context_canceled", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_InvalidOptions(t *testing.T) {
	fn := func(_ context.Context) error { return nil }

	testCases := []struct {
		name     string
		option   shell.RetryOption
		expected error
	}{
		{name: "zero attempts", option: shell.WithMaxAttempts(0), expected: shell.ErrInvalidMaxAttempts},
		{name: "negative delay", option: shell.WithBaseDelay(-time.Millisecond), expected: shell.ErrNegativeBaseDelay},
		{name: "jitter above one", option: shell.WithJitterFactor(1.5), expected: shell.ErrInvalidJitterFactor},
		{name: "nil collector", option: shell.WithMetrics(nil, "LendBook"), expected: shell.ErrNilMetricsCollector},
		{name: "empty command type", option: shell.WithMetrics(&countingCollector{}, ""), expected: shell.ErrEmptyCommandType},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := shell.RetryWithExponentialBackoff(context.Background(), fn, tc.option)

			// assert
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func Test_CommandStatusOf(t *testing.T) {
	assert.Equal(t, shell.StatusSuccess, shell.CommandStatusOf(shell.HandlerResult{}, nil))
	assert.Equal(t, shell.StatusIdempotent, shell.CommandStatusOf(shell.HandlerResult{Idempotent: true}, nil))
	assert.Equal(t, shell.StatusRejected, shell.CommandStatusOf(shell.HandlerResult{}, &core.LoanNotActiveError{}))
	assert.Equal(t, shell.StatusConcurrencyConflict, shell.CommandStatusOf(shell.HandlerResult{}, store.ErrConcurrencyConflict))
	assert.Equal(t, shell.StatusTimeout, shell.CommandStatusOf(shell.HandlerResult{}, context.DeadlineExceeded))
	assert.Equal(t, shell.StatusError, shell.CommandStatusOf(shell.HandlerResult{}, store.ErrQueryingFailed))
}

type countingCollector struct {
	counters  map[string]int
	durations map[string]int
}

func (c *countingCollector) RecordDuration(metric string, _ time.Duration, _ map[string]string) {
	if c.durations == nil {
		c.durations = map[string]int{}
	}

	c.durations[metric]++
}

func (c *countingCollector) IncrementCounter(metric string, _ map[string]string) {
	if c.counters == nil {
		c.counters = map[string]int{}
	}

	c.counters[metric]++
}

func (c *countingCollector) RecordValue(string, float64, map[string]string) {}
