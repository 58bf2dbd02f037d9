package client

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	marketRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	marketRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// retryFixed executes fn up to maxAttempts times with a fixed inter-attempt
// delay. The upstream service does not signal rate limits, so a flat delay
// is used rather than exponential backoff.
//
// Every failure class is retried: transport errors, non-2xx responses, and
// malformed bodies can all be transient upstream glitches. An item with no
// price data is not an error and never reaches this loop. Context
// cancellation aborts the wait.
func retryFixed(ctx context.Context, maxAttempts int, delay time.Duration, logger zerolog.Logger, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		class := classOf(err)

		if attempt >= maxAttempts {
			break
		}

		marketRetriesTotal.WithLabelValues(string(class)).Inc()
		logger.Debug().
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("Retrying request after delay")

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry wait: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	class := classOf(lastErr)
	marketRetryExhaustedTotal.WithLabelValues(string(class)).Inc()
	logger.Warn().
		Str("error_class", string(class)).
		Int("max_attempts", maxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, maxAttempts, lastErr)
}
