package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRetryFixed_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := retryFixed(context.Background(), 3, time.Millisecond, zerolog.Nop(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("retryFixed() error = %v, want nil", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryFixed_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := retryFixed(context.Background(), 3, time.Millisecond, zerolog.Nop(), func() error {
		calls++
		if calls < 3 {
			return &FetchError{Class: ErrorClassNetwork, Message: "transient"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retryFixed() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryFixed_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := retryFixed(context.Background(), 3, time.Millisecond, zerolog.Nop(), func() error {
		calls++
		return &FetchError{Class: ErrorClassHTTP, StatusCode: 500, Message: "server error"}
	})
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("retryFixed() error = %v, want ErrRetryExhausted", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryFixed_MalformedRetried(t *testing.T) {
	calls := 0
	err := retryFixed(context.Background(), 3, time.Millisecond, zerolog.Nop(), func() error {
		calls++
		if calls < 2 {
			return &FetchError{Class: ErrorClassMalformed, Message: "bad body"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retryFixed() error = %v, want success on second attempt", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (malformed failures retry like any other)", calls)
	}
}

func TestRetryFixed_FixedDelayBetweenAttempts(t *testing.T) {
	const delay = 30 * time.Millisecond
	var times []time.Time

	retryFixed(context.Background(), 3, delay, zerolog.Nop(), func() error {
		times = append(times, time.Now())
		return &FetchError{Class: ErrorClassNetwork, Message: "transient"}
	})

	if len(times) != 3 {
		t.Fatalf("attempts = %d, want 3", len(times))
	}
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		if gap < delay {
			t.Errorf("gap between attempt %d and %d = %v, want >= %v", i-1, i, gap, delay)
		}
	}
}

func TestRetryFixed_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- retryFixed(ctx, 3, time.Hour, zerolog.Nop(), func() error {
			calls++
			return &FetchError{Class: ErrorClassNetwork, Message: "transient"}
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("retryFixed() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("retryFixed() did not return after context cancellation")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
