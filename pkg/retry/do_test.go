package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	wantErr := errors.New("transient")
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return wantErr
	}, WithMaxAttempts(3), WithBackoff(Fixed(time.Millisecond)))

	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_EventualSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, WithMaxAttempts(5), WithBackoff(Fixed(time.Millisecond)))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	calls := 0
	permanent := errors.New("permanent")
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return permanent
	}, WithMaxAttempts(5), WithRetryIf(func(err error) bool { return false }))

	if !errors.Is(err, permanent) {
		t.Fatalf("expected %v, got %v", permanent, err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func(ctx context.Context) error {
		t.Error("function should not run on canceled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil error should not be retryable")
	}
	if IsRetryable(context.Canceled) {
		t.Error("context.Canceled should not be retryable")
	}
	if IsRetryable(context.DeadlineExceeded) {
		t.Error("context.DeadlineExceeded should not be retryable")
	}
	if !IsRetryable(errors.New("transient")) {
		t.Error("arbitrary errors should be retryable")
	}
}

func TestExponentialBackoff(t *testing.T) {
	b := Exponential(100*time.Millisecond, time.Second)
	if b(0) != 100*time.Millisecond {
		t.Errorf("attempt 0: got %v", b(0))
	}
	if b(1) != 200*time.Millisecond {
		t.Errorf("attempt 1: got %v", b(1))
	}
	if b(10) != time.Second {
		t.Errorf("attempt 10 should be capped at 1s, got %v", b(10))
	}
}

func TestFullJitter(t *testing.T) {
	if FullJitter(0) != 0 {
		t.Error("jitter of 0 should be 0")
	}
	for i := 0; i < 100; i++ {
		d := FullJitter(time.Second)
		if d < 0 || d >= time.Second {
			t.Fatalf("jitter out of range: %v", d)
		}
	}
}
