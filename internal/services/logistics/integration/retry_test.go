package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/gogidix/cross-region-logistics/internal/platform/errors"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/clients"
)

func newTestRetrier(cfg RetryConfig) (*Retrier, *[]time.Duration) {
	r := NewRetrier(cfg, nil)
	delays := &[]time.Duration{}
	r.sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return r, delays
}

func TestRetrierSucceedsFirstAttempt(t *testing.T) {
	r, delays := newTestRetrier(RetryConfig{})

	calls := 0
	err := r.Do(context.Background(), "reserve inventory", func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if len(*delays) != 0 {
		t.Fatalf("expected no sleeps, got %v", *delays)
	}
}

func TestRetrierRetriesTransientStatusToExhaustion(t *testing.T) {
	r, delays := newTestRetrier(RetryConfig{})

	calls := 0
	err := r.Do(context.Background(), "reserve inventory", func(context.Context) error {
		calls++
		return &clients.TransportError{StatusCode: 503, Body: "unavailable"}
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if !errors.Is(err, apperrors.New(apperrors.CodeIntegrationFailure, "")) {
		t.Fatalf("expected INTEGRATION_FAILURE, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	want := []time.Duration{500 * time.Millisecond, 1000 * time.Millisecond}
	if len(*delays) != len(want) {
		t.Fatalf("expected delays %v, got %v", want, *delays)
	}
	for i := range want {
		if (*delays)[i] != want[i] {
			t.Fatalf("delay %d = %v, want %v", i, (*delays)[i], want[i])
		}
	}
}

func TestRetrierAbortsOnNonRetryableStatus(t *testing.T) {
	r, delays := newTestRetrier(RetryConfig{})

	calls := 0
	err := r.Do(context.Background(), "reserve inventory", func(context.Context) error {
		calls++
		return &clients.TransportError{StatusCode: 400, Body: "bad request"}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected 1 attempt, got %d", calls)
	}
	if len(*delays) != 0 {
		t.Fatalf("expected no sleeps, got %v", *delays)
	}
	var transportErr *clients.TransportError
	if !errors.As(err, &transportErr) || transportErr.StatusCode != 400 {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestRetrierRecoversMidway(t *testing.T) {
	r, _ := newTestRetrier(RetryConfig{})

	calls := 0
	err := r.Do(context.Background(), "reserve inventory", func(context.Context) error {
		calls++
		if calls < 3 {
			return &clients.TransportError{StatusCode: 429, Body: "slow down"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRetrierHonorsCancellationDuringBackoff(t *testing.T) {
	r := NewRetrier(RetryConfig{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Do(ctx, "reserve inventory", func(context.Context) error {
		return &clients.TransportError{StatusCode: 502, Body: "bad gateway"}
	})
	if !errors.Is(err, apperrors.New(apperrors.CodeIntegrationInterrupt, "")) {
		t.Fatalf("expected INTEGRATION_INTERRUPT, got %v", err)
	}
}

func TestRetrierConfigOverrides(t *testing.T) {
	r, delays := newTestRetrier(RetryConfig{MaxAttempts: 2, BaseDelay: 10 * time.Millisecond})

	calls := 0
	err := r.Do(context.Background(), "transfer inventory", func(context.Context) error {
		calls++
		return &clients.TransportError{StatusCode: 504, Body: "timeout"}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
	if len(*delays) != 1 || (*delays)[0] != 10*time.Millisecond {
		t.Fatalf("expected single 10ms delay, got %v", *delays)
	}
}

func TestExecuteReturnsValue(t *testing.T) {
	r, _ := newTestRetrier(RetryConfig{})

	calls := 0
	record, err := Execute(context.Background(), r, "fetch inventory item",
		func(context.Context) (clients.InventoryRecord, error) {
			calls++
			if calls < 2 {
				return clients.InventoryRecord{}, &clients.TransportError{StatusCode: 503}
			}
			return clients.InventoryRecord{ID: "inv-1", AvailableQuantity: 7}, nil
		})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if record.ID != "inv-1" || record.AvailableQuantity != 7 {
		t.Fatalf("unexpected record %+v", record)
	}
}
