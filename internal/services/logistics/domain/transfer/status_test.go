package transfer

import (
	"errors"
	"testing"

	apperrors "github.com/gogidix/cross-region-logistics/internal/platform/errors"
)

func TestStatusTransitionsFollowWorkflowOrder(t *testing.T) {
	happyPath := []Status{
		StatusPendingApproval,
		StatusApproved,
		StatusPicking,
		StatusPacking,
		StatusReadyForPickup,
		StatusInTransit,
		StatusArrived,
		StatusVerifying,
		StatusCompleted,
	}

	for i := 0; i < len(happyPath)-1; i++ {
		from, to := happyPath[i], happyPath[i+1]
		if !from.CanTransitionTo(to) {
			t.Fatalf("expected %s -> %s to be allowed", from, to)
		}
	}

	// Skipping a step is never legal.
	for i := 0; i < len(happyPath)-2; i++ {
		from, to := happyPath[i], happyPath[i+2]
		if from.CanTransitionTo(to) {
			t.Fatalf("expected %s -> %s to be rejected", from, to)
		}
	}
}

func TestStatusCancellable(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPendingApproval, true},
		{StatusApproved, true},
		{StatusPicking, true},
		{StatusPacking, true},
		{StatusReadyForPickup, true},
		{StatusInTransit, false},
		{StatusArrived, false},
		{StatusVerifying, false},
		{StatusCompleted, false},
		{StatusCancelled, false},
		{StatusException, false},
	}

	for _, tt := range tests {
		if got := tt.status.Cancellable(); got != tt.want {
			t.Fatalf("status %s: expected cancellable=%v, got %v", tt.status, tt.want, got)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, status := range []Status{StatusCompleted, StatusCancelled, StatusException} {
		if !status.Terminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
	}
	if StatusVerifying.Terminal() {
		t.Fatal("expected VERIFYING not to be terminal")
	}
}

func TestParseStatusRoundTrip(t *testing.T) {
	for s := StatusPendingApproval; s <= StatusException; s++ {
		parsed, err := ParseStatus(s.String())
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		if parsed != s {
			t.Fatalf("expected %v, got %v", s, parsed)
		}
	}

	_, err := ParseStatus("TELEPORTING")
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
	if !errors.Is(err, apperrors.New(apperrors.CodeTransferUnknownStatus, "")) {
		t.Fatalf("expected TRANSFER_UNKNOWN_STATUS code, got %v", err)
	}
}

func TestParseItemStatusRoundTrip(t *testing.T) {
	for s := ItemStatusPending; s <= ItemStatusCancelled; s++ {
		parsed, err := ParseItemStatus(s.String())
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		if parsed != s {
			t.Fatalf("expected %v, got %v", s, parsed)
		}
	}
	if _, err := ParseItemStatus("MISLAID"); err == nil {
		t.Fatal("expected error for unknown item status")
	}
}

func TestParsePriority(t *testing.T) {
	parsed, err := ParsePriority("URGENT")
	if err != nil {
		t.Fatalf("parse priority: %v", err)
	}
	if parsed != PriorityUrgent {
		t.Fatalf("expected URGENT, got %v", parsed)
	}
	if _, err := ParsePriority("WHENEVER"); err == nil {
		t.Fatal("expected error for unknown priority")
	}
}
