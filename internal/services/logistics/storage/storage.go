// Package storage defines the persistence contracts for the logistics service.
package storage

import (
	"context"

	apperrors "github.com/gogidix/cross-region-logistics/internal/platform/errors"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/domain/transfer"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity" states
// and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// TransferStore owns the transfer request aggregate. Implementations must
// provide atomic read-modify-write semantics per transfer id so that two
// concurrent lifecycle transitions on the same transfer cannot race; the
// workflow coordinator deliberately does not serialize calls itself.
type TransferStore interface {
	// Create persists a new transfer request with its items.
	Create(ctx context.Context, request transfer.Request) error
	// Get returns the full aggregate, or ErrNotFound.
	Get(ctx context.Context, transferID string) (transfer.Request, error)
	// SetStatus atomically updates the request status and returns the
	// updated aggregate.
	SetStatus(ctx context.Context, transferID string, status transfer.Status) (transfer.Request, error)
	// SetItemStatus updates a single item's status.
	SetItemStatus(ctx context.Context, transferID, itemID string, status transfer.ItemStatus) error
	// SetItemActualQuantity records the fulfilled quantity for an item.
	SetItemActualQuantity(ctx context.Context, transferID, itemID string, quantity int) error
	// SetTracking persists carrier and tracking fields captured at pickup.
	SetTracking(ctx context.Context, transferID, carrierID, trackingNumber, labelURL string) error
	// Cancel marks the request and every item CANCELLED in one transaction
	// and returns the updated aggregate.
	Cancel(ctx context.Context, transferID string) (transfer.Request, error)
	// ListByStatus returns all transfers currently in the given status.
	ListByStatus(ctx context.Context, status transfer.Status) ([]transfer.Request, error)
}
