package transfer

import (
	apperrors "github.com/gogidix/cross-region-logistics/internal/platform/errors"
)

// Status describes the lifecycle of a transfer request.
type Status int

const (
	// StatusUnspecified represents an invalid status value.
	StatusUnspecified Status = iota
	// StatusPendingApproval indicates the transfer awaits approval.
	StatusPendingApproval
	// StatusApproved indicates inventory has been reserved at the source.
	StatusApproved
	// StatusPicking indicates items are being picked at the source warehouse.
	StatusPicking
	// StatusPacking indicates picked items are being packed for shipment.
	StatusPacking
	// StatusReadyForPickup indicates the shipment awaits carrier pickup.
	StatusReadyForPickup
	// StatusInTransit indicates the carrier has picked up the shipment.
	StatusInTransit
	// StatusArrived indicates the shipment reached the destination warehouse.
	StatusArrived
	// StatusVerifying indicates items are being verified at the destination.
	StatusVerifying
	// StatusCompleted indicates items were received and put away.
	StatusCompleted
	// StatusCancelled indicates the transfer was cancelled.
	StatusCancelled
	// StatusException indicates the transfer needs manual attention.
	StatusException
)

// ItemStatus describes the lifecycle of a single transfer item.
// Item statuses trail the parent request through the same phases.
type ItemStatus int

const (
	// ItemStatusUnspecified represents an invalid item status value.
	ItemStatusUnspecified ItemStatus = iota
	// ItemStatusPending indicates the item is requested but not yet processed.
	ItemStatusPending
	// ItemStatusPicking indicates the item is being picked.
	ItemStatusPicking
	// ItemStatusPicked indicates the item has been picked.
	ItemStatusPicked
	// ItemStatusPacked indicates the item has been packed.
	ItemStatusPacked
	// ItemStatusInTransit indicates the item is in transit.
	ItemStatusInTransit
	// ItemStatusArrived indicates the item arrived at the destination.
	ItemStatusArrived
	// ItemStatusCompleted indicates the item was received and put away.
	ItemStatusCompleted
	// ItemStatusCancelled indicates the item was cancelled.
	ItemStatusCancelled
)

// Priority describes how urgently a transfer should be processed.
type Priority int

const (
	// PriorityUnspecified represents an invalid priority value.
	PriorityUnspecified Priority = iota
	// PriorityLow marks transfers processed when convenient.
	PriorityLow
	// PriorityNormal marks transfers with standard processing times.
	PriorityNormal
	// PriorityHigh marks transfers processed before normal ones.
	PriorityHigh
	// PriorityUrgent marks transfers requiring immediate attention.
	PriorityUrgent
)

// statusTransitions is the single auditable source of legal status
// transitions. A status missing from the map is terminal.
var statusTransitions = map[Status][]Status{
	StatusPendingApproval: {StatusApproved, StatusCancelled, StatusException},
	StatusApproved:        {StatusPicking, StatusCancelled, StatusException},
	StatusPicking:         {StatusPacking, StatusCancelled, StatusException},
	StatusPacking:         {StatusReadyForPickup, StatusCancelled, StatusException},
	StatusReadyForPickup:  {StatusInTransit, StatusCancelled, StatusException},
	StatusInTransit:       {StatusArrived, StatusException},
	StatusArrived:         {StatusVerifying, StatusException},
	StatusVerifying:       {StatusCompleted, StatusException},
}

// CanTransitionTo reports whether moving from s to target is legal.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Cancellable reports whether a transfer in this status may still be cancelled.
// Once a shipment leaves the source warehouse, cancellation is no longer possible.
func (s Status) Cancellable() bool {
	return s.CanTransitionTo(StatusCancelled)
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

// String returns the stable wire label for a status.
func (s Status) String() string {
	switch s {
	case StatusPendingApproval:
		return "PENDING_APPROVAL"
	case StatusApproved:
		return "APPROVED"
	case StatusPicking:
		return "PICKING"
	case StatusPacking:
		return "PACKING"
	case StatusReadyForPickup:
		return "READY_FOR_PICKUP"
	case StatusInTransit:
		return "IN_TRANSIT"
	case StatusArrived:
		return "ARRIVED"
	case StatusVerifying:
		return "VERIFYING"
	case StatusCompleted:
		return "COMPLETED"
	case StatusCancelled:
		return "CANCELLED"
	case StatusException:
		return "EXCEPTION"
	default:
		return "UNSPECIFIED"
	}
}

// ParseStatus maps a wire label back to a status.
func ParseStatus(label string) (Status, error) {
	for s := StatusPendingApproval; s <= StatusException; s++ {
		if s.String() == label {
			return s, nil
		}
	}
	return StatusUnspecified, apperrors.WithMetadata(
		apperrors.CodeTransferUnknownStatus,
		"unknown transfer status: "+label,
		map[string]string{"Status": label},
	)
}

// String returns the stable wire label for an item status.
func (s ItemStatus) String() string {
	switch s {
	case ItemStatusPending:
		return "PENDING"
	case ItemStatusPicking:
		return "PICKING"
	case ItemStatusPicked:
		return "PICKED"
	case ItemStatusPacked:
		return "PACKED"
	case ItemStatusInTransit:
		return "IN_TRANSIT"
	case ItemStatusArrived:
		return "ARRIVED"
	case ItemStatusCompleted:
		return "COMPLETED"
	case ItemStatusCancelled:
		return "CANCELLED"
	default:
		return "UNSPECIFIED"
	}
}

// ParseItemStatus maps a wire label back to an item status.
func ParseItemStatus(label string) (ItemStatus, error) {
	for s := ItemStatusPending; s <= ItemStatusCancelled; s++ {
		if s.String() == label {
			return s, nil
		}
	}
	return ItemStatusUnspecified, apperrors.WithMetadata(
		apperrors.CodeTransferUnknownItemStatus,
		"unknown transfer item status: "+label,
		map[string]string{"Status": label},
	)
}

// String returns the stable wire label for a priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityNormal:
		return "NORMAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityUrgent:
		return "URGENT"
	default:
		return "UNSPECIFIED"
	}
}

// ParsePriority maps a wire label back to a priority.
func ParsePriority(label string) (Priority, error) {
	for p := PriorityLow; p <= PriorityUrgent; p++ {
		if p.String() == label {
			return p, nil
		}
	}
	return PriorityUnspecified, apperrors.WithMetadata(
		apperrors.CodeTransferInvalidPriority,
		"unknown transfer priority: "+label,
		map[string]string{"Priority": label},
	)
}
