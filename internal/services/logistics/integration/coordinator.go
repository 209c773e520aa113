package integration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/gogidix/cross-region-logistics/internal/platform/errors"
	"github.com/gogidix/cross-region-logistics/internal/platform/id"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/clients"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/domain/transfer"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/events"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/storage"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/validation"
)

// Validator is the slice of the validation service the coordinator needs.
type Validator interface {
	Validate(ctx context.Context, request transfer.Request) validation.Result
}

// PickupInput carries the carrier details captured when a shipment leaves
// the source warehouse.
type PickupInput struct {
	CarrierID        string
	TrackingNumber   string
	ShippingLabelURL string
}

// Coordinator drives a transfer request through its fulfillment workflow.
// Each operation verifies the current status before acting, calls the
// downstream services it needs through the retrier, and persists the
// resulting state. Inventory side effects are compensated on failure where
// possible; when the aggregate may be left inconsistent the transfer is
// parked in EXCEPTION for manual attention.
type Coordinator struct {
	store     storage.TransferStore
	inventory clients.InventoryClient
	validator Validator
	publisher events.Publisher
	retrier   *Retrier
	logger    *zap.Logger
	tracer    trace.Tracer

	now         func() time.Time
	idGenerator func() (string, error)
}

// NewCoordinator wires a coordinator. A nil publisher discards events and a
// nil logger logs nothing.
func NewCoordinator(store storage.TransferStore, inventory clients.InventoryClient,
	validator Validator, publisher events.Publisher, retrier *Retrier, logger *zap.Logger) *Coordinator {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if retrier == nil {
		retrier = NewRetrier(RetryConfig{}, logger)
	}
	return &Coordinator{
		store:     store,
		inventory: inventory,
		validator: validator,
		publisher: publisher,
		retrier:   retrier,
		logger:    logger,
		tracer:    otel.Tracer("logistics.coordinator"),
		now:       time.Now,
	}
}

// Submit validates and persists a new transfer request. The returned result
// carries every validation failure; when it is invalid, the request is not
// persisted and the error carries the VALIDATION_FAILED code.
func (c *Coordinator) Submit(ctx context.Context, input transfer.CreateInput) (transfer.Request, validation.Result, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.submit")
	defer span.End()

	request, err := transfer.NewRequest(input, c.now, c.idGenerator)
	if err != nil {
		return transfer.Request{}, validation.Result{}, err
	}
	span.SetAttributes(attribute.String("transfer.id", request.ID))

	result := c.validator.Validate(ctx, request)
	if !result.Valid {
		return transfer.Request{}, result, apperrors.New(
			apperrors.CodeTransferValidationFailed,
			"transfer validation failed: "+strings.Join(result.Errors, "; "),
		)
	}

	if err := c.store.Create(ctx, request); err != nil {
		return transfer.Request{}, result, err
	}

	c.logger.Info("transfer created",
		zap.String("transfer_id", request.ID),
		zap.String("reference", request.ReferenceNumber),
		zap.String("source", request.SourceWarehouseID),
		zap.String("destination", request.DestinationWarehouseID),
		zap.Int("items", len(request.Items)))
	c.publish(ctx, events.TypeTransferCreated, request, transfer.StatusUnspecified)
	return request, result, nil
}

// Approve reserves inventory for every item at the source warehouse and
// moves the transfer to APPROVED. If any reservation fails, reservations
// already made are released best effort and the transfer stays where it was.
func (c *Coordinator) Approve(ctx context.Context, transferID string) (transfer.Request, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.approve",
		trace.WithAttributes(attribute.String("transfer.id", transferID)))
	defer span.End()

	request, err := c.requireStatus(ctx, transferID, transfer.StatusPendingApproval)
	if err != nil {
		return transfer.Request{}, err
	}

	var reserved []transfer.Item
	for _, item := range request.Items {
		err := c.retrier.Do(ctx, "reserve inventory "+item.InventoryID, func(ctx context.Context) error {
			return c.inventory.Reserve(ctx, clients.ReservationRequest{
				InventoryID: item.InventoryID,
				Quantity:    item.RequestedQuantity,
				Reason:      clients.ReasonTransfer,
				ReferenceID: request.ID,
			})
		})
		if err != nil {
			span.RecordError(err)
			c.logger.Error("inventory reservation failed, rolling back",
				zap.String("transfer_id", request.ID),
				zap.String("inventory_id", item.InventoryID),
				zap.Error(err))
			c.releaseReservations(ctx, request, reserved)
			return transfer.Request{}, err
		}
		reserved = append(reserved, item)
	}

	return c.advance(ctx, request, transfer.StatusApproved)
}

// StartPicking moves an approved transfer into PICKING and flags every item
// as being picked.
func (c *Coordinator) StartPicking(ctx context.Context, transferID string) (transfer.Request, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.start_picking",
		trace.WithAttributes(attribute.String("transfer.id", transferID)))
	defer span.End()

	request, err := c.requireStatus(ctx, transferID, transfer.StatusApproved)
	if err != nil {
		return transfer.Request{}, err
	}
	if err := c.setAllItemStatuses(ctx, request, transfer.ItemStatusPicking); err != nil {
		return transfer.Request{}, err
	}
	return c.advance(ctx, request, transfer.StatusPicking)
}

// UpdateItem records picking or packing progress for a single item. The
// parent transfer must still be in an active fulfillment phase.
func (c *Coordinator) UpdateItem(ctx context.Context, transferID, itemID string,
	status transfer.ItemStatus, actualQuantity *int) (transfer.Request, error) {
	request, err := c.store.Get(ctx, transferID)
	if err != nil {
		return transfer.Request{}, err
	}
	if request.Status.Terminal() {
		return transfer.Request{}, apperrors.WithMetadata(
			apperrors.CodeTransferInvalidState,
			fmt.Sprintf("transfer %s is %s; items can no longer change", transferID, request.Status),
			map[string]string{"TransferID": transferID, "Status": request.Status.String()},
		)
	}
	if actualQuantity != nil {
		if *actualQuantity < 0 {
			return transfer.Request{}, apperrors.New(apperrors.CodeTransferInvalidQuantity,
				fmt.Sprintf("actual quantity must not be negative, got %d", *actualQuantity))
		}
		if err := c.store.SetItemActualQuantity(ctx, transferID, itemID, *actualQuantity); err != nil {
			return transfer.Request{}, err
		}
	}
	if err := c.store.SetItemStatus(ctx, transferID, itemID, status); err != nil {
		return transfer.Request{}, err
	}
	return c.store.Get(ctx, transferID)
}

// CompletePicking moves a transfer from PICKING to PACKING once every item
// has been picked.
func (c *Coordinator) CompletePicking(ctx context.Context, transferID string) (transfer.Request, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.complete_picking",
		trace.WithAttributes(attribute.String("transfer.id", transferID)))
	defer span.End()

	request, err := c.requireStatus(ctx, transferID, transfer.StatusPicking)
	if err != nil {
		return transfer.Request{}, err
	}
	if !request.AllItemsHaveStatus(transfer.ItemStatusPicked) {
		return transfer.Request{}, apperrors.WithMetadata(
			apperrors.CodeTransferItemsNotReady,
			"all items must be picked before packing can begin",
			map[string]string{"TransferID": transferID},
		)
	}
	return c.advance(ctx, request, transfer.StatusPacking)
}

// CompletePacking moves a transfer from PACKING to READY_FOR_PICKUP once
// every item has been packed.
func (c *Coordinator) CompletePacking(ctx context.Context, transferID string) (transfer.Request, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.complete_packing",
		trace.WithAttributes(attribute.String("transfer.id", transferID)))
	defer span.End()

	request, err := c.requireStatus(ctx, transferID, transfer.StatusPacking)
	if err != nil {
		return transfer.Request{}, err
	}
	if !request.AllItemsHaveStatus(transfer.ItemStatusPacked) {
		return transfer.Request{}, apperrors.WithMetadata(
			apperrors.CodeTransferItemsNotReady,
			"all items must be packed before the shipment is ready for pickup",
			map[string]string{"TransferID": transferID},
		)
	}
	return c.advance(ctx, request, transfer.StatusReadyForPickup)
}

// Pickup records carrier details and moves the shipment into IN_TRANSIT.
// A persistence failure midway leaves the transfer in EXCEPTION because the
// tracking fields and statuses may disagree.
func (c *Coordinator) Pickup(ctx context.Context, transferID string, input PickupInput) (transfer.Request, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.pickup",
		trace.WithAttributes(attribute.String("transfer.id", transferID)))
	defer span.End()

	request, err := c.requireStatus(ctx, transferID, transfer.StatusReadyForPickup)
	if err != nil {
		return transfer.Request{}, err
	}
	if strings.TrimSpace(input.CarrierID) == "" || strings.TrimSpace(input.TrackingNumber) == "" {
		return transfer.Request{}, apperrors.New(apperrors.CodeTransferInvalidState,
			"carrier id and tracking number are required for pickup")
	}

	if err := c.store.SetTracking(ctx, transferID, input.CarrierID, input.TrackingNumber, input.ShippingLabelURL); err != nil {
		c.markException(ctx, transferID)
		return transfer.Request{}, err
	}
	if err := c.setAllItemStatuses(ctx, request, transfer.ItemStatusInTransit); err != nil {
		c.markException(ctx, transferID)
		return transfer.Request{}, err
	}
	updated, err := c.advance(ctx, request, transfer.StatusInTransit)
	if err != nil {
		c.markException(ctx, transferID)
		return transfer.Request{}, err
	}
	return updated, nil
}

// Arrive records that the shipment reached the destination warehouse.
func (c *Coordinator) Arrive(ctx context.Context, transferID string) (transfer.Request, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.arrive",
		trace.WithAttributes(attribute.String("transfer.id", transferID)))
	defer span.End()

	request, err := c.requireStatus(ctx, transferID, transfer.StatusInTransit)
	if err != nil {
		return transfer.Request{}, err
	}
	if err := c.setAllItemStatuses(ctx, request, transfer.ItemStatusArrived); err != nil {
		return transfer.Request{}, err
	}
	return c.advance(ctx, request, transfer.StatusArrived)
}

// Verify starts the destination-side check of the received items.
func (c *Coordinator) Verify(ctx context.Context, transferID string) (transfer.Request, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.verify",
		trace.WithAttributes(attribute.String("transfer.id", transferID)))
	defer span.End()

	request, err := c.requireStatus(ctx, transferID, transfer.StatusArrived)
	if err != nil {
		return transfer.Request{}, err
	}
	return c.advance(ctx, request, transfer.StatusVerifying)
}

// Complete moves the stock of every item to the destination warehouse and
// finishes the transfer. Each item's move is retried independently; items
// already moved are never rolled back, so a mid-stream failure parks the
// transfer in EXCEPTION with its completed items recorded.
func (c *Coordinator) Complete(ctx context.Context, transferID string) (transfer.Request, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.complete",
		trace.WithAttributes(attribute.String("transfer.id", transferID)))
	defer span.End()

	request, err := c.requireStatus(ctx, transferID, transfer.StatusVerifying)
	if err != nil {
		return transfer.Request{}, err
	}

	for _, item := range request.Items {
		err := c.retrier.Do(ctx, "transfer inventory "+item.InventoryID, func(ctx context.Context) error {
			return c.inventory.Transfer(ctx, clients.TransferInstruction{
				InventoryID:            item.InventoryID,
				SourceWarehouseID:      request.SourceWarehouseID,
				DestinationWarehouseID: request.DestinationWarehouseID,
				Quantity:               item.EffectiveQuantity(),
				Reason:                 clients.ReasonTransfer,
				ReferenceID:            request.ID,
			})
		})
		if err != nil {
			span.RecordError(err)
			c.logger.Error("inventory move failed mid-completion",
				zap.String("transfer_id", request.ID),
				zap.String("inventory_id", item.InventoryID),
				zap.Error(err))
			c.markException(ctx, transferID)
			return transfer.Request{}, err
		}
		if err := c.store.SetItemStatus(ctx, transferID, item.ID, transfer.ItemStatusCompleted); err != nil {
			c.markException(ctx, transferID)
			return transfer.Request{}, err
		}
	}

	updated, err := c.advance(ctx, request, transfer.StatusCompleted)
	if err != nil {
		c.markException(ctx, transferID)
		return transfer.Request{}, err
	}
	c.publish(ctx, events.TypeTransferCompleted, updated, request.Status)
	return updated, nil
}

// Cancel aborts a transfer that has not yet left the source warehouse.
// Reservations made at approval are released best effort before the
// aggregate is marked CANCELLED.
func (c *Coordinator) Cancel(ctx context.Context, transferID string) (transfer.Request, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.cancel",
		trace.WithAttributes(attribute.String("transfer.id", transferID)))
	defer span.End()

	request, err := c.store.Get(ctx, transferID)
	if err != nil {
		return transfer.Request{}, err
	}
	if !request.Status.Cancellable() {
		return transfer.Request{}, apperrors.WithMetadata(
			apperrors.CodeTransferInvalidState,
			fmt.Sprintf("transfer %s cannot be cancelled in status %s", transferID, request.Status),
			map[string]string{"TransferID": transferID, "Status": request.Status.String()},
		)
	}

	if reservationsHeld(request.Status) {
		c.releaseReservations(ctx, request, request.Items)
	}

	updated, err := c.store.Cancel(ctx, transferID)
	if err != nil {
		c.markException(ctx, transferID)
		return transfer.Request{}, err
	}
	c.logger.Info("transfer cancelled",
		zap.String("transfer_id", transferID),
		zap.String("previous_status", request.Status.String()))
	c.publish(ctx, events.TypeTransferCancelled, updated, request.Status)
	return updated, nil
}

// Get returns the transfer aggregate.
func (c *Coordinator) Get(ctx context.Context, transferID string) (transfer.Request, error) {
	return c.store.Get(ctx, transferID)
}

// ListByStatus returns every transfer currently in the given status.
func (c *Coordinator) ListByStatus(ctx context.Context, status transfer.Status) ([]transfer.Request, error) {
	return c.store.ListByStatus(ctx, status)
}

// reservationsHeld reports whether inventory is reserved at the source for
// a transfer in the given status. Reservations exist from approval until
// the carrier picks the shipment up.
func reservationsHeld(status transfer.Status) bool {
	switch status {
	case transfer.StatusApproved, transfer.StatusPicking, transfer.StatusPacking, transfer.StatusReadyForPickup:
		return true
	default:
		return false
	}
}

func (c *Coordinator) requireStatus(ctx context.Context, transferID string, want transfer.Status) (transfer.Request, error) {
	request, err := c.store.Get(ctx, transferID)
	if err != nil {
		return transfer.Request{}, err
	}
	if request.Status != want {
		return transfer.Request{}, apperrors.WithMetadata(
			apperrors.CodeTransferInvalidState,
			fmt.Sprintf("transfer %s is %s, expected %s", transferID, request.Status, want),
			map[string]string{
				"TransferID": transferID,
				"Status":     request.Status.String(),
				"Expected":   want.String(),
			},
		)
	}
	return request, nil
}

// advance persists the status change and publishes a notification.
func (c *Coordinator) advance(ctx context.Context, request transfer.Request, next transfer.Status) (transfer.Request, error) {
	updated, err := c.store.SetStatus(ctx, request.ID, next)
	if err != nil {
		return transfer.Request{}, err
	}
	c.logger.Info("transfer status changed",
		zap.String("transfer_id", request.ID),
		zap.String("from", request.Status.String()),
		zap.String("to", next.String()))
	c.publish(ctx, events.TypeStatusChanged, updated, request.Status)
	return updated, nil
}

func (c *Coordinator) setAllItemStatuses(ctx context.Context, request transfer.Request, status transfer.ItemStatus) error {
	for _, item := range request.Items {
		if err := c.store.SetItemStatus(ctx, request.ID, item.ID, status); err != nil {
			return err
		}
	}
	return nil
}

// releaseReservations frees the given reservations best effort. Failures
// are logged and swallowed: the caller is already handling a worse problem.
func (c *Coordinator) releaseReservations(ctx context.Context, request transfer.Request, items []transfer.Item) {
	for _, item := range items {
		err := c.retrier.Do(ctx, "release inventory "+item.InventoryID, func(ctx context.Context) error {
			return c.inventory.Release(ctx, clients.ReservationRequest{
				InventoryID: item.InventoryID,
				Quantity:    item.RequestedQuantity,
				Reason:      clients.ReasonTransferCancelled,
				ReferenceID: request.ID,
			})
		})
		if err != nil {
			c.logger.Warn("failed to release reservation",
				zap.String("transfer_id", request.ID),
				zap.String("inventory_id", item.InventoryID),
				zap.Error(err))
		}
	}
}

// markException parks the transfer for manual attention. Best effort: if
// even this write fails there is nothing further to do but log.
func (c *Coordinator) markException(ctx context.Context, transferID string) {
	if _, err := c.store.SetStatus(ctx, transferID, transfer.StatusException); err != nil {
		c.logger.Error("failed to mark transfer as exception",
			zap.String("transfer_id", transferID),
			zap.Error(err))
	}
}

// publish emits a lifecycle event best effort.
func (c *Coordinator) publish(ctx context.Context, eventType string, request transfer.Request, previous transfer.Status) {
	eventID, err := id.NewID()
	if err != nil {
		eventID = request.ID + "-" + eventType
	}
	event := events.TransferEvent{
		EventID:                eventID,
		Type:                   eventType,
		TransferID:             request.ID,
		ReferenceNumber:        request.ReferenceNumber,
		SourceWarehouseID:      request.SourceWarehouseID,
		DestinationWarehouseID: request.DestinationWarehouseID,
		Status:                 request.Status.String(),
		OccurredAt:             c.now().UTC(),
	}
	if previous != transfer.StatusUnspecified {
		event.PreviousStatus = previous.String()
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Warn("failed to publish transfer event",
			zap.String("type", eventType),
			zap.String("transfer_id", request.ID),
			zap.Error(err))
	}
}
