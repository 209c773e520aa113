// Package validation performs pre-flight checks of a transfer request
// against the warehouse directory and the inventory service before the
// request enters the fulfillment workflow.
package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gogidix/cross-region-logistics/internal/services/logistics/clients"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/domain/transfer"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/storage"
)

// Metadata keys under which fetched collaborator records are stashed so the
// workflow can reuse them without re-fetching.
const (
	MetadataSourceWarehouse      = "sourceWarehouse"
	MetadataDestinationWarehouse = "destinationWarehouse"
)

// Result aggregates the outcome of a validation call. It is built fresh per
// call and never persisted. Valid is true only when the error list is empty.
type Result struct {
	Valid    bool
	Errors   []string
	Metadata map[string]any
}

// Service validates transfer requests. It is stateless; a single instance is
// safe for concurrent use across transfers.
type Service struct {
	warehouses clients.WarehouseClient
	inventory  clients.InventoryClient
	logger     *zap.Logger
}

// NewService builds a validation service over the collaborator clients.
func NewService(warehouses clients.WarehouseClient, inventory clients.InventoryClient, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		warehouses: warehouses,
		inventory:  inventory,
		logger:     logger,
	}
}

// Validate runs the structural pass and, when it is clean, the cross-service
// pass. All violations are collected into the result; expected collaborator
// failure modes become error strings rather than returned errors.
func (s *Service) Validate(ctx context.Context, request transfer.Request) Result {
	errs := validateStructure(request)
	metadata := map[string]any{}

	// Cross-service checks only run against structurally sound requests,
	// everything else would produce noise about ids that were never set.
	if len(errs) == 0 {
		errs = append(errs, s.validateWarehouses(ctx, request, metadata)...)
		errs = append(errs, s.validateInventory(ctx, request, metadata)...)
	}

	return Result{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Metadata: metadata,
	}
}

// validateStructure checks the request shape without any external calls.
// Every failing check appends an error; the pass never aborts early.
func validateStructure(request transfer.Request) []string {
	var errs []string

	if strings.TrimSpace(request.SourceWarehouseID) == "" {
		errs = append(errs, "source warehouse id is required")
	}
	if strings.TrimSpace(request.DestinationWarehouseID) == "" {
		errs = append(errs, "destination warehouse id is required")
	}
	if request.SourceWarehouseID != "" &&
		request.SourceWarehouseID == request.DestinationWarehouseID {
		errs = append(errs, "source and destination warehouses must be different")
	}

	if len(request.Items) == 0 {
		errs = append(errs, "at least one item is required for transfer")
		return errs
	}

	for i, item := range request.Items {
		if strings.TrimSpace(item.InventoryID) == "" {
			errs = append(errs, fmt.Sprintf("item at index %d is missing inventory id", i))
		}
		if strings.TrimSpace(item.ProductID) == "" {
			errs = append(errs, fmt.Sprintf("item at index %d is missing product id", i))
		}
		if strings.TrimSpace(item.SKU) == "" {
			errs = append(errs, fmt.Sprintf("item at index %d is missing SKU", i))
		}
		if item.RequestedQuantity <= 0 {
			errs = append(errs, fmt.Sprintf("item at index %d has invalid requested quantity %d", i, item.RequestedQuantity))
		}
	}

	return errs
}

// validateWarehouses confirms both warehouse ids exist in the directory and
// stashes the fetched records for reuse.
func (s *Service) validateWarehouses(ctx context.Context, request transfer.Request, metadata map[string]any) []string {
	var errs []string

	check := func(warehouseID, role, metadataKey string) {
		exists, err := s.warehouses.Exists(ctx, warehouseID)
		if err != nil {
			s.logger.Error("warehouse existence check failed",
				zap.String("warehouse_id", warehouseID), zap.Error(err))
			errs = append(errs, fmt.Sprintf("error validating warehouses: %v", err))
			return
		}
		if !exists {
			errs = append(errs, fmt.Sprintf("%s warehouse %s does not exist", role, warehouseID))
			return
		}
		record, err := s.warehouses.Get(ctx, warehouseID)
		if err != nil {
			s.logger.Error("warehouse fetch failed",
				zap.String("warehouse_id", warehouseID), zap.Error(err))
			errs = append(errs, fmt.Sprintf("error validating warehouses: %v", err))
			return
		}
		metadata[metadataKey] = record
	}

	check(request.SourceWarehouseID, "source", MetadataSourceWarehouse)
	check(request.DestinationWarehouseID, "destination", MetadataDestinationWarehouse)

	return errs
}

// validateInventory verifies each item's inventory record: it must exist,
// belong to the source warehouse, and cover the requested quantity. Fetched
// records are stashed in metadata keyed by inventory id.
func (s *Service) validateInventory(ctx context.Context, request transfer.Request, metadata map[string]any) []string {
	var errs []string

	for _, item := range request.Items {
		record, err := s.inventory.GetItem(ctx, item.InventoryID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				errs = append(errs, fmt.Sprintf("inventory item %s does not exist", item.InventoryID))
				continue
			}
			s.logger.Error("inventory fetch failed",
				zap.String("inventory_id", item.InventoryID), zap.Error(err))
			errs = append(errs, fmt.Sprintf("error validating inventory: %v", err))
			continue
		}

		metadata[item.InventoryID] = record

		if record.WarehouseID != request.SourceWarehouseID {
			errs = append(errs, fmt.Sprintf("inventory item %s does not belong to source warehouse %s",
				item.InventoryID, request.SourceWarehouseID))
		}
		if record.AvailableQuantity < item.RequestedQuantity {
			errs = append(errs, fmt.Sprintf("insufficient quantity for inventory item %s: requested %d, available %d",
				item.InventoryID, item.RequestedQuantity, record.AvailableQuantity))
		}
	}

	return errs
}
