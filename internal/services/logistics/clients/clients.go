// Package clients defines the downstream collaborator contracts the
// logistics workflow depends on: the warehouse directory and the inventory
// service. Implementations are transport-specific; the workflow only sees
// these interfaces.
package clients

import "context"

// Reservation reasons recorded against inventory movements.
const (
	ReasonTransfer          = "TRANSFER"
	ReasonTransferCancelled = "TRANSFER_CANCELLED"
)

// WarehouseRecord is the warehouse directory's view of a warehouse.
type WarehouseRecord struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

// InventoryRecord is the inventory service's view of a stock item.
type InventoryRecord struct {
	ID                string `json:"id"`
	WarehouseID       string `json:"warehouseId"`
	ProductID         string `json:"productId"`
	SKU               string `json:"sku"`
	AvailableQuantity int    `json:"availableQuantity"`
}

// ReservationRequest asks the inventory service to hold or release stock.
type ReservationRequest struct {
	InventoryID string `json:"inventoryId"`
	Quantity    int    `json:"quantity"`
	Reason      string `json:"reason"`
	ReferenceID string `json:"referenceId"`
}

// TransferInstruction asks the inventory service to move stock between
// warehouses.
type TransferInstruction struct {
	InventoryID            string `json:"inventoryId"`
	SourceWarehouseID      string `json:"sourceWarehouseId"`
	DestinationWarehouseID string `json:"destinationWarehouseId"`
	Quantity               int    `json:"quantity"`
	Reason                 string `json:"reason"`
	ReferenceID            string `json:"referenceId"`
}

// WarehouseClient is the warehouse directory contract.
type WarehouseClient interface {
	// Exists reports whether a warehouse id is known to the directory.
	Exists(ctx context.Context, warehouseID string) (bool, error)
	// Get fetches a warehouse record; a missing warehouse yields a
	// NOT_FOUND domain error.
	Get(ctx context.Context, warehouseID string) (WarehouseRecord, error)
}

// InventoryClient is the inventory service contract.
type InventoryClient interface {
	// GetItem fetches an inventory record; a missing item yields a
	// NOT_FOUND domain error.
	GetItem(ctx context.Context, inventoryID string) (InventoryRecord, error)
	// Reserve holds stock at the owning warehouse.
	Reserve(ctx context.Context, req ReservationRequest) error
	// Release frees a previous reservation.
	Release(ctx context.Context, req ReservationRequest) error
	// Transfer moves stock from the source to the destination warehouse.
	Transfer(ctx context.Context, instr TransferInstruction) error
}
