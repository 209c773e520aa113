// Package transfer holds the cross-warehouse transfer aggregate and its
// status vocabulary. A transfer moves inventory from a source warehouse to a
// destination warehouse through a multi-step fulfillment workflow.
package transfer

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/gogidix/cross-region-logistics/internal/platform/id"
)

// Request represents a transfer of inventory between two warehouses.
// Item membership is fixed after creation: item quantities and statuses
// mutate as the workflow advances, but items are never added or removed.
type Request struct {
	ID                     string
	ReferenceNumber        string
	SourceWarehouseID      string
	DestinationWarehouseID string
	Priority               Priority
	Status                 Status
	Items                  []Item
	// CarrierID, TrackingNumber, and ShippingLabelURL are populated at pickup.
	CarrierID        string
	TrackingNumber   string
	ShippingLabelURL string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
}

// Item is a single inventory line within a transfer request.
type Item struct {
	ID                string
	InventoryID       string
	ProductID         string
	SKU               string
	RequestedQuantity int
	// ActualQuantity is set during fulfillment when the picked amount
	// differs from the requested amount.
	ActualQuantity *int
	Status         ItemStatus
}

// EffectiveQuantity returns the quantity to move at completion: the actual
// quantity when fulfillment recorded one, otherwise the requested quantity.
func (i Item) EffectiveQuantity() int {
	if i.ActualQuantity != nil {
		return *i.ActualQuantity
	}
	return i.RequestedQuantity
}

// AllItemsHaveStatus reports whether every item carries the given status.
func (r Request) AllItemsHaveStatus(status ItemStatus) bool {
	for _, item := range r.Items {
		if item.Status != status {
			return false
		}
	}
	return true
}

// CreateInput describes the data needed to create a transfer request.
type CreateInput struct {
	ReferenceNumber        string
	SourceWarehouseID      string
	DestinationWarehouseID string
	Priority               Priority
	Items                  []ItemInput
}

// ItemInput describes a single requested inventory line.
type ItemInput struct {
	InventoryID       string
	ProductID         string
	SKU               string
	RequestedQuantity int
}

// NewRequest builds a transfer request in PENDING_APPROVAL with generated
// identifiers and UTC timestamps. Structural validity is not enforced here;
// the validation service owns that so all violations can be collected and
// reported together.
func NewRequest(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Request, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	requestID, err := idGenerator()
	if err != nil {
		return Request{}, fmt.Errorf("generate transfer id: %w", err)
	}

	createdAt := now().UTC()

	reference := strings.TrimSpace(input.ReferenceNumber)
	if reference == "" {
		reference = NewReferenceNumber(createdAt)
	}

	priority := input.Priority
	if priority == PriorityUnspecified {
		priority = PriorityNormal
	}

	items := make([]Item, 0, len(input.Items))
	for _, in := range input.Items {
		itemID, err := idGenerator()
		if err != nil {
			return Request{}, fmt.Errorf("generate transfer item id: %w", err)
		}
		items = append(items, Item{
			ID:                itemID,
			InventoryID:       strings.TrimSpace(in.InventoryID),
			ProductID:         strings.TrimSpace(in.ProductID),
			SKU:               strings.TrimSpace(in.SKU),
			RequestedQuantity: in.RequestedQuantity,
			Status:            ItemStatusPending,
		})
	}

	return Request{
		ID:                     requestID,
		ReferenceNumber:        reference,
		SourceWarehouseID:      strings.TrimSpace(input.SourceWarehouseID),
		DestinationWarehouseID: strings.TrimSpace(input.DestinationWarehouseID),
		Priority:               priority,
		Status:                 StatusPendingApproval,
		Items:                  items,
		CreatedAt:              createdAt,
		UpdatedAt:              createdAt,
	}, nil
}

// NewReferenceNumber generates an external correlation number in the
// TR-YYYYMMDD-XXXX format used on shipping paperwork.
func NewReferenceNumber(now time.Time) string {
	return fmt.Sprintf("TR-%s-%04d", now.UTC().Format("20060102"), rand.Intn(9000)+1000)
}
