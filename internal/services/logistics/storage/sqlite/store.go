// Package sqlite provides the SQLite-backed transfer store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gogidix/cross-region-logistics/internal/platform/storage/sqlitemigrate"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/domain/transfer"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/storage"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/storage/sqlite/migrations"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis reverses toMillis for persisted millisecond timestamps.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// toNullMillis maps optional domain times to sql.NullInt64 for nullable DB columns.
func toNullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

// fromNullMillis maps nullable SQL timestamps back into optional domain time values.
func fromNullMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

func toNullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func fromNullInt(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

// Store is a SQLite-backed implementation of storage.TransferStore.
//
// Every mutation runs inside a transaction, so concurrent lifecycle
// transitions against the same transfer serialize at the database.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens a SQLite transfer store at the provided path and applies
// embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.TransfersFS, "transfers"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the underlying SQLite database.
//
// Close is intentionally nil-safe so callers can defer it in all startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Create persists a new transfer request with its items.
func (s *Store) Create(ctx context.Context, request transfer.Request) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create transfer: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO transfer_requests (
    id, reference_number, source_warehouse_id, destination_warehouse_id,
    priority, status, carrier_id, tracking_number, shipping_label_url,
    created_at, updated_at, completed_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		request.ID,
		request.ReferenceNumber,
		request.SourceWarehouseID,
		request.DestinationWarehouseID,
		request.Priority.String(),
		request.Status.String(),
		request.CarrierID,
		request.TrackingNumber,
		request.ShippingLabelURL,
		toMillis(request.CreatedAt),
		toMillis(request.UpdatedAt),
		toNullMillis(request.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert transfer request: %w", err)
	}

	for position, item := range request.Items {
		_, err = tx.ExecContext(ctx, `
INSERT INTO transfer_items (
    id, transfer_id, inventory_id, product_id, sku,
    requested_quantity, actual_quantity, status, position
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			request.ID,
			item.InventoryID,
			item.ProductID,
			item.SKU,
			item.RequestedQuantity,
			toNullInt(item.ActualQuantity),
			item.Status.String(),
			position,
		)
		if err != nil {
			return fmt.Errorf("insert transfer item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create transfer: %w", err)
	}
	return nil
}

// Get returns the full transfer aggregate, or storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, transferID string) (transfer.Request, error) {
	return getTransfer(ctx, s.sqlDB, transferID)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func getTransfer(ctx context.Context, q querier, transferID string) (transfer.Request, error) {
	var (
		request     transfer.Request
		priority    string
		status      string
		createdAt   int64
		updatedAt   int64
		completedAt sql.NullInt64
	)

	row := q.QueryRowContext(ctx, `
SELECT id, reference_number, source_warehouse_id, destination_warehouse_id,
       priority, status, carrier_id, tracking_number, shipping_label_url,
       created_at, updated_at, completed_at
FROM transfer_requests WHERE id = ?`, transferID)
	err := row.Scan(
		&request.ID,
		&request.ReferenceNumber,
		&request.SourceWarehouseID,
		&request.DestinationWarehouseID,
		&priority,
		&status,
		&request.CarrierID,
		&request.TrackingNumber,
		&request.ShippingLabelURL,
		&createdAt,
		&updatedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return transfer.Request{}, storage.ErrNotFound
	}
	if err != nil {
		return transfer.Request{}, fmt.Errorf("scan transfer request: %w", err)
	}

	if request.Priority, err = transfer.ParsePriority(priority); err != nil {
		return transfer.Request{}, fmt.Errorf("decode priority: %w", err)
	}
	if request.Status, err = transfer.ParseStatus(status); err != nil {
		return transfer.Request{}, fmt.Errorf("decode status: %w", err)
	}
	request.CreatedAt = fromMillis(createdAt)
	request.UpdatedAt = fromMillis(updatedAt)
	request.CompletedAt = fromNullMillis(completedAt)

	rows, err := q.QueryContext(ctx, `
SELECT id, inventory_id, product_id, sku, requested_quantity, actual_quantity, status
FROM transfer_items WHERE transfer_id = ? ORDER BY position`, transferID)
	if err != nil {
		return transfer.Request{}, fmt.Errorf("query transfer items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item           transfer.Item
			actualQuantity sql.NullInt64
			itemStatus     string
		)
		if err := rows.Scan(
			&item.ID,
			&item.InventoryID,
			&item.ProductID,
			&item.SKU,
			&item.RequestedQuantity,
			&actualQuantity,
			&itemStatus,
		); err != nil {
			return transfer.Request{}, fmt.Errorf("scan transfer item: %w", err)
		}
		item.ActualQuantity = fromNullInt(actualQuantity)
		if item.Status, err = transfer.ParseItemStatus(itemStatus); err != nil {
			return transfer.Request{}, fmt.Errorf("decode item status: %w", err)
		}
		request.Items = append(request.Items, item)
	}
	if err := rows.Err(); err != nil {
		return transfer.Request{}, fmt.Errorf("iterate transfer items: %w", err)
	}

	return request, nil
}

// SetStatus atomically updates the request status and returns the updated aggregate.
func (s *Store) SetStatus(ctx context.Context, transferID string, status transfer.Status) (transfer.Request, error) {
	now := toMillis(s.now())

	var completedAt sql.NullInt64
	if status == transfer.StatusCompleted {
		completedAt = sql.NullInt64{Int64: now, Valid: true}
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE transfer_requests
SET status = ?, updated_at = ?,
    completed_at = COALESCE(completed_at, ?)
WHERE id = ?`,
		status.String(), now, completedAt, transferID)
	if err != nil {
		return transfer.Request{}, fmt.Errorf("update transfer status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return transfer.Request{}, fmt.Errorf("update transfer status rows: %w", err)
	}
	if affected == 0 {
		return transfer.Request{}, storage.ErrNotFound
	}

	return s.Get(ctx, transferID)
}

// SetItemStatus updates a single item's status and bumps the parent timestamp.
func (s *Store) SetItemStatus(ctx context.Context, transferID, itemID string, status transfer.ItemStatus) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set item status: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
UPDATE transfer_items SET status = ? WHERE id = ? AND transfer_id = ?`,
		status.String(), itemID, transferID)
	if err != nil {
		return fmt.Errorf("update item status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item status rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `UPDATE transfer_requests SET updated_at = ? WHERE id = ?`,
		toMillis(s.now()), transferID)
	if err != nil {
		return fmt.Errorf("touch transfer request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set item status: %w", err)
	}
	return nil
}

// SetItemActualQuantity records the fulfilled quantity for an item.
func (s *Store) SetItemActualQuantity(ctx context.Context, transferID, itemID string, quantity int) error {
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE transfer_items SET actual_quantity = ? WHERE id = ? AND transfer_id = ?`,
		quantity, itemID, transferID)
	if err != nil {
		return fmt.Errorf("update item actual quantity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item actual quantity rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SetTracking persists carrier and tracking fields captured at pickup.
func (s *Store) SetTracking(ctx context.Context, transferID, carrierID, trackingNumber, labelURL string) error {
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE transfer_requests
SET carrier_id = ?, tracking_number = ?, shipping_label_url = ?, updated_at = ?
WHERE id = ?`,
		carrierID, trackingNumber, labelURL, toMillis(s.now()), transferID)
	if err != nil {
		return fmt.Errorf("update tracking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update tracking rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Cancel marks the request and every item CANCELLED in one transaction.
func (s *Store) Cancel(ctx context.Context, transferID string) (transfer.Request, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return transfer.Request{}, fmt.Errorf("begin cancel transfer: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
UPDATE transfer_requests SET status = ?, updated_at = ? WHERE id = ?`,
		transfer.StatusCancelled.String(), toMillis(s.now()), transferID)
	if err != nil {
		return transfer.Request{}, fmt.Errorf("cancel transfer request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return transfer.Request{}, fmt.Errorf("cancel transfer rows: %w", err)
	}
	if affected == 0 {
		return transfer.Request{}, storage.ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `UPDATE transfer_items SET status = ? WHERE transfer_id = ?`,
		transfer.ItemStatusCancelled.String(), transferID)
	if err != nil {
		return transfer.Request{}, fmt.Errorf("cancel transfer items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return transfer.Request{}, fmt.Errorf("commit cancel transfer: %w", err)
	}

	return s.Get(ctx, transferID)
}

// ListByStatus returns all transfers currently in the given status,
// most recently updated first.
func (s *Store) ListByStatus(ctx context.Context, status transfer.Status) ([]transfer.Request, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id FROM transfer_requests WHERE status = ? ORDER BY updated_at DESC`,
		status.String())
	if err != nil {
		return nil, fmt.Errorf("query transfers by status: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan transfer id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer ids: %w", err)
	}

	requests := make([]transfer.Request, 0, len(ids))
	for _, id := range ids {
		request, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, nil
}
