package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/gogidix/cross-region-logistics/internal/platform/errors"
	"github.com/gogidix/cross-region-logistics/internal/platform/timeouts"
)

// maxErrorBodyBytes caps how much of an error response is kept for messages.
const maxErrorBodyBytes = 512

// HTTPWarehouseClient talks to the warehouse directory's REST API.
type HTTPWarehouseClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPWarehouseClient builds a warehouse directory client. A nil
// httpClient falls back to a client bounded by the shared collaborator
// timeout.
func NewHTTPWarehouseClient(baseURL string, httpClient *http.Client) *HTTPWarehouseClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.CollaboratorRequest}
	}
	return &HTTPWarehouseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

// Exists reports whether a warehouse id is known to the directory.
func (c *HTTPWarehouseClient) Exists(ctx context.Context, warehouseID string) (bool, error) {
	var exists bool
	err := getJSON(ctx, c.client, c.baseURL+"/warehouses/"+url.PathEscape(warehouseID)+"/exists", &exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Get fetches a warehouse record.
func (c *HTTPWarehouseClient) Get(ctx context.Context, warehouseID string) (WarehouseRecord, error) {
	var record WarehouseRecord
	err := getJSON(ctx, c.client, c.baseURL+"/warehouses/"+url.PathEscape(warehouseID), &record)
	if err != nil {
		if isNotFound(err) {
			return WarehouseRecord{}, apperrors.WrapWithMetadata(
				apperrors.CodeNotFound,
				"warehouse not found: "+warehouseID,
				map[string]string{"WarehouseID": warehouseID},
				err,
			)
		}
		return WarehouseRecord{}, err
	}
	return record, nil
}

// HTTPInventoryClient talks to the inventory service's REST API.
type HTTPInventoryClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPInventoryClient builds an inventory service client.
func NewHTTPInventoryClient(baseURL string, httpClient *http.Client) *HTTPInventoryClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.CollaboratorRequest}
	}
	return &HTTPInventoryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

// GetItem fetches an inventory record.
func (c *HTTPInventoryClient) GetItem(ctx context.Context, inventoryID string) (InventoryRecord, error) {
	var record InventoryRecord
	err := getJSON(ctx, c.client, c.baseURL+"/inventory/"+url.PathEscape(inventoryID), &record)
	if err != nil {
		if isNotFound(err) {
			return InventoryRecord{}, apperrors.WrapWithMetadata(
				apperrors.CodeNotFound,
				"inventory item not found: "+inventoryID,
				map[string]string{"InventoryID": inventoryID},
				err,
			)
		}
		return InventoryRecord{}, err
	}
	return record, nil
}

// Reserve holds stock at the owning warehouse.
func (c *HTTPInventoryClient) Reserve(ctx context.Context, req ReservationRequest) error {
	return postJSON(ctx, c.client, c.baseURL+"/inventory/reserve", req)
}

// Release frees a previous reservation.
func (c *HTTPInventoryClient) Release(ctx context.Context, req ReservationRequest) error {
	return postJSON(ctx, c.client, c.baseURL+"/inventory/release", req)
}

// Transfer moves stock from the source to the destination warehouse.
func (c *HTTPInventoryClient) Transfer(ctx context.Context, instr TransferInstruction) error {
	return postJSON(ctx, c.client, c.baseURL+"/inventory/transfer", instr)
}

func isNotFound(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr) && transportErr.StatusCode == http.StatusNotFound
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newTransportError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", endpoint, err)
	}
	return nil
}

func postJSON(ctx context.Context, client *http.Client, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newTransportError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func newTransportError(resp *http.Response) *TransportError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return &TransportError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
