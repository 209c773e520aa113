// Package rest exposes the transfer workflow over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/gogidix/cross-region-logistics/internal/platform/errors"
	"github.com/gogidix/cross-region-logistics/internal/platform/id"
	"github.com/gogidix/cross-region-logistics/internal/platform/requestctx"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/domain/transfer"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/integration"
	"github.com/gogidix/cross-region-logistics/internal/services/logistics/validation"
)

// Workflow is the coordinator surface the REST layer drives.
type Workflow interface {
	Submit(ctx context.Context, input transfer.CreateInput) (transfer.Request, validation.Result, error)
	Approve(ctx context.Context, transferID string) (transfer.Request, error)
	StartPicking(ctx context.Context, transferID string) (transfer.Request, error)
	UpdateItem(ctx context.Context, transferID, itemID string, status transfer.ItemStatus, actualQuantity *int) (transfer.Request, error)
	CompletePicking(ctx context.Context, transferID string) (transfer.Request, error)
	CompletePacking(ctx context.Context, transferID string) (transfer.Request, error)
	Pickup(ctx context.Context, transferID string, input integration.PickupInput) (transfer.Request, error)
	Arrive(ctx context.Context, transferID string) (transfer.Request, error)
	Verify(ctx context.Context, transferID string) (transfer.Request, error)
	Complete(ctx context.Context, transferID string) (transfer.Request, error)
	Cancel(ctx context.Context, transferID string) (transfer.Request, error)
	Get(ctx context.Context, transferID string) (transfer.Request, error)
	ListByStatus(ctx context.Context, status transfer.Status) ([]transfer.Request, error)
}

// Handler routes transfer workflow requests.
type Handler struct {
	workflow Workflow
	logger   *zap.Logger
}

// NewHandler builds the REST handler. A nil logger logs nothing.
func NewHandler(workflow Workflow, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{workflow: workflow, logger: logger}
}

// Routes registers every endpoint and returns the root handler.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /transfers", h.submit)
	mux.HandleFunc("GET /transfers", h.list)
	mux.HandleFunc("GET /transfers/{id}", h.get)
	mux.HandleFunc("POST /transfers/{id}/approve", h.lifecycle(func(ctx context.Context, id string) (transfer.Request, error) {
		return h.workflow.Approve(ctx, id)
	}))
	mux.HandleFunc("POST /transfers/{id}/start-picking", h.lifecycle(func(ctx context.Context, id string) (transfer.Request, error) {
		return h.workflow.StartPicking(ctx, id)
	}))
	mux.HandleFunc("POST /transfers/{id}/complete-picking", h.lifecycle(func(ctx context.Context, id string) (transfer.Request, error) {
		return h.workflow.CompletePicking(ctx, id)
	}))
	mux.HandleFunc("POST /transfers/{id}/complete-packing", h.lifecycle(func(ctx context.Context, id string) (transfer.Request, error) {
		return h.workflow.CompletePacking(ctx, id)
	}))
	mux.HandleFunc("POST /transfers/{id}/pickup", h.pickup)
	mux.HandleFunc("POST /transfers/{id}/arrive", h.lifecycle(func(ctx context.Context, id string) (transfer.Request, error) {
		return h.workflow.Arrive(ctx, id)
	}))
	mux.HandleFunc("POST /transfers/{id}/verify", h.lifecycle(func(ctx context.Context, id string) (transfer.Request, error) {
		return h.workflow.Verify(ctx, id)
	}))
	mux.HandleFunc("POST /transfers/{id}/complete", h.lifecycle(func(ctx context.Context, id string) (transfer.Request, error) {
		return h.workflow.Complete(ctx, id)
	}))
	mux.HandleFunc("POST /transfers/{id}/cancel", h.lifecycle(func(ctx context.Context, id string) (transfer.Request, error) {
		return h.workflow.Cancel(ctx, id)
	}))
	mux.HandleFunc("PUT /transfers/{id}/items/{itemId}", h.updateItem)
	return h.withRequestID(mux)
}

// withRequestID assigns every request a correlation id, honoring one the
// caller already supplied.
func (h *Handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			if generated, err := id.NewID(); err == nil {
				requestID = generated
			}
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := requestctx.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type createItemPayload struct {
	InventoryID       string `json:"inventoryId"`
	ProductID         string `json:"productId"`
	SKU               string `json:"sku"`
	RequestedQuantity int    `json:"requestedQuantity"`
}

type createTransferPayload struct {
	ReferenceNumber        string              `json:"referenceNumber"`
	SourceWarehouseID      string              `json:"sourceWarehouseId"`
	DestinationWarehouseID string              `json:"destinationWarehouseId"`
	Priority               string              `json:"priority"`
	Items                  []createItemPayload `json:"items"`
}

type pickupPayload struct {
	CarrierID        string `json:"carrierId"`
	TrackingNumber   string `json:"trackingNumber"`
	ShippingLabelURL string `json:"shippingLabelUrl"`
}

type updateItemPayload struct {
	Status         string `json:"status"`
	ActualQuantity *int   `json:"actualQuantity"`
}

type itemResponse struct {
	ID                string `json:"id"`
	InventoryID       string `json:"inventoryId"`
	ProductID         string `json:"productId"`
	SKU               string `json:"sku"`
	RequestedQuantity int    `json:"requestedQuantity"`
	ActualQuantity    *int   `json:"actualQuantity,omitempty"`
	Status            string `json:"status"`
}

type transferResponse struct {
	ID                     string         `json:"id"`
	ReferenceNumber        string         `json:"referenceNumber"`
	SourceWarehouseID      string         `json:"sourceWarehouseId"`
	DestinationWarehouseID string         `json:"destinationWarehouseId"`
	Priority               string         `json:"priority"`
	Status                 string         `json:"status"`
	Items                  []itemResponse `json:"items"`
	CarrierID              string         `json:"carrierId,omitempty"`
	TrackingNumber         string         `json:"trackingNumber,omitempty"`
	ShippingLabelURL       string         `json:"shippingLabelUrl,omitempty"`
	CreatedAt              time.Time      `json:"createdAt"`
	UpdatedAt              time.Time      `json:"updatedAt"`
	CompletedAt            *time.Time     `json:"completedAt,omitempty"`
}

type errorResponse struct {
	Code             string   `json:"code"`
	Error            string   `json:"error"`
	ValidationErrors []string `json:"validationErrors,omitempty"`
}

func toTransferResponse(request transfer.Request) transferResponse {
	items := make([]itemResponse, 0, len(request.Items))
	for _, item := range request.Items {
		items = append(items, itemResponse{
			ID:                item.ID,
			InventoryID:       item.InventoryID,
			ProductID:         item.ProductID,
			SKU:               item.SKU,
			RequestedQuantity: item.RequestedQuantity,
			ActualQuantity:    item.ActualQuantity,
			Status:            item.Status.String(),
		})
	}
	return transferResponse{
		ID:                     request.ID,
		ReferenceNumber:        request.ReferenceNumber,
		SourceWarehouseID:      request.SourceWarehouseID,
		DestinationWarehouseID: request.DestinationWarehouseID,
		Priority:               request.Priority.String(),
		Status:                 request.Status.String(),
		Items:                  items,
		CarrierID:              request.CarrierID,
		TrackingNumber:         request.TrackingNumber,
		ShippingLabelURL:       request.ShippingLabelURL,
		CreatedAt:              request.CreatedAt,
		UpdatedAt:              request.UpdatedAt,
		CompletedAt:            request.CompletedAt,
	}
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var payload createTransferPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:  string(apperrors.CodeUnknown),
			Error: "invalid request body: " + err.Error(),
		})
		return
	}

	input := transfer.CreateInput{
		ReferenceNumber:        payload.ReferenceNumber,
		SourceWarehouseID:      payload.SourceWarehouseID,
		DestinationWarehouseID: payload.DestinationWarehouseID,
		Items:                  make([]transfer.ItemInput, 0, len(payload.Items)),
	}
	if payload.Priority != "" {
		priority, err := transfer.ParsePriority(payload.Priority)
		if err != nil {
			h.writeError(r.Context(), w, err, nil)
			return
		}
		input.Priority = priority
	}
	for _, item := range payload.Items {
		input.Items = append(input.Items, transfer.ItemInput{
			InventoryID:       item.InventoryID,
			ProductID:         item.ProductID,
			SKU:               item.SKU,
			RequestedQuantity: item.RequestedQuantity,
		})
	}

	request, result, err := h.workflow.Submit(r.Context(), input)
	if err != nil {
		h.writeError(r.Context(), w, err, result.Errors)
		return
	}
	h.writeJSON(w, http.StatusCreated, toTransferResponse(request))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	request, err := h.workflow.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(r.Context(), w, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, toTransferResponse(request))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("status")
	if label == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:  string(apperrors.CodeTransferUnknownStatus),
			Error: "status query parameter is required",
		})
		return
	}
	status, err := transfer.ParseStatus(label)
	if err != nil {
		h.writeError(r.Context(), w, err, nil)
		return
	}
	requests, err := h.workflow.ListByStatus(r.Context(), status)
	if err != nil {
		h.writeError(r.Context(), w, err, nil)
		return
	}
	responses := make([]transferResponse, 0, len(requests))
	for _, request := range requests {
		responses = append(responses, toTransferResponse(request))
	}
	h.writeJSON(w, http.StatusOK, responses)
}

// lifecycle adapts the single-id workflow operations to handlers.
func (h *Handler) lifecycle(op func(ctx context.Context, transferID string) (transfer.Request, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		request, err := op(r.Context(), r.PathValue("id"))
		if err != nil {
			h.writeError(r.Context(), w, err, nil)
			return
		}
		h.writeJSON(w, http.StatusOK, toTransferResponse(request))
	}
}

func (h *Handler) pickup(w http.ResponseWriter, r *http.Request) {
	var payload pickupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:  string(apperrors.CodeUnknown),
			Error: "invalid request body: " + err.Error(),
		})
		return
	}
	request, err := h.workflow.Pickup(r.Context(), r.PathValue("id"), integration.PickupInput{
		CarrierID:        payload.CarrierID,
		TrackingNumber:   payload.TrackingNumber,
		ShippingLabelURL: payload.ShippingLabelURL,
	})
	if err != nil {
		h.writeError(r.Context(), w, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, toTransferResponse(request))
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var payload updateItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:  string(apperrors.CodeUnknown),
			Error: "invalid request body: " + err.Error(),
		})
		return
	}
	status, err := transfer.ParseItemStatus(payload.Status)
	if err != nil {
		h.writeError(r.Context(), w, err, nil)
		return
	}
	request, err := h.workflow.UpdateItem(r.Context(), r.PathValue("id"), r.PathValue("itemId"), status, payload.ActualQuantity)
	if err != nil {
		h.writeError(r.Context(), w, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, toTransferResponse(request))
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, validationErrors []string) {
	code := apperrors.CodeUnknown
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		code = domainErr.Code
	}
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", requestctx.RequestIDFromContext(ctx)),
			zap.String("code", string(code)),
			zap.Error(err))
	}
	h.writeJSON(w, status, errorResponse{
		Code:             string(code),
		Error:            err.Error(),
		ValidationErrors: validationErrors,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}
