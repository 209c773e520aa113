// Package errors provides structured error handling with machine-readable codes.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Transfer errors
	CodeTransferInvalidState      Code = "TRANSFER_INVALID_STATE"
	CodeTransferItemsNotReady     Code = "TRANSFER_ITEMS_NOT_READY"
	CodeTransferValidationFailed  Code = "TRANSFER_VALIDATION_FAILED"
	CodeTransferSameWarehouse     Code = "TRANSFER_SAME_WAREHOUSE"
	CodeTransferEmptyItems        Code = "TRANSFER_EMPTY_ITEMS"
	CodeTransferInvalidQuantity   Code = "TRANSFER_INVALID_QUANTITY"
	CodeTransferMissingWarehouse  Code = "TRANSFER_MISSING_WAREHOUSE"
	CodeTransferInvalidPriority   Code = "TRANSFER_INVALID_PRIORITY"
	CodeTransferInvalidReference  Code = "TRANSFER_INVALID_REFERENCE"
	CodeTransferUnknownStatus     Code = "TRANSFER_UNKNOWN_STATUS"
	CodeTransferUnknownItemStatus Code = "TRANSFER_UNKNOWN_ITEM_STATUS"

	// Integration errors
	CodeIntegrationFailure   Code = "INTEGRATION_FAILURE"
	CodeIntegrationInterrupt Code = "INTEGRATION_INTERRUPTED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeTransferValidationFailed,
		CodeTransferSameWarehouse,
		CodeTransferEmptyItems,
		CodeTransferInvalidQuantity,
		CodeTransferMissingWarehouse,
		CodeTransferInvalidPriority,
		CodeTransferInvalidReference,
		CodeTransferUnknownStatus,
		CodeTransferUnknownItemStatus:
		return codes.InvalidArgument

	// FailedPrecondition - lifecycle state violations
	case CodeTransferInvalidState,
		CodeTransferItemsNotReady:
		return codes.FailedPrecondition

	// NotFound - missing records
	case CodeNotFound:
		return codes.NotFound

	// Unavailable - downstream collaborator failures
	case CodeIntegrationFailure,
		CodeIntegrationInterrupt:
		return codes.Unavailable

	default:
		return codes.Internal
	}
}

// HTTPStatus maps domain codes to HTTP status codes for the REST surface.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeTransferValidationFailed,
		CodeTransferSameWarehouse,
		CodeTransferEmptyItems,
		CodeTransferInvalidQuantity,
		CodeTransferMissingWarehouse,
		CodeTransferInvalidPriority,
		CodeTransferInvalidReference,
		CodeTransferUnknownStatus,
		CodeTransferUnknownItemStatus:
		return http.StatusUnprocessableEntity
	case CodeTransferInvalidState, CodeTransferItemsNotReady:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeIntegrationFailure, CodeIntegrationInterrupt:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
