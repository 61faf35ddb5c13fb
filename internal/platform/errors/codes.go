// Package errors provides structured error handling with i18n support.
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

	// Blueprint errors
	CodeBlueprintNameEmpty        Code = "BLUEPRINT_NAME_EMPTY"
	CodeBlueprintFieldInvalidType Code = "BLUEPRINT_FIELD_INVALID_TYPE"
	CodeBlueprintFieldDuplicateID Code = "BLUEPRINT_FIELD_DUPLICATE_ID"
	CodeBlueprintFieldLabelEmpty  Code = "BLUEPRINT_FIELD_LABEL_EMPTY"

	// Contract errors
	CodeContractNameEmpty               Code = "CONTRACT_NAME_EMPTY"
	CodeContractMissingRequiredFields   Code = "CONTRACT_MISSING_REQUIRED_FIELDS"
	CodeContractInvalidStatusTransition Code = "CONTRACT_INVALID_STATUS_TRANSITION"
	CodeContractStatusTerminal          Code = "CONTRACT_STATUS_TERMINAL"
	CodeContractStatusConflict          Code = "CONTRACT_STATUS_CONFLICT"
	CodeContractHistoryInvalid          Code = "CONTRACT_HISTORY_INVALID"
	CodeContractValueInvalid            Code = "CONTRACT_VALUE_INVALID"

	// Request errors
	CodeFilterInvalid  Code = "FILTER_INVALID"
	CodeInvalidRequest Code = "INVALID_REQUEST"

	// Storage errors
	CodeNotFound        Code = "NOT_FOUND"
	CodeStorageConflict Code = "STORAGE_CONFLICT"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeBlueprintNameEmpty,
		CodeBlueprintFieldInvalidType,
		CodeBlueprintFieldDuplicateID,
		CodeBlueprintFieldLabelEmpty,
		CodeContractNameEmpty,
		CodeContractMissingRequiredFields,
		CodeContractValueInvalid,
		CodeFilterInvalid,
		CodeInvalidRequest:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeContractInvalidStatusTransition,
		CodeContractStatusTerminal:
		return codes.FailedPrecondition

	// Aborted - a concurrent writer changed the state first
	case CodeContractStatusConflict,
		CodeStorageConflict:
		return codes.Aborted

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}

// HTTPStatus maps a domain code to the HTTP status used by JSON handlers.
func (c Code) HTTPStatus() int {
	switch c.GRPCCode() {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.FailedPrecondition:
		return http.StatusUnprocessableEntity
	case codes.Aborted, codes.AlreadyExists:
		return http.StatusConflict
	case codes.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
