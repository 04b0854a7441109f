// ABOUTME: JSON error responses for the site and definitions API handlers.
// ABOUTME: Maps registration, descriptor and lookup failures onto HTTP statuses.

package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/2389/cpt/internal/caps"
	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/registry"
	"github.com/2389/cpt/internal/schema"
	"github.com/2389/cpt/internal/store"
)

// ErrorResponse is the body of every API error.
//
//	{"code":"not_found","message":"content type \"book\" not registered","status":404}
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Field   string `json:"field,omitempty"`   // offending query var or descriptor id
	Details string `json:"details,omitempty"` // wrapped cause, when it says more than Message
}

// WriteError writes a JSON error with status and code.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeErrorResponse(w, ErrorResponse{Code: code, Message: message, Status: status})
}

// WriteErrorWithField writes a JSON error naming the field that caused it.
func WriteErrorWithField(w http.ResponseWriter, status int, code, message, field string) {
	writeErrorResponse(w, ErrorResponse{Code: code, Message: message, Status: status, Field: field})
}

// WriteErrorWithDetails writes a JSON error with extra context.
func WriteErrorWithDetails(w http.ResponseWriter, status int, code, message, details string) {
	writeErrorResponse(w, ErrorResponse{Code: code, Message: message, Status: status, Details: details})
}

// Write picks the status and code for err and writes it. Errors it does not
// recognize become a 500 with the message hidden in details.
func Write(w http.ResponseWriter, err error) {
	writeErrorResponse(w, FromError(err))
}

// FromError classifies err.
func FromError(err error) ErrorResponse {
	var (
		conflict   *config.ConflictError
		descriptor *schema.DescriptorError
	)
	switch {
	case stderrors.As(err, &conflict):
		return ErrorResponse{Code: ErrConflict, Message: err.Error(), Status: http.StatusConflict, Field: conflict.QueryVar}
	case stderrors.As(err, &descriptor):
		return ErrorResponse{Code: ErrInvalidDescriptor, Message: err.Error(), Status: http.StatusUnprocessableEntity, Field: descriptor.ID}
	case stderrors.Is(err, registry.ErrInvalidKey):
		return ErrorResponse{Code: ErrValidationFailed, Message: err.Error(), Status: http.StatusBadRequest, Field: "key"}
	case stderrors.Is(err, registry.ErrFrozen):
		return ErrorResponse{Code: ErrConflict, Message: err.Error(), Status: http.StatusConflict}
	case stderrors.Is(err, caps.ErrMissingCapability):
		return ErrorResponse{Code: ErrForbidden, Message: err.Error(), Status: http.StatusForbidden}
	case stderrors.Is(err, store.ErrNotFound):
		return ErrorResponse{Code: ErrNotFound, Message: err.Error(), Status: http.StatusNotFound}
	}
	return ErrorResponse{Code: ErrInternal, Message: "internal error", Status: http.StatusInternalServerError, Details: err.Error()}
}

func writeErrorResponse(w http.ResponseWriter, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	json.NewEncoder(w).Encode(resp)
}

// Error codes.
const (
	ErrInvalidRequest    = "invalid_request"
	ErrValidationFailed  = "validation_failed"
	ErrInvalidDescriptor = "invalid_descriptor"
	ErrNotFound          = "not_found"
	ErrUnauthorized      = "unauthorized"
	ErrForbidden         = "forbidden"
	ErrConflict          = "conflict"

	ErrInternal      = "internal_error"
	ErrDatabaseError = "database_error"
)
