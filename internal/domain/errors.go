package domain

import (
	"encoding/json"
	"net/http"
)

// ErrorCode represents a specific error condition.
type ErrorCode string

const (
	ErrUnauthorized     ErrorCode = "Unauthorized"        // HTTP 401, missing/malformed bearer or client ID
	ErrValidation       ErrorCode = "ValidationFailed"    // HTTP 422, invalid date-parameter combination
	ErrNotFound         ErrorCode = "NotFound"            // HTTP 404, e.g. unknown biomarker category name
	ErrBadRequest       ErrorCode = "BadRequest"          // HTTP 400, malformed request payload
	ErrMethodNotAllowed ErrorCode = "MethodNotAllowed"    // HTTP 405
	ErrInternal         ErrorCode = "InternalServerError" // HTTP 500, unhandled/upstream propagated errors
)

// ErrorResponse is the standard error format returned to clients as JSON.
// The `detail` field carries the human-readable message; stack traces never
// leak to the caller.
type ErrorResponse struct {
	Code   ErrorCode `json:"code"`
	Detail string    `json:"detail"`
}

// NewErrorResponse creates a new ErrorResponse struct.
func NewErrorResponse(code ErrorCode, detail string) ErrorResponse {
	return ErrorResponse{
		Code:   code,
		Detail: detail,
	}
}

// WriteJSON sends an ErrorResponse as JSON with the given HTTP status code.
func (er ErrorResponse) WriteJSON(w http.ResponseWriter, httpStatusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	json.NewEncoder(w).Encode(er) // Best effort, error from Encode is not typically handled here.
}
