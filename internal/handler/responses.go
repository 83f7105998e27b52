package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/caseforge/caseforge/internal/domain"
)

// Standard response types for consistent API responses

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// DataResponse represents a response with data payload
type DataResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		// Headers are already sent; nothing to do but log.
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// User-facing error messages for service errors
const (
	ErrMsgGenericServerError  = "Something went wrong"
	ErrMsgUnknownError        = "Unknown error"
	ErrMsgInvalidRequestError = "Invalid request. Please check your inputs."
	ErrMsgInvalidRequestBody  = "Invalid request body"
	ErrMsgMissingUserID       = "Missing user ID"
	ErrMsgMissingListingID    = "Missing listing ID"

	ErrMsgUserNotFoundError   = "User not found"
	ErrMsgUserExistsError     = "That username is taken"
	ErrMsgItemNotFoundError   = "Item not found"
	ErrMsgNotOwnerError       = "You don't own that"
	ErrMsgNotEnoughMoneyError = "Not enough money"

	ErrMsgCaseNotFoundError = "Case not found"

	ErrMsgListingNotFoundError = "Listing not found"
	ErrMsgAlreadySoldError     = "Listing is no longer available"
	ErrMsgInvalidOperationErr  = "That operation is not allowed"
)

// mapServiceErrorToUserMessage maps domain errors to user-friendly HTTP responses.
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, ErrMsgUserNotFoundError
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, ErrMsgUserExistsError
	case errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound, ErrMsgItemNotFoundError
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden, ErrMsgNotOwnerError
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusBadRequest, ErrMsgNotEnoughMoneyError
	case errors.Is(err, domain.ErrCaseNotFound):
		return http.StatusNotFound, ErrMsgCaseNotFoundError
	case errors.Is(err, domain.ErrListingNotFound):
		return http.StatusNotFound, ErrMsgListingNotFoundError
	case errors.Is(err, domain.ErrAlreadySold):
		return http.StatusConflict, ErrMsgAlreadySoldError
	case errors.Is(err, domain.ErrInvalidOperation):
		return http.StatusBadRequest, ErrMsgInvalidOperationErr
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrMsgInvalidRequestError
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusInternalServerError, ErrMsgGenericServerError
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != nil && unwrapped != err {
		return mapServiceErrorToUserMessage(unwrapped)
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}
