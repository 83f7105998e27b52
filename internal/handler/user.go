package handler

import (
	"encoding/json"
	"net/http"

	"github.com/caseforge/caseforge/internal/engine"
	"github.com/caseforge/caseforge/internal/inventory"
	"github.com/caseforge/caseforge/internal/logger"
	"github.com/caseforge/caseforge/internal/user"
)

// RegisterUserRequest represents the request to register a user.
type RegisterUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// HandleRegisterUser handles user registration.
// @Summary Register a user
// @Description Creates a new account with the starting balance
// @Tags user
// @Accept json
// @Produce json
// @Param request body RegisterUserRequest true "Registration request"
// @Success 201 {object} domain.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/user/register [post]
func HandleRegisterUser(engineService engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req RegisterUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("Failed to decode register request", "error", err)
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
			return
		}

		if err := GetValidator().ValidateStruct(req); err != nil {
			respondJSON(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		registered, err := engineService.RegisterUser(r.Context(), req.Username, req.Email)
		if err != nil {
			log.Warn("Registration rejected", "username", req.Username, "error", err)
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}

		log.Info("User registered", "user_id", registered.ID, "username", registered.Username)
		respondJSON(w, http.StatusCreated, registered)
	}
}

// BalanceResponse is the payload for balance lookups.
type BalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

// HandleGetBalance returns the user's current balance.
// @Summary Get balance
// @Tags user
// @Produce json
// @Param user_id query string true "User ID"
// @Success 200 {object} BalanceResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/user/balance [get]
func HandleGetBalance(userService user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			respondError(w, http.StatusBadRequest, ErrMsgMissingUserID)
			return
		}

		u, err := userService.GetByID(r.Context(), userID)
		if err != nil {
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}

		respondJSON(w, http.StatusOK, BalanceResponse{UserID: u.ID, Balance: u.Balance})
	}
}

// HandleGetInventory returns the items a user owns.
// @Summary Get inventory
// @Tags user
// @Produce json
// @Param user_id query string true "User ID"
// @Success 200 {object} DataResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/user/inventory [get]
func HandleGetInventory(userService user.Service, inventoryService inventory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			respondError(w, http.StatusBadRequest, ErrMsgMissingUserID)
			return
		}

		if _, err := userService.GetByID(r.Context(), userID); err != nil {
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}

		items, err := inventoryService.ListItemsOf(r.Context(), userID)
		if err != nil {
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: items})
	}
}
