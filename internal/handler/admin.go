package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/caseforge/caseforge/internal/catalog"
	"github.com/caseforge/caseforge/internal/engine"
	"github.com/caseforge/caseforge/internal/eventlog"
	"github.com/caseforge/caseforge/internal/logger"
	"github.com/caseforge/caseforge/internal/user"
)

// AdjustBalanceRequest represents an administrative balance adjustment.
// Delta may be negative; a debit past zero is rejected downstream.
type AdjustBalanceRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Delta  int64  `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required,max=200"`
}

// AdjustBalanceResponse carries the post-adjustment balance.
type AdjustBalanceResponse struct {
	UserID     string `json:"user_id"`
	NewBalance int64  `json:"new_balance"`
}

// HandleAdjustBalance credits or debits a user's balance with an audit reason.
// @Summary Adjust user balance
// @Tags admin
// @Accept json
// @Produce json
// @Param request body AdjustBalanceRequest true "Adjustment request"
// @Success 200 {object} AdjustBalanceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/admin/balance [post]
func HandleAdjustBalance(engineService engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req AdjustBalanceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("Failed to decode adjust balance request", "error", err)
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
			return
		}

		if err := GetValidator().ValidateStruct(req); err != nil {
			respondJSON(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		newBalance, err := engineService.AdjustBalance(r.Context(), req.UserID, req.Delta, req.Reason)
		if err != nil {
			log.Warn("Balance adjustment failed", "user_id", req.UserID, "delta", req.Delta, "error", err)
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}

		log.Info("Balance adjusted", "user_id", req.UserID, "delta", req.Delta, "reason", req.Reason)
		respondJSON(w, http.StatusOK, AdjustBalanceResponse{UserID: req.UserID, NewBalance: newBalance})
	}
}

// SetCaseActiveRequest toggles whether a case can be opened.
type SetCaseActiveRequest struct {
	CaseID string `json:"case_id" validate:"required"`
	Active *bool  `json:"active" validate:"required"`
}

// HandleSetCaseActive enables or disables a case in the catalog.
// @Summary Set case active flag
// @Tags admin
// @Accept json
// @Produce json
// @Param request body SetCaseActiveRequest true "Activation request"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/admin/case/active [post]
func HandleSetCaseActive(catalogService catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req SetCaseActiveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("Failed to decode set case active request", "error", err)
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
			return
		}

		if err := GetValidator().ValidateStruct(req); err != nil {
			respondJSON(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		if err := catalogService.SetCaseActive(req.CaseID, *req.Active); err != nil {
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}

		log.Info("Case active flag updated", "case_id", req.CaseID, "active", *req.Active)
		respondJSON(w, http.StatusOK, SuccessResponse{Message: "Case updated"})
	}
}

// HandleListUsers returns all registered users with current balances.
// @Summary List users
// @Tags admin
// @Produce json
// @Success 200 {object} DataResponse
// @Router /api/v1/admin/users [get]
func HandleListUsers(userService user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := userService.ListUsers(r.Context())
		if err != nil {
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: users})
	}
}

const defaultAuditLimit = 100

// HandleGetAudit returns recent audit entries, optionally scoped to one user.
// @Summary Get audit log
// @Tags admin
// @Produce json
// @Param user_id query string false "Filter by user ID"
// @Param limit query int false "Max entries (default 100)"
// @Success 200 {object} DataResponse
// @Router /api/v1/admin/audit [get]
func HandleGetAudit(auditService eventlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultAuditLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestError)
				return
			}
			limit = parsed
		}

		var (
			entries []eventlog.Entry
			err     error
		)
		if userID := r.URL.Query().Get("user_id"); userID != "" {
			entries, err = auditService.ByUser(r.Context(), userID, limit)
		} else {
			entries, err = auditService.Recent(r.Context(), limit)
		}
		if err != nil {
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: entries})
	}
}
