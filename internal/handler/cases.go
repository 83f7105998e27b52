package handler

import (
	"encoding/json"
	"net/http"

	"github.com/caseforge/caseforge/internal/catalog"
	"github.com/caseforge/caseforge/internal/domain"
	"github.com/caseforge/caseforge/internal/engine"
	"github.com/caseforge/caseforge/internal/logger"
)

// OpenCaseRequest represents a case opening request.
type OpenCaseRequest struct {
	UserID string `json:"user_id" validate:"required"`
	CaseID string `json:"case_id" validate:"required"`
}

// HandleOpenCase opens a case for a user.
// @Summary Open a case
// @Description Debits the case price and awards a randomly resolved item
// @Tags cases
// @Accept json
// @Produce json
// @Param request body OpenCaseRequest true "Open case request"
// @Success 200 {object} engine.OpenCaseResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/case/open [post]
func HandleOpenCase(engineService engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req OpenCaseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("Failed to decode open case request", "error", err)
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
			return
		}

		if err := GetValidator().ValidateStruct(req); err != nil {
			respondJSON(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		result, err := engineService.OpenCase(r.Context(), req.UserID, req.CaseID)
		if err != nil {
			log.Warn("Case opening failed", "user_id", req.UserID, "case_id", req.CaseID, "error", err)
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}

// CaseListResponse is the catalog listing payload.
type CaseListResponse struct {
	Cases []domain.CaseDefinition `json:"cases"`
}

// HandleListCases returns the case catalog.
// @Summary List cases
// @Description Returns all cases, including inactive ones; clients filter on the active flag
// @Tags cases
// @Produce json
// @Success 200 {object} CaseListResponse
// @Router /api/v1/cases [get]
func HandleListCases(catalogService catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, CaseListResponse{Cases: catalogService.Cases()})
	}
}
