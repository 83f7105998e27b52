package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caseforge/caseforge/internal/engine"
	"github.com/caseforge/caseforge/internal/logger"
)

// SendMessageRequest represents a chat message posted to a listing thread.
type SendMessageRequest struct {
	SenderID  string `json:"sender_id" validate:"required"`
	ListingID string `json:"listing_id" validate:"required"`
	Text      string `json:"text" validate:"required,max=1000"`
}

// HandleSendMessage posts a message to a listing's chat thread.
// @Summary Send chat message
// @Tags chat
// @Accept json
// @Produce json
// @Param request body SendMessageRequest true "Message request"
// @Success 201 {object} domain.ChatMessage
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/chat/send [post]
func HandleSendMessage(engineService engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("Failed to decode send message request", "error", err)
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
			return
		}

		if err := GetValidator().ValidateStruct(req); err != nil {
			respondJSON(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		msg, err := engineService.SendMessage(r.Context(), req.SenderID, req.ListingID, req.Text)
		if err != nil {
			log.Warn("Message rejected", "sender_id", req.SenderID, "listing_id", req.ListingID, "error", err)
			status, errMsg := mapServiceErrorToUserMessage(err)
			respondError(w, status, errMsg)
			return
		}

		respondJSON(w, http.StatusCreated, msg)
	}
}

// HandleGetMessages returns a listing's chat thread in sequence order.
// @Summary Get chat thread
// @Tags chat
// @Produce json
// @Param listing_id path string true "Listing ID"
// @Success 200 {object} DataResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/chat/{listing_id} [get]
func HandleGetMessages(engineService engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID := chi.URLParam(r, "listing_id")
		if listingID == "" {
			respondError(w, http.StatusBadRequest, ErrMsgMissingListingID)
			return
		}

		msgs, err := engineService.Messages(r.Context(), listingID)
		if err != nil {
			status, errMsg := mapServiceErrorToUserMessage(err)
			respondError(w, status, errMsg)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: msgs})
	}
}
