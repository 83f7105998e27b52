package handler

import (
	"encoding/json"
	"net/http"

	"github.com/caseforge/caseforge/internal/engine"
	"github.com/caseforge/caseforge/internal/logger"
)

// CreateListingRequest represents a request to put an item up for sale.
type CreateListingRequest struct {
	SellerID    string `json:"seller_id" validate:"required"`
	ItemID      string `json:"item_id" validate:"required"`
	Price       int64  `json:"price" validate:"required,gt=0"`
	Description string `json:"description" validate:"max=500"`
}

// HandleCreateListing lists an item on the marketplace.
// @Summary Create listing
// @Tags market
// @Accept json
// @Produce json
// @Param request body CreateListingRequest true "Listing request"
// @Success 201 {object} domain.Listing
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/market/list [post]
func HandleCreateListing(engineService engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req CreateListingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("Failed to decode create listing request", "error", err)
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
			return
		}

		if err := GetValidator().ValidateStruct(req); err != nil {
			respondJSON(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		listing, err := engineService.CreateListing(r.Context(), req.SellerID, req.ItemID, req.Price, req.Description)
		if err != nil {
			log.Warn("Listing rejected", "seller_id", req.SellerID, "item_id", req.ItemID, "error", err)
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}

		respondJSON(w, http.StatusCreated, listing)
	}
}

// PurchaseListingRequest represents a purchase attempt.
type PurchaseListingRequest struct {
	BuyerID   string `json:"buyer_id" validate:"required"`
	ListingID string `json:"listing_id" validate:"required"`
}

// HandlePurchaseListing buys an active listing.
// @Summary Purchase listing
// @Description At most one concurrent buyer succeeds; losers receive a conflict
// @Tags market
// @Accept json
// @Produce json
// @Param request body PurchaseListingRequest true "Purchase request"
// @Success 200 {object} domain.Listing
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/market/buy [post]
func HandlePurchaseListing(engineService engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req PurchaseListingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("Failed to decode purchase request", "error", err)
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
			return
		}

		if err := GetValidator().ValidateStruct(req); err != nil {
			respondJSON(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		listing, err := engineService.PurchaseListing(r.Context(), req.BuyerID, req.ListingID)
		if err != nil {
			log.Warn("Purchase failed", "buyer_id", req.BuyerID, "listing_id", req.ListingID, "error", err)
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}

		respondJSON(w, http.StatusOK, listing)
	}
}

// WithdrawListingRequest represents a withdrawal of an active listing.
type WithdrawListingRequest struct {
	SellerID  string `json:"seller_id" validate:"required"`
	ListingID string `json:"listing_id" validate:"required"`
}

// HandleWithdrawListing takes a listing off the market.
// @Summary Withdraw listing
// @Tags market
// @Accept json
// @Produce json
// @Param request body WithdrawListingRequest true "Withdraw request"
// @Success 200 {object} domain.Listing
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/market/withdraw [post]
func HandleWithdrawListing(engineService engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req WithdrawListingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("Failed to decode withdraw request", "error", err)
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
			return
		}

		if err := GetValidator().ValidateStruct(req); err != nil {
			respondJSON(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		listing, err := engineService.WithdrawListing(r.Context(), req.SellerID, req.ListingID)
		if err != nil {
			log.Warn("Withdrawal failed", "seller_id", req.SellerID, "listing_id", req.ListingID, "error", err)
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}

		respondJSON(w, http.StatusOK, listing)
	}
}

// HandleListActiveListings returns the marketplace front page.
// @Summary List active listings
// @Tags market
// @Produce json
// @Success 200 {object} DataResponse
// @Router /api/v1/market [get]
func HandleListActiveListings(engineService engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listings, err := engineService.ListActiveListings(r.Context())
		if err != nil {
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Data: listings})
	}
}
