package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/caseforge/caseforge/internal/domain"
)

func TestHandleCreateListing(t *testing.T) {
	created := domain.Listing{
		ID:       "l1",
		SellerID: "u1",
		Price:    200,
		Status:   domain.ListingActive,
	}

	tests := []struct {
		name           string
		reqBody        interface{}
		setupMocks     func(*MockEngineService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Invalid JSON",
			reqBody:        "invalid json",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrMsgInvalidRequestBody,
		},
		{
			name:           "Zero Price",
			reqBody:        CreateListingRequest{SellerID: "u1", ItemID: "i1"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "This field is required",
		},
		{
			name:    "Not The Owner",
			reqBody: CreateListingRequest{SellerID: "u2", ItemID: "i1", Price: 200},
			setupMocks: func(me *MockEngineService) {
				me.On("CreateListing", mock.Anything, "u2", "i1", int64(200), "").
					Return(domain.Listing{}, domain.ErrItemNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   ErrMsgItemNotFoundError,
		},
		{
			name:    "Success",
			reqBody: CreateListingRequest{SellerID: "u1", ItemID: "i1", Price: 200},
			setupMocks: func(me *MockEngineService) {
				me.On("CreateListing", mock.Anything, "u1", "i1", int64(200), "").
					Return(created, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"id":"l1"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockEngine := new(MockEngineService)
			if tt.setupMocks != nil {
				tt.setupMocks(mockEngine)
			}

			var body []byte
			if s, ok := tt.reqBody.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tt.reqBody)
			}

			req := httptest.NewRequest("POST", "/market/list", bytes.NewBuffer(body))
			rec := httptest.NewRecorder()

			HandleCreateListing(mockEngine)(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockEngine.AssertExpectations(t)
		})
	}
}

func TestHandlePurchaseListing(t *testing.T) {
	sold := domain.Listing{ID: "l1", SellerID: "u1", Price: 200, Status: domain.ListingSold}

	tests := []struct {
		name           string
		reqBody        interface{}
		setupMocks     func(*MockEngineService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "Already Sold",
			reqBody: PurchaseListingRequest{BuyerID: "u2", ListingID: "l1"},
			setupMocks: func(me *MockEngineService) {
				me.On("PurchaseListing", mock.Anything, "u2", "l1").
					Return(domain.Listing{}, domain.ErrAlreadySold)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   ErrMsgAlreadySoldError,
		},
		{
			name:    "Insufficient Funds",
			reqBody: PurchaseListingRequest{BuyerID: "u2", ListingID: "l1"},
			setupMocks: func(me *MockEngineService) {
				me.On("PurchaseListing", mock.Anything, "u2", "l1").
					Return(domain.Listing{}, domain.ErrInsufficientFunds)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrMsgNotEnoughMoneyError,
		},
		{
			name:    "Success",
			reqBody: PurchaseListingRequest{BuyerID: "u2", ListingID: "l1"},
			setupMocks: func(me *MockEngineService) {
				me.On("PurchaseListing", mock.Anything, "u2", "l1").Return(sold, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"sold"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockEngine := new(MockEngineService)
			if tt.setupMocks != nil {
				tt.setupMocks(mockEngine)
			}

			body, _ := json.Marshal(tt.reqBody)
			req := httptest.NewRequest("POST", "/market/buy", bytes.NewBuffer(body))
			rec := httptest.NewRecorder()

			HandlePurchaseListing(mockEngine)(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockEngine.AssertExpectations(t)
		})
	}
}

func TestHandleWithdrawListing(t *testing.T) {
	tests := []struct {
		name           string
		reqBody        interface{}
		setupMocks     func(*MockEngineService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "Not The Seller",
			reqBody: WithdrawListingRequest{SellerID: "u2", ListingID: "l1"},
			setupMocks: func(me *MockEngineService) {
				me.On("WithdrawListing", mock.Anything, "u2", "l1").
					Return(domain.Listing{}, domain.ErrNotOwner)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   ErrMsgNotOwnerError,
		},
		{
			name:    "Success",
			reqBody: WithdrawListingRequest{SellerID: "u1", ListingID: "l1"},
			setupMocks: func(me *MockEngineService) {
				me.On("WithdrawListing", mock.Anything, "u1", "l1").
					Return(domain.Listing{ID: "l1", Status: domain.ListingWithdrawn}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"withdrawn"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockEngine := new(MockEngineService)
			if tt.setupMocks != nil {
				tt.setupMocks(mockEngine)
			}

			body, _ := json.Marshal(tt.reqBody)
			req := httptest.NewRequest("POST", "/market/withdraw", bytes.NewBuffer(body))
			rec := httptest.NewRecorder()

			HandleWithdrawListing(mockEngine)(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockEngine.AssertExpectations(t)
		})
	}
}

func TestHandleListActiveListings(t *testing.T) {
	// ARRANGE
	mockEngine := new(MockEngineService)
	mockEngine.On("ListActiveListings", mock.Anything).Return([]domain.Listing{
		{ID: "l1", Status: domain.ListingActive},
		{ID: "l2", Status: domain.ListingActive},
	}, nil)

	req := httptest.NewRequest("GET", "/market", nil)
	rec := httptest.NewRecorder()

	// ACT
	HandleListActiveListings(mockEngine)(rec, req)

	// ASSERT
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"l1"`)
	assert.Contains(t, rec.Body.String(), `"id":"l2"`)
	mockEngine.AssertExpectations(t)
}
