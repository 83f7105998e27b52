package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/caseforge/caseforge/internal/domain"
	"github.com/caseforge/caseforge/internal/engine"
	"github.com/caseforge/caseforge/internal/event"
	"github.com/caseforge/caseforge/internal/eventlog"
)

// MockEngineService is a mock implementation of the engine.Service interface
type MockEngineService struct {
	mock.Mock
}

func (m *MockEngineService) RegisterUser(ctx context.Context, username, email string) (domain.User, error) {
	args := m.Called(ctx, username, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockEngineService) AdjustBalance(ctx context.Context, userID string, delta int64, reason string) (int64, error) {
	args := m.Called(ctx, userID, delta, reason)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEngineService) OpenCase(ctx context.Context, userID, caseID string) (engine.OpenCaseResult, error) {
	args := m.Called(ctx, userID, caseID)
	return args.Get(0).(engine.OpenCaseResult), args.Error(1)
}

func (m *MockEngineService) CreateListing(ctx context.Context, sellerID, itemID string, price int64, description string) (domain.Listing, error) {
	args := m.Called(ctx, sellerID, itemID, price, description)
	return args.Get(0).(domain.Listing), args.Error(1)
}

func (m *MockEngineService) PurchaseListing(ctx context.Context, buyerID, listingID string) (domain.Listing, error) {
	args := m.Called(ctx, buyerID, listingID)
	return args.Get(0).(domain.Listing), args.Error(1)
}

func (m *MockEngineService) WithdrawListing(ctx context.Context, sellerID, listingID string) (domain.Listing, error) {
	args := m.Called(ctx, sellerID, listingID)
	return args.Get(0).(domain.Listing), args.Error(1)
}

func (m *MockEngineService) ListActiveListings(ctx context.Context) ([]domain.Listing, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Listing), args.Error(1)
}

func (m *MockEngineService) SendMessage(ctx context.Context, senderID, listingID, text string) (domain.ChatMessage, error) {
	args := m.Called(ctx, senderID, listingID, text)
	return args.Get(0).(domain.ChatMessage), args.Error(1)
}

func (m *MockEngineService) Messages(ctx context.Context, listingID string) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, listingID)
	return args.Get(0).([]domain.ChatMessage), args.Error(1)
}

func (m *MockEngineService) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockUserService is a mock implementation of the user.Service interface
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, username, email string) (domain.User, error) {
	args := m.Called(ctx, username, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, userID string) (domain.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserService) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserService) AdjustBalance(ctx context.Context, userID string, delta int64, reason string) (int64, error) {
	args := m.Called(ctx, userID, delta, reason)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditService is a mock implementation of the eventlog.Service interface
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Subscribe(bus event.Bus) error {
	args := m.Called(bus)
	return args.Error(0)
}

func (m *MockAuditService) Recent(ctx context.Context, limit int) ([]eventlog.Entry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]eventlog.Entry), args.Error(1)
}

func (m *MockAuditService) ByUser(ctx context.Context, userID string, limit int) ([]eventlog.Entry, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]eventlog.Entry), args.Error(1)
}

func (m *MockAuditService) CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error) {
	args := m.Called(ctx, retentionDays)
	return args.Get(0).(int64), args.Error(1)
}
