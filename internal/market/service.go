package market

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caseforge/caseforge/internal/domain"
)

// Service stores marketplace listings and guards the listing state
// machine: Active moves to exactly one of Sold or Withdrawn, and the
// winner of a concurrent purchase race is decided here by a
// compare-and-swap on the status.
type Service interface {
	Create(ctx context.Context, item domain.InventoryItem, sellerID string, price int64, description string) (domain.Listing, error)
	Get(ctx context.Context, listingID string) (domain.Listing, error)
	ListActive(ctx context.Context) ([]domain.Listing, error)
	ListBySeller(ctx context.Context, sellerID string) ([]domain.Listing, error)

	// BeginPurchase flips an active listing to sold on behalf of buyerID.
	// At most one caller wins; everyone else gets ErrAlreadySold.
	BeginPurchase(ctx context.Context, listingID, buyerID string) (domain.Listing, error)
	// AbortPurchase reverts a listing claimed by BeginPurchase back to
	// active, used when the buyer's payment fails after the claim.
	AbortPurchase(ctx context.Context, listingID string) error

	Withdraw(ctx context.Context, listingID, sellerID string) (domain.Listing, error)
}

type service struct {
	mu       sync.RWMutex
	listings map[string]domain.Listing
	now      func() time.Time
}

// NewService creates an empty listing store. now may be nil, in which
// case time.Now is used.
func NewService(now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{
		listings: make(map[string]domain.Listing),
		now:      now,
	}
}

func (s *service) Create(ctx context.Context, item domain.InventoryItem, sellerID string, price int64, description string) (domain.Listing, error) {
	if price <= 0 || price > domain.MaxListingPrice {
		return domain.Listing{}, fmt.Errorf("%w: price %d out of range", domain.ErrInvalidInput, price)
	}
	if len(description) > domain.MaxDescriptionLength {
		return domain.Listing{}, fmt.Errorf("%w: description too long", domain.ErrInvalidInput)
	}
	if item.OwnerID != sellerID {
		return domain.Listing{}, fmt.Errorf("%w: item %s", domain.ErrNotOwner, item.ID)
	}

	listing := domain.Listing{
		ID:          uuid.NewString(),
		Item:        item,
		SellerID:    sellerID,
		Price:       price,
		Description: description,
		Status:      domain.ListingActive,
		CreatedAt:   s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[listing.ID] = listing
	return listing, nil
}

func (s *service) Get(ctx context.Context, listingID string) (domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[listingID]
	if !ok {
		return domain.Listing{}, fmt.Errorf("%w: %s", domain.ErrListingNotFound, listingID)
	}
	return listing, nil
}

func (s *service) ListActive(ctx context.Context) ([]domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Listing, 0)
	for _, listing := range s.listings {
		if listing.Status == domain.ListingActive {
			result = append(result, listing)
		}
	}
	sortListings(result)
	return result, nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID string) ([]domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Listing, 0)
	for _, listing := range s.listings {
		if listing.SellerID == sellerID {
			result = append(result, listing)
		}
	}
	sortListings(result)
	return result, nil
}

func (s *service) BeginPurchase(ctx context.Context, listingID, buyerID string) (domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[listingID]
	if !ok {
		return domain.Listing{}, fmt.Errorf("%w: %s", domain.ErrListingNotFound, listingID)
	}
	if listing.SellerID == buyerID {
		return domain.Listing{}, fmt.Errorf("%w: cannot buy own listing", domain.ErrInvalidOperation)
	}
	if listing.Status != domain.ListingActive {
		return domain.Listing{}, fmt.Errorf("%w: listing %s is %s", domain.ErrAlreadySold, listingID, listing.Status)
	}

	listing.Status = domain.ListingSold
	s.listings[listingID] = listing
	return listing, nil
}

func (s *service) AbortPurchase(ctx context.Context, listingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[listingID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrListingNotFound, listingID)
	}
	if listing.Status != domain.ListingSold {
		return fmt.Errorf("%w: listing %s is %s, expected sold", domain.ErrInvalidOperation, listingID, listing.Status)
	}

	listing.Status = domain.ListingActive
	s.listings[listingID] = listing
	return nil
}

func (s *service) Withdraw(ctx context.Context, listingID, sellerID string) (domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[listingID]
	if !ok {
		return domain.Listing{}, fmt.Errorf("%w: %s", domain.ErrListingNotFound, listingID)
	}
	if listing.SellerID != sellerID {
		return domain.Listing{}, fmt.Errorf("%w: listing %s", domain.ErrNotOwner, listingID)
	}
	if listing.Status != domain.ListingActive {
		return domain.Listing{}, fmt.Errorf("%w: listing %s is %s", domain.ErrAlreadySold, listingID, listing.Status)
	}

	listing.Status = domain.ListingWithdrawn
	s.listings[listingID] = listing
	return listing, nil
}

// sortListings orders newest first with id as tiebreaker.
func sortListings(listings []domain.Listing) {
	sort.Slice(listings, func(i, j int) bool {
		if !listings[i].CreatedAt.Equal(listings[j].CreatedAt) {
			return listings[i].CreatedAt.After(listings[j].CreatedAt)
		}
		return listings[i].ID < listings[j].ID
	})
}
