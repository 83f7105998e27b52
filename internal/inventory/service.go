package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caseforge/caseforge/internal/domain"
)

// Service stores the items each user owns. Items move in and out of
// inventories atomically; a removed item is handed back to the caller
// so it can be re-added if the surrounding operation fails.
type Service interface {
	AddItem(ctx context.Context, ownerID string, template domain.ItemTemplate) (domain.InventoryItem, error)
	RestoreItem(ctx context.Context, item domain.InventoryItem) error
	RemoveItem(ctx context.Context, ownerID, itemID string) (domain.InventoryItem, error)
	GetItem(ctx context.Context, ownerID, itemID string) (domain.InventoryItem, error)
	ListItemsOf(ctx context.Context, ownerID string) ([]domain.InventoryItem, error)
}

type service struct {
	mu sync.RWMutex
	// ownerID -> itemID -> item
	items map[string]map[string]domain.InventoryItem
	now   func() time.Time
}

// NewService creates an empty inventory store. now may be nil, in which
// case time.Now is used.
func NewService(now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{
		items: make(map[string]map[string]domain.InventoryItem),
		now:   now,
	}
}

func (s *service) AddItem(ctx context.Context, ownerID string, template domain.ItemTemplate) (domain.InventoryItem, error) {
	if !template.Rarity.Valid() {
		return domain.InventoryItem{}, fmt.Errorf("%w: rarity %q", domain.ErrInvalidInput, template.Rarity)
	}

	item := domain.InventoryItem{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Template:   template,
		AcquiredAt: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(item)
	return item, nil
}

// RestoreItem puts a previously removed item back, keeping its identity
// and acquisition time. Used to compensate a failed purchase or a
// withdrawn listing.
func (s *service) RestoreItem(ctx context.Context, item domain.InventoryItem) error {
	if item.ID == "" || item.OwnerID == "" {
		return fmt.Errorf("%w: item missing id or owner", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if owned, exists := s.items[item.OwnerID]; exists {
		if _, dup := owned[item.ID]; dup {
			return fmt.Errorf("%w: item %s already present", domain.ErrInvalidOperation, item.ID)
		}
	}
	s.insertLocked(item)
	return nil
}

func (s *service) RemoveItem(ctx context.Context, ownerID, itemID string) (domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned, exists := s.items[ownerID]
	if !exists {
		return domain.InventoryItem{}, fmt.Errorf("%w: %s", domain.ErrItemNotFound, itemID)
	}
	item, exists := owned[itemID]
	if !exists {
		return domain.InventoryItem{}, fmt.Errorf("%w: %s", domain.ErrItemNotFound, itemID)
	}
	delete(owned, itemID)
	return item, nil
}

func (s *service) GetItem(ctx context.Context, ownerID, itemID string) (domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, ok := s.items[ownerID][itemID]; ok {
		return item, nil
	}
	return domain.InventoryItem{}, fmt.Errorf("%w: %s", domain.ErrItemNotFound, itemID)
}

func (s *service) ListItemsOf(ctx context.Context, ownerID string) ([]domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := s.items[ownerID]
	result := make([]domain.InventoryItem, 0, len(owned))
	for _, item := range owned {
		result = append(result, item)
	}
	// Newest first, id as tiebreaker for a stable order.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].AcquiredAt.Equal(result[j].AcquiredAt) {
			return result[i].AcquiredAt.After(result[j].AcquiredAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// insertLocked assumes s.mu is held for writing. An item moved between
// owners keeps its id, so ownership is wherever the item currently sits.
func (s *service) insertLocked(item domain.InventoryItem) {
	owned, exists := s.items[item.OwnerID]
	if !exists {
		owned = make(map[string]domain.InventoryItem)
		s.items[item.OwnerID] = owned
	}
	owned[item.ID] = item
}
