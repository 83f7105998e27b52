package eventlog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository. It backs unit tests and
// deployments that run without Postgres.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	entries []Entry
	now     func() time.Time
}

// NewMemoryRepository creates an empty in-memory audit store. now may
// be nil, in which case time.Now is used.
func NewMemoryRepository(now func() time.Time) *MemoryRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryRepository{nextID: 1, now: now}
}

func (r *MemoryRepository) LogEvent(ctx context.Context, eventType string, userID *string, payload map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, Entry{
		ID:        r.nextID,
		EventType: eventType,
		UserID:    userID,
		Payload:   payload,
		CreatedAt: r.now().UTC(),
	})
	r.nextID++
	return nil
}

func (r *MemoryRepository) GetEvents(ctx context.Context, filter Filter) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Entry, 0)
	for _, e := range r.entries {
		if filter.UserID != nil && (e.UserID == nil || *e.UserID != *filter.UserID) {
			continue
		}
		if filter.EventType != nil && e.EventType != *filter.EventType {
			continue
		}
		if filter.Since != nil && e.CreatedAt.Before(*filter.Since) {
			continue
		}
		if filter.Until != nil && e.CreatedAt.After(*filter.Until) {
			continue
		}
		result = append(result, e)
	}

	// Newest first, matching the SQL ORDER BY.
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *MemoryRepository) GetEventsByUser(ctx context.Context, userID string, limit int) ([]Entry, error) {
	return r.GetEvents(ctx, Filter{UserID: &userID, Limit: limit})
}

func (r *MemoryRepository) GetEventsByType(ctx context.Context, eventType string, limit int) ([]Entry, error) {
	return r.GetEvents(ctx, Filter{EventType: &eventType, Limit: limit})
}

func (r *MemoryRepository) CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := r.now().UTC().AddDate(0, 0, -retentionDays)

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	var removed int64
	for _, e := range r.entries {
		if e.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return removed, nil
}
