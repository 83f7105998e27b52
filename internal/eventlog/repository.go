package eventlog

import (
	"context"
	"time"
)

// Entry represents a logged audit event
type Entry struct {
	ID        int64                  `json:"id"`
	EventType string                 `json:"event_type"`
	UserID    *string                `json:"user_id,omitempty"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"created_at"`
}

// Filter narrows audit queries
type Filter struct {
	UserID    *string
	EventType *string
	Since     *time.Time
	Until     *time.Time
	Limit     int
}

// Repository defines the interface for audit log storage
type Repository interface {
	// LogEvent stores an event
	LogEvent(ctx context.Context, eventType string, userID *string, payload map[string]interface{}) error

	// GetEvents retrieves events based on filter criteria, newest first
	GetEvents(ctx context.Context, filter Filter) ([]Entry, error)

	// GetEventsByUser retrieves events for a specific user
	GetEventsByUser(ctx context.Context, userID string, limit int) ([]Entry, error)

	// GetEventsByType retrieves events of a specific type
	GetEventsByType(ctx context.Context, eventType string, limit int) ([]Entry, error)

	// CleanupOldEvents removes events older than the specified number of days
	CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error)
}
