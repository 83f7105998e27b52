package eventlog

import (
	"context"

	"github.com/caseforge/caseforge/internal/event"
	"github.com/caseforge/caseforge/internal/logger"
)

// Service is the audit trail. It subscribes to every event the engine
// publishes and persists them through the Repository. Writes are
// best-effort from the publisher's point of view: a failed audit write
// is logged and returned to the bus, never into the originating
// operation.
type Service interface {
	// Subscribe registers the audit logger for all engine event types
	Subscribe(bus event.Bus) error

	// Recent returns the newest entries for the admin surface
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// ByUser returns the newest entries touching the given user
	ByUser(ctx context.Context, userID string, limit int) ([]Entry, error)

	// CleanupOldEvents removes events older than retention period
	CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error)
}

type service struct {
	repo Repository
}

// NewService creates a new audit log service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Subscribe registers event handlers for all event types
func (s *service) Subscribe(bus event.Bus) error {
	eventTypes := []event.Type{
		event.CaseOpened,
		event.ListingCreated,
		event.ListingSold,
		event.ListingWithdrawn,
		event.MessageSent,
		event.BalanceAdjusted,
		event.UserRegistered,
	}

	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, s.handleEvent)
	}

	return nil
}

// handleEvent flattens the typed payload to a map and persists it
func (s *service) handleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	payload, err := event.DecodePayload[map[string]interface{}](evt.Payload)
	if err != nil {
		log.Error("Failed to decode event payload", "error", err, "type", evt.Type)
		return err
	}

	var userID *string
	if uid, ok := payload["user_id"].(string); ok {
		userID = &uid
	}

	if err := s.repo.LogEvent(ctx, string(evt.Type), userID, payload); err != nil {
		log.Error("Failed to write audit entry", "error", err, "type", evt.Type)
		return err
	}

	log.Debug("Audit entry written", "type", evt.Type, "user_id", userID)
	return nil
}

func (s *service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return s.repo.GetEvents(ctx, Filter{Limit: limit})
}

func (s *service) ByUser(ctx context.Context, userID string, limit int) ([]Entry, error) {
	return s.repo.GetEventsByUser(ctx, userID, limit)
}

// CleanupOldEvents removes events older than the retention period
func (s *service) CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error) {
	return s.repo.CleanupOldEvents(ctx, retentionDays)
}
