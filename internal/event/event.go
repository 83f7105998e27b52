package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/caseforge/caseforge/internal/domain"
)

// Type represents the type of an event
type Type string

// Event represents a generic event in the system
type Event struct {
	Version string      `json:"version"` // Event schema version (e.g., "1.0")
	Type    Type        `json:"type"`
	Payload interface{} `json:"payload"`
}

// Event types published by the engine
const (
	CaseOpened       Type = Type(domain.EventTypeCaseOpened)
	ListingCreated   Type = Type(domain.EventTypeListingCreated)
	ListingSold      Type = Type(domain.EventTypeListingSold)
	ListingWithdrawn Type = Type(domain.EventTypeListingWithdrawn)
	MessageSent      Type = Type(domain.EventTypeMessageSent)
	BalanceAdjusted  Type = Type(domain.EventTypeBalanceAdjusted)
	UserRegistered   Type = Type(domain.EventTypeUserRegistered)
)

// Type-safe event constructors

// NewCaseOpenedEvent creates a case opened event
func NewCaseOpenedEvent(userID, caseID string, price int64, item domain.InventoryItem, newBalance int64) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    CaseOpened,
		Payload: domain.CaseOpenedPayload{
			UserID:     userID,
			CaseID:     caseID,
			Price:      price,
			ItemID:     item.ID,
			ItemName:   item.Template.Name,
			Rarity:     item.Template.Rarity,
			NewBalance: newBalance,
			Timestamp:  time.Now().Unix(),
		},
	}
}

// NewListingCreatedEvent creates a listing created event
func NewListingCreatedEvent(listing domain.Listing) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ListingCreated,
		Payload: domain.ListingCreatedPayload{
			UserID:    listing.SellerID,
			ListingID: listing.ID,
			ItemID:    listing.Item.ID,
			Price:     listing.Price,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewListingSoldEvent creates a listing sold event
func NewListingSoldEvent(listing domain.Listing, buyerID string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ListingSold,
		Payload: domain.ListingSoldPayload{
			UserID:    buyerID,
			SellerID:  listing.SellerID,
			ListingID: listing.ID,
			ItemID:    listing.Item.ID,
			Price:     listing.Price,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewListingWithdrawnEvent creates a listing withdrawn event
func NewListingWithdrawnEvent(listing domain.Listing) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ListingWithdrawn,
		Payload: domain.ListingWithdrawnPayload{
			UserID:    listing.SellerID,
			ListingID: listing.ID,
			ItemID:    listing.Item.ID,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewMessageSentEvent creates a message sent event
func NewMessageSentEvent(msg domain.ChatMessage) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    MessageSent,
		Payload: domain.MessageSentPayload{
			UserID:    msg.SenderID,
			ListingID: msg.ListingID,
			Seq:       msg.Seq,
			Timestamp: msg.SentAt.Unix(),
		},
	}
}

// NewBalanceAdjustedEvent creates a balance adjusted event for admin top-ups
func NewBalanceAdjustedEvent(userID string, delta int64, reason string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    BalanceAdjusted,
		Payload: domain.BalanceAdjustedPayload{
			UserID:    userID,
			Delta:     delta,
			Reason:    reason,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewUserRegisteredEvent creates a user registered event
func NewUserRegisteredEvent(user domain.User) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    UserRegistered,
		Payload: domain.UserRegisteredPayload{
			UserID:          user.ID,
			Username:        user.Username,
			StartingBalance: user.Balance,
			Timestamp:       time.Now().Unix(),
		},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	// Handlers run synchronously; callers that cannot tolerate consumer
	// failures wrap the bus in a ResilientPublisher.
	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
