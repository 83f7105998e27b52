package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseforge/caseforge/internal/domain"
)

func TestMemoryBus_PublishDeliversToSubscriber(t *testing.T) {
	bus := NewMemoryBus()
	var received []Event

	bus.Subscribe(CaseOpened, func(ctx context.Context, e Event) error {
		received = append(received, e)
		return nil
	})

	item := domain.InventoryItem{
		ID:       "item-1",
		OwnerID:  "alice",
		Template: domain.ItemTemplate{Name: "Flame Sword", Rarity: domain.RarityLegendary},
	}
	err := bus.Publish(context.Background(), NewCaseOpenedEvent("alice", "starter", 50, item, 950))
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.Equal(t, CaseOpened, received[0].Type)
	payload, err := DecodePayload[domain.CaseOpenedPayload](received[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, "alice", payload.UserID)
	assert.Equal(t, "item-1", payload.ItemID)
	assert.Equal(t, domain.RarityLegendary, payload.Rarity)
	assert.Equal(t, int64(950), payload.NewBalance)
}

func TestMemoryBus_NoSubscribersIsNoop(t *testing.T) {
	bus := NewMemoryBus()
	err := bus.Publish(context.Background(), Event{Type: MessageSent})
	assert.NoError(t, err)
}

func TestMemoryBus_HandlerErrorsAggregated(t *testing.T) {
	bus := NewMemoryBus()
	bus.Subscribe(ListingSold, func(ctx context.Context, e Event) error {
		return errors.New("consumer down")
	})
	bus.Subscribe(ListingSold, func(ctx context.Context, e Event) error {
		return nil
	})

	err := bus.Publish(context.Background(), Event{Type: ListingSold})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 errors")
}

func TestDecodePayload_JSONFallback(t *testing.T) {
	// Serialized form arrives as a generic map.
	raw := map[string]interface{}{
		"user_id":    "bob",
		"listing_id": "listing-9",
		"seq":        float64(3),
	}
	payload, err := DecodePayload[domain.MessageSentPayload](raw)
	require.NoError(t, err)
	assert.Equal(t, "bob", payload.UserID)
	assert.Equal(t, int64(3), payload.Seq)
}

func TestCalculateRetryDelay(t *testing.T) {
	base := 2 * time.Second
	assert.Equal(t, 2*time.Second, CalculateRetryDelay(base, 1))
	assert.Equal(t, 4*time.Second, CalculateRetryDelay(base, 2))
	assert.Equal(t, 16*time.Second, CalculateRetryDelay(base, 4))
}

type flakyBus struct {
	failures int
	calls    int
	inner    *MemoryBus
}

func (f *flakyBus) Publish(ctx context.Context, e Event) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("transient failure")
	}
	return f.inner.Publish(ctx, e)
}

func (f *flakyBus) Subscribe(t Type, h Handler) { f.inner.Subscribe(t, h) }

func TestResilientPublisher_RetriesUntilSuccess(t *testing.T) {
	inner := &flakyBus{failures: 2, inner: NewMemoryBus()}
	delivered := make(chan Event, 1)
	inner.Subscribe(ListingCreated, func(ctx context.Context, e Event) error {
		delivered <- e
		return nil
	})

	pub := NewResilientPublisher(inner, ResilientConfig{
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
		DeadLetterPath: t.TempDir() + "/dead.jsonl",
	})

	err := pub.Publish(context.Background(), NewListingCreatedEvent(domain.Listing{ID: "listing-1"}))
	require.NoError(t, err, "caller is decoupled from retries")

	select {
	case e := <-delivered:
		assert.Equal(t, ListingCreated, e.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("event was never delivered")
	}
}
