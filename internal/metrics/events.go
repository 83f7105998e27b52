package metrics

import (
	"context"

	"github.com/caseforge/caseforge/internal/event"
	"github.com/caseforge/caseforge/internal/logger"
)

// EventMetricsCollector subscribes to engine events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all events
func (e *EventMetricsCollector) Register(bus event.Bus) error {
	eventTypes := []event.Type{
		event.CaseOpened,
		event.ListingCreated,
		event.ListingSold,
		event.ListingWithdrawn,
		event.MessageSent,
		event.UserRegistered,
	}

	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, e.HandleEvent)
	}

	return nil
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	payload, err := event.DecodePayload[map[string]interface{}](evt.Payload)
	if err != nil {
		log.Debug(LogMsgEventPayloadNotMap, "type", evt.Type)
		return nil
	}

	switch evt.Type {
	case event.CaseOpened:
		caseID, okCase := payload[PayloadFieldCaseID].(string)
		rarity, okRarity := payload[PayloadFieldRarity].(string)
		if okCase && okRarity {
			CasesOpened.WithLabelValues(caseID, rarity).Inc()
		}
		if price, ok := payload[PayloadFieldPrice].(float64); ok {
			CaseSpend.Add(price)
		}

	case event.ListingCreated:
		ListingsCreated.Inc()

	case event.ListingSold:
		ListingsSold.Inc()
		if price, ok := payload[PayloadFieldPrice].(float64); ok {
			MarketVolume.Add(price)
		}

	case event.ListingWithdrawn:
		ListingsWithdrawn.Inc()

	case event.MessageSent:
		MessagesSent.Inc()

	case event.UserRegistered:
		UsersRegistered.Inc()
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
