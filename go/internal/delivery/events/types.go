package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/mailagent/go/internal/models"
)

// Event types, one per terminal state.
const (
	EventTypeDelivered       = "delivered"
	EventTypeTransportFailed = "transport_failed"
)

// OutcomeEvent is the message published for a finished deferred send.
type OutcomeEvent struct {
	ID        uuid.UUID       `json:"id"`
	JobID     uuid.UUID       `json:"job_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// EventPublisher delivers outcome events to a message bus.
type EventPublisher interface {
	Publish(ctx context.Context, event OutcomeEvent) error
}

// NewOutcomeEvent wraps an outcome in an event envelope.
func NewOutcomeEvent(outcome models.DeliveryOutcome) (OutcomeEvent, error) {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return OutcomeEvent{}, fmt.Errorf("marshal outcome: %w", err)
	}
	eventType := EventTypeDelivered
	if outcome.State == models.JobStateTransportFailed {
		eventType = EventTypeTransportFailed
	}
	return OutcomeEvent{
		ID:        uuid.New(),
		JobID:     outcome.JobID,
		EventType: eventType,
		Payload:   payload,
		CreatedAt: outcome.FiredAt,
	}, nil
}
