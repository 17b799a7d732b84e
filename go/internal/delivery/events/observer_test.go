package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/mailagent/go/internal/models"
)

type recordingPublisher struct {
	events []OutcomeEvent
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, event OutcomeEvent) error {
	r.events = append(r.events, event)
	return r.err
}

func TestPublishingObserver(t *testing.T) {
	jobID := uuid.New()
	firedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	pub := &recordingPublisher{}

	NewPublishingObserver(pub).OnOutcome(context.Background(), models.DeliveryOutcome{
		JobID:     jobID,
		Recipient: "bob@example.com",
		State:     models.JobStateTransportFailed,
		FiredAt:   firedAt,
		Error:     "Send failed: timeout",
	})

	require.Len(t, pub.events, 1)
	event := pub.events[0]
	assert.Equal(t, jobID, event.JobID)
	assert.Equal(t, EventTypeTransportFailed, event.EventType)
	assert.Equal(t, firedAt, event.CreatedAt)
	assert.Equal(t, "email.deliveries.transport_failed", subjectFor(DefaultJetStreamConfig().SubjectPrefix, event))

	var decoded models.DeliveryOutcome
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	assert.Equal(t, "bob@example.com", decoded.Recipient)
}

func TestPublishingObserverSwallowsPublishErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats down")}

	assert.NotPanics(t, func() {
		NewPublishingObserver(pub).OnOutcome(context.Background(), models.DeliveryOutcome{State: models.JobStateDelivered})
	})
	require.Len(t, pub.events, 1)
	assert.Equal(t, EventTypeDelivered, pub.events[0].EventType)
}

func TestLogPublisher(t *testing.T) {
	event, err := NewOutcomeEvent(models.DeliveryOutcome{JobID: uuid.New(), State: models.JobStateDelivered})
	require.NoError(t, err)

	assert.NoError(t, NewLogPublisher("email.deliveries").Publish(context.Background(), event))
}
