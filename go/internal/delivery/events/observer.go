package events

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/mailagent/go/internal/models"
)

// PublishingObserver forwards scheduler outcomes to an EventPublisher.
// Publish failures are logged; they never affect the send itself.
type PublishingObserver struct {
	publisher EventPublisher
}

func NewPublishingObserver(publisher EventPublisher) *PublishingObserver {
	return &PublishingObserver{publisher: publisher}
}

func (o *PublishingObserver) OnOutcome(ctx context.Context, outcome models.DeliveryOutcome) {
	event, err := NewOutcomeEvent(outcome)
	if err != nil {
		log.Error().Err(err).Str("job_id", outcome.JobID.String()).Msg("failed to build outcome event")
		return
	}
	if err := o.publisher.Publish(ctx, event); err != nil {
		log.Error().Err(err).Str("job_id", outcome.JobID.String()).Msg("failed to publish outcome event")
	}
}
