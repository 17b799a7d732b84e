package history

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/mailagent/go/internal/models"
)

// RecordingObserver writes every scheduler outcome to a Repository.
type RecordingObserver struct {
	repo Repository
}

func NewRecordingObserver(repo Repository) *RecordingObserver {
	return &RecordingObserver{repo: repo}
}

func (o *RecordingObserver) OnOutcome(ctx context.Context, outcome models.DeliveryOutcome) {
	if err := o.repo.Record(ctx, outcome); err != nil {
		log.Error().Err(err).Str("job_id", outcome.JobID.String()).Msg("failed to record delivery outcome")
	}
}
