package delivery

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/mailagent/go/internal/models"
)

// OutcomeObserver receives the terminal outcome of every fired deferred send.
// Implementations must not block for long; they run on the firing goroutine.
type OutcomeObserver interface {
	OnOutcome(ctx context.Context, outcome models.DeliveryOutcome)
}

// ObserverFunc adapts a function to OutcomeObserver.
type ObserverFunc func(ctx context.Context, outcome models.DeliveryOutcome)

func (f ObserverFunc) OnOutcome(ctx context.Context, outcome models.DeliveryOutcome) {
	f(ctx, outcome)
}

// LogObserver writes each outcome to the process log.
type LogObserver struct{}

func (LogObserver) OnOutcome(_ context.Context, outcome models.DeliveryOutcome) {
	evt := log.Info()
	if outcome.State == models.JobStateTransportFailed {
		evt = log.Error()
	}
	evt.
		Str("job_id", outcome.JobID.String()).
		Str("session_id", outcome.SessionID).
		Str("recipient", outcome.Recipient).
		Str("state", string(outcome.State)).
		Time("fire_at", outcome.FireAt).
		Time("fired_at", outcome.FiredAt).
		Msg("[SCHEDULED EMAIL] " + outcome.Message)
}
