package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/mailagent/go/internal/models"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// defaultHistoryLimit bounds how many finished jobs the registry remembers.
const defaultHistoryLimit = 500

// RunFunc performs the deferred work. The returned message describes a success.
type RunFunc func(ctx context.Context) (string, error)

// JobHandle identifies an armed job.
type JobHandle struct {
	ID     uuid.UUID
	FireAt time.Time
}

// Scheduler runs each submitted job exactly once at or after its fire instant on its own goroutine.
// Jobs live only in memory; Shutdown drops anything still pending.
type Scheduler struct {
	clock        Clock
	observers    []OutcomeObserver
	historyLimit int

	mu       sync.RWMutex
	jobs     map[uuid.UUID]*models.ScheduledSend
	order    []uuid.UUID
	timers   map[uuid.UUID]clockwork.Timer
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler that reports terminal outcomes to observers.
func NewScheduler(clock Clock, observers ...OutcomeObserver) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:        clock,
		observers:    observers,
		historyLimit: defaultHistoryLimit,
		jobs:         make(map[uuid.UUID]*models.ScheduledSend),
		timers:       make(map[uuid.UUID]clockwork.Timer),
		stopCh:       make(chan struct{}),
	}
}

// Submit arms a one-shot timer for send and returns its handle. The fire-time work runs on a
// context that keeps ctx's values but not its cancellation.
func (s *Scheduler) Submit(ctx context.Context, send models.ScheduledSend, run RunFunc) JobHandle {
	if send.ID == uuid.Nil {
		send.ID = uuid.New()
	}
	send.State = models.JobStateArmed
	send.ArmedAt = s.clock.Now()

	duration := send.FireAt.Sub(send.ArmedAt)
	if duration < 0 {
		duration = 0
	}
	timer := s.clock.NewTimer(duration)

	s.mu.Lock()
	job := send
	s.jobs[job.ID] = &job
	s.order = append(s.order, job.ID)
	s.timers[job.ID] = timer
	s.mu.Unlock()

	runCtx := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func(id uuid.UUID, t clockwork.Timer) {
		defer s.wg.Done()
		select {
		case <-t.Chan():
			s.removeTimer(id)
			s.fire(runCtx, id, run)
		case <-s.stopCh:
			stopAndDrainTimer(t)
			s.drop(id)
		}
	}(job.ID, timer)

	log.Debug().
		Str("job_id", job.ID.String()).
		Time("fire_at", job.FireAt).
		Dur("duration", duration).
		Msg("scheduled one-shot timer")

	return JobHandle{ID: job.ID, FireAt: job.FireAt}
}

// fire moves a job through Fired to its terminal state and notifies observers.
func (s *Scheduler) fire(ctx context.Context, id uuid.UUID, run RunFunc) {
	firedAt := s.clock.Now()

	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	job.State = models.JobStateFired
	job.FiredAt = &firedAt
	snapshot := *job
	s.mu.Unlock()

	log.Info().
		Str("job_id", id.String()).
		Str("recipient", snapshot.Target.Recipient).
		Msg("timer fired - sending scheduled email")

	message, err := run(ctx)

	outcome := models.DeliveryOutcome{
		JobID:     id,
		SessionID: snapshot.SessionID,
		Recipient: snapshot.Target.Recipient,
		Subject:   snapshot.Draft.Subject,
		State:     models.JobStateDelivered,
		FireAt:    snapshot.FireAt,
		FiredAt:   firedAt,
		Message:   message,
	}
	if err != nil {
		outcome.State = models.JobStateTransportFailed
		outcome.Message = err.Error()
		outcome.Error = err.Error()
	}

	s.mu.Lock()
	job.State = outcome.State
	job.Error = outcome.Error
	s.pruneLocked()
	observers := append([]OutcomeObserver(nil), s.observers...)
	s.mu.Unlock()

	for _, o := range observers {
		o.OnOutcome(ctx, outcome)
	}
}

// drop forgets a job that never fired.
func (s *Scheduler) drop(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, id)
	if job, ok := s.jobs[id]; ok {
		log.Warn().
			Str("job_id", id.String()).
			Time("fire_at", job.FireAt).
			Str("recipient", job.Target.Recipient).
			Msg("scheduler stopped before job fired - email will not be sent")
		delete(s.jobs, id)
	}
}

// pruneLocked evicts the oldest finished jobs once the history limit is exceeded.
func (s *Scheduler) pruneLocked() {
	finished := 0
	for _, id := range s.order {
		if job, ok := s.jobs[id]; ok && job.State.Terminal() {
			finished++
		}
	}
	if finished <= s.historyLimit {
		return
	}

	kept := s.order[:0]
	for _, id := range s.order {
		job, ok := s.jobs[id]
		if !ok {
			continue
		}
		if finished > s.historyLimit && job.State.Terminal() {
			delete(s.jobs, id)
			finished--
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}

// Job returns a copy of the job with the given id.
func (s *Scheduler) Job(id uuid.UUID) (models.ScheduledSend, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.ScheduledSend{}, false
	}
	return *job, true
}

// Jobs returns copies of all known jobs in submission order.
func (s *Scheduler) Jobs() []models.ScheduledSend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ScheduledSend, 0, len(s.jobs))
	for _, id := range s.order {
		if job, ok := s.jobs[id]; ok {
			out = append(out, *job)
		}
	}
	return out
}

// Pending returns the number of armed timers.
func (s *Scheduler) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.timers)
}

// Shutdown stops every pending timer and waits for in-flight sends until ctx is done.
// Pending jobs are dropped, matching what a process exit would do.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) removeTimer(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, id)
}

// stopAndDrainTimer safely stops a timer and drains its channel.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
