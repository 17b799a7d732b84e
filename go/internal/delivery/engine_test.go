package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/mailagent/go/clients/smtp_client"
	"github.com/mcdev12/mailagent/go/internal/mailerr"
	"github.com/mcdev12/mailagent/go/internal/models"
)

type fakeTransport struct {
	mu          sync.Mutex
	validateErr error
	sendErr     error
	sent        []smtp_client.Envelope
}

func (f *fakeTransport) Validate() error { return f.validateErr }

func (f *fakeTransport) Sender() string { return "me@example.com" }

func (f *fakeTransport) Send(_ context.Context, env smtp_client.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, env)
	return f.sendErr
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

var (
	start  = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	draft  = models.EmailDraft{Subject: "Status", Body: "All green."}
	target = models.DeliveryTarget{Recipient: "bob@example.com"}
)

func newTestEngine(tr *fakeTransport) (*Engine, *clockwork.FakeClock, chan models.DeliveryOutcome) {
	fc := clockwork.NewFakeClockAt(start)
	outcomes := make(chan models.DeliveryOutcome, 8)
	sched := NewScheduler(fc, ObserverFunc(func(_ context.Context, o models.DeliveryOutcome) {
		outcomes <- o
	}))
	return NewEngine(tr, sched), fc, outcomes
}

func waitOutcome(t *testing.T, outcomes chan models.DeliveryOutcome) models.DeliveryOutcome {
	t.Helper()
	select {
	case o := <-outcomes:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outcome")
		return models.DeliveryOutcome{}
	}
}

func TestSendNow(t *testing.T) {
	tr := &fakeTransport{}
	e, _, _ := newTestEngine(tr)

	conf, err := e.SendNow(context.Background(), models.DeliveryTarget{Recipient: "  bob@example.com "}, draft)

	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", conf.Recipient)
	assert.Equal(t, "Sent successfully to bob@example.com.", conf.Message)
	assert.Equal(t, start, conf.SentAt)
	require.Len(t, tr.sent, 1)
	assert.Equal(t, smtp_client.Envelope{From: "me@example.com", To: "bob@example.com", Subject: "Status", Body: "All green."}, tr.sent[0])
}

func TestSendNowFailures(t *testing.T) {
	tests := []struct {
		name      string
		transport *fakeTransport
		target    models.DeliveryTarget
		wantKind  mailerr.Kind
		wantSends int
	}{
		{
			name:      "missing credentials checked first",
			transport: &fakeTransport{validateErr: mailerr.New(mailerr.KindConfig, "smtp", "SMTP credentials missing.")},
			target:    models.DeliveryTarget{},
			wantKind:  mailerr.KindConfig,
		},
		{
			name:      "empty recipient",
			transport: &fakeTransport{},
			target:    models.DeliveryTarget{Recipient: "   "},
			wantKind:  mailerr.KindInvalidInput,
		},
		{
			name:      "transport failure is wrapped",
			transport: &fakeTransport{sendErr: errors.New("connection reset")},
			target:    target,
			wantKind:  mailerr.KindTransport,
			wantSends: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _ := newTestEngine(tt.transport)

			conf, err := e.SendNow(context.Background(), tt.target, draft)

			require.Error(t, err)
			assert.Nil(t, conf)
			assert.Equal(t, tt.wantKind, mailerr.KindOf(err))
			assert.Equal(t, tt.wantSends, tt.transport.count())
		})
	}
}

func TestSendNowTransportErrorKeepsCause(t *testing.T) {
	cause := errors.New("535 authentication failed")
	e, _, _ := newTestEngine(&fakeTransport{sendErr: cause})

	_, err := e.SendNow(context.Background(), target, draft)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Send failed: 535 authentication failed", err.Error())
}

func TestScheduleSendDegenerateTimeSendsNow(t *testing.T) {
	for _, offset := range []time.Duration{0, -time.Minute} {
		t.Run(offset.String(), func(t *testing.T) {
			tr := &fakeTransport{}
			e, _, _ := newTestEngine(tr)

			res, err := e.ScheduleSend(context.Background(), start.Add(offset), target, draft)
			require.NoError(t, err)

			direct, err := e.SendNow(context.Background(), target, draft)
			require.NoError(t, err)

			assert.Nil(t, res.Ack)
			assert.Equal(t, direct, res.Confirmation)
			assert.Equal(t, 2, tr.count())
			assert.Empty(t, e.Scheduler().Jobs())
			assert.Zero(t, e.Scheduler().Pending())
		})
	}
}

func TestScheduleSendDegenerateTimeReturnsSendError(t *testing.T) {
	tr := &fakeTransport{sendErr: errors.New("relay down")}
	e, _, _ := newTestEngine(tr)

	res, err := e.ScheduleSend(context.Background(), start.Add(-time.Second), target, draft)

	assert.Nil(t, res)
	assert.True(t, mailerr.Is(err, mailerr.KindTransport))
	assert.Equal(t, 1, tr.count())
}

func TestScheduleSendFiresAfterDelay(t *testing.T) {
	tr := &fakeTransport{}
	e, fc, outcomes := newTestEngine(tr)
	fireAt := start.Add(2 * time.Second)

	began := time.Now()
	res, err := e.ScheduleSend(context.Background(), fireAt, target, draft, WithSessionID("session-1"))
	require.NoError(t, err)
	assert.Less(t, time.Since(began), time.Second)

	require.NotNil(t, res.Ack)
	assert.Nil(t, res.Confirmation)
	assert.Equal(t, fireAt, res.Ack.FireAt)
	assert.Equal(t, "Email scheduled for 2026-03-01 09:00:02 to bob@example.com.", res.Ack.Message)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	job, ok := e.Scheduler().Job(res.Ack.JobID)
	require.True(t, ok)
	assert.Equal(t, models.JobStateArmed, job.State)
	assert.Equal(t, "session-1", job.SessionID)

	fc.Advance(1999 * time.Millisecond)
	assert.Zero(t, tr.count())

	fc.Advance(time.Millisecond)
	outcome := waitOutcome(t, outcomes)

	assert.Equal(t, 1, tr.count())
	assert.Equal(t, models.JobStateDelivered, outcome.State)
	assert.Equal(t, res.Ack.JobID, outcome.JobID)
	assert.Equal(t, "session-1", outcome.SessionID)
	assert.Equal(t, "Sent successfully to bob@example.com.", outcome.Message)

	job, ok = e.Scheduler().Job(res.Ack.JobID)
	require.True(t, ok)
	assert.Equal(t, models.JobStateDelivered, job.State)
	require.NotNil(t, job.FiredAt)
	assert.Equal(t, fireAt, *job.FiredAt)
	assert.Zero(t, e.Scheduler().Pending())
}

func TestScheduledTransportFailureIsReportedNotReturned(t *testing.T) {
	tr := &fakeTransport{sendErr: errors.New("mailbox full")}
	e, fc, outcomes := newTestEngine(tr)

	res, err := e.ScheduleSend(context.Background(), start.Add(time.Minute), target, draft)
	require.NoError(t, err)
	require.NotNil(t, res.Ack)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	fc.Advance(time.Minute)

	outcome := waitOutcome(t, outcomes)
	assert.Equal(t, models.JobStateTransportFailed, outcome.State)
	assert.Equal(t, "Send failed: mailbox full", outcome.Error)

	job, _ := e.Scheduler().Job(res.Ack.JobID)
	assert.Equal(t, models.JobStateTransportFailed, job.State)
}

func TestScheduleSendPrechecks(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		tr := &fakeTransport{validateErr: mailerr.New(mailerr.KindConfig, "smtp", "SMTP credentials missing.")}
		e, _, _ := newTestEngine(tr)

		_, err := e.ScheduleSend(context.Background(), start.Add(time.Hour), target, draft)

		assert.True(t, mailerr.Is(err, mailerr.KindConfig))
		assert.Zero(t, e.Scheduler().Pending())
	})

	t.Run("empty recipient", func(t *testing.T) {
		e, _, _ := newTestEngine(&fakeTransport{})

		_, err := e.ScheduleSend(context.Background(), start.Add(time.Hour), models.DeliveryTarget{}, draft)

		assert.True(t, mailerr.Is(err, mailerr.KindInvalidInput))
		assert.Equal(t, "I need the recipient email before scheduling.", err.Error())
	})
}

func TestScheduledJobsFireIndependently(t *testing.T) {
	tr := &fakeTransport{}
	e, fc, outcomes := newTestEngine(tr)

	first, err := e.ScheduleSend(context.Background(), start.Add(10*time.Second), models.DeliveryTarget{Recipient: "a@example.com"}, draft)
	require.NoError(t, err)
	second, err := e.ScheduleSend(context.Background(), start.Add(5*time.Second), models.DeliveryTarget{Recipient: "b@example.com"}, draft)
	require.NoError(t, err)
	assert.NotEqual(t, first.Ack.JobID, second.Ack.JobID)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 2))

	fc.Advance(5 * time.Second)
	assert.Equal(t, "b@example.com", waitOutcome(t, outcomes).Recipient)

	fc.Advance(5 * time.Second)
	assert.Equal(t, "a@example.com", waitOutcome(t, outcomes).Recipient)
	assert.Equal(t, 2, tr.count())
	assert.Len(t, e.Scheduler().Jobs(), 2)
}

func TestScheduledSendSurvivesCallerCancellation(t *testing.T) {
	tr := &fakeTransport{}
	e, fc, outcomes := newTestEngine(tr)

	reqCtx, cancelReq := context.WithCancel(context.Background())
	_, err := e.ScheduleSend(reqCtx, start.Add(time.Second), target, draft)
	require.NoError(t, err)
	cancelReq()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	fc.Advance(time.Second)

	assert.Equal(t, models.JobStateDelivered, waitOutcome(t, outcomes).State)
	assert.Equal(t, 1, tr.count())
}

func TestShutdownDropsPendingJobs(t *testing.T) {
	tr := &fakeTransport{}
	e, fc, outcomes := newTestEngine(tr)

	_, err := e.ScheduleSend(context.Background(), start.Add(time.Hour), target, draft)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	require.NoError(t, e.Scheduler().Shutdown(ctx))
	fc.Advance(2 * time.Hour)

	assert.Zero(t, tr.count())
	assert.Empty(t, e.Scheduler().Jobs())
	assert.Zero(t, e.Scheduler().Pending())
	assert.Empty(t, outcomes)
}
