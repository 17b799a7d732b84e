// Package delivery sends email drafts now or arms in-memory timers that send them later.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/mailagent/go/clients/smtp_client"
	"github.com/mcdev12/mailagent/go/internal/mailerr"
	"github.com/mcdev12/mailagent/go/internal/models"
)

const (
	opSendNow  = "delivery.send_now"
	opSchedule = "delivery.schedule_send"
)

// Transport delivers one message. Validate reports missing credentials without touching the network.
type Transport interface {
	Validate() error
	Sender() string
	Send(ctx context.Context, env smtp_client.Envelope) error
}

// Engine sends drafts immediately or through its scheduler.
type Engine struct {
	transport Transport
	scheduler *Scheduler
	clock     Clock
}

// NewEngine creates an engine. The scheduler's clock decides what "now" means.
func NewEngine(transport Transport, scheduler *Scheduler) *Engine {
	return &Engine{
		transport: transport,
		scheduler: scheduler,
		clock:     scheduler.clock,
	}
}

// Scheduler exposes the job registry.
func (e *Engine) Scheduler() *Scheduler {
	return e.scheduler
}

// SendNow makes exactly one delivery attempt.
func (e *Engine) SendNow(ctx context.Context, target models.DeliveryTarget, draft models.EmailDraft) (*models.Confirmation, error) {
	recipient, err := e.precheck(opSendNow, target, "I need the recipient email before I can send.")
	if err != nil {
		return nil, err
	}

	err = e.transport.Send(ctx, smtp_client.Envelope{
		From:    e.transport.Sender(),
		To:      recipient,
		Subject: draft.Subject,
		Body:    draft.Body,
	})
	if err != nil {
		log.Error().Err(err).Str("recipient", recipient).Msg("send failed")
		var mErr *mailerr.Error
		if errors.As(err, &mErr) {
			return nil, err
		}
		return nil, mailerr.Wrap(mailerr.KindTransport, opSendNow, "Send failed", err)
	}

	log.Info().Str("recipient", recipient).Msg("email sent")
	return &models.Confirmation{
		Recipient: recipient,
		SentAt:    e.clock.Now(),
		Message:   fmt.Sprintf("Sent successfully to %s.", recipient),
	}, nil
}

// ScheduleOption customises a deferred send.
type ScheduleOption func(*models.ScheduledSend)

// WithSessionID tags the job with the conversation that requested it.
func WithSessionID(id string) ScheduleOption {
	return func(s *models.ScheduledSend) {
		s.SessionID = id
	}
}

// ScheduleSend sends at fireAt. A fireAt that is not in the future sends synchronously and returns
// that send's result; otherwise it arms a job and returns an acknowledgement before anything is sent.
func (e *Engine) ScheduleSend(ctx context.Context, fireAt time.Time, target models.DeliveryTarget, draft models.EmailDraft, opts ...ScheduleOption) (*models.ScheduleResult, error) {
	if fireAt.Sub(e.clock.Now()) <= 0 {
		conf, err := e.SendNow(ctx, target, draft)
		if err != nil {
			return nil, err
		}
		return &models.ScheduleResult{Confirmation: conf}, nil
	}

	recipient, err := e.precheck(opSchedule, target, "I need the recipient email before scheduling.")
	if err != nil {
		return nil, err
	}
	target.Recipient = recipient

	send := models.ScheduledSend{
		FireAt: fireAt,
		Draft:  draft,
		Target: target,
	}
	for _, opt := range opts {
		opt(&send)
	}

	handle := e.scheduler.Submit(ctx, send, func(ctx context.Context) (string, error) {
		conf, err := e.SendNow(ctx, target, draft)
		if err != nil {
			return "", err
		}
		return conf.Message, nil
	})

	return &models.ScheduleResult{Ack: &models.ScheduleAck{
		JobID:     handle.ID,
		FireAt:    handle.FireAt,
		Recipient: recipient,
		Message:   fmt.Sprintf("Email scheduled for %s to %s.", handle.FireAt.Format("2006-01-02 15:04:05"), recipient),
	}}, nil
}

// precheck validates credentials first, then the recipient, without any network activity.
func (e *Engine) precheck(op string, target models.DeliveryTarget, missingRecipient string) (string, error) {
	if err := e.transport.Validate(); err != nil {
		return "", err
	}
	recipient := strings.TrimSpace(target.Recipient)
	if recipient == "" {
		return "", mailerr.New(mailerr.KindInvalidInput, op, missingRecipient)
	}
	return recipient, nil
}
