package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerationRequest is one natural-language instruction plus its style parameters.
type GenerationRequest struct {
	Instruction string `json:"instruction"`
	Tone        Tone   `json:"tone"`
	Language    string `json:"language"`
}

// EmailDraft is the structured email produced by the draft generator.
type EmailDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

var ErrIncompleteDraft = errors.New("draft subject and body must both be non-empty")

// Validate checks that both fields carry text.
func (d EmailDraft) Validate() error {
	if strings.TrimSpace(d.Subject) == "" || strings.TrimSpace(d.Body) == "" {
		return ErrIncompleteDraft
	}
	return nil
}

// DeliveryTarget identifies the single recipient of a send.
type DeliveryTarget struct {
	Recipient string `json:"recipient"`
}

// Confirmation is returned by a successful immediate send.
type Confirmation struct {
	Recipient string    `json:"recipient"`
	SentAt    time.Time `json:"sent_at"`
	Message   string    `json:"message"`
}

// ScheduleAck acknowledges that a deferred send was armed. It says nothing about delivery.
type ScheduleAck struct {
	JobID     uuid.UUID `json:"job_id"`
	FireAt    time.Time `json:"fire_at"`
	Recipient string    `json:"recipient"`
	Message   string    `json:"message"`
}

// ScheduleResult holds exactly one of Ack (job armed) or Confirmation (sent immediately
// because the requested instant was not in the future).
type ScheduleResult struct {
	Ack          *ScheduleAck  `json:"ack,omitempty"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
}

// Message returns the human-readable line for whichever branch was taken.
func (r ScheduleResult) Message() string {
	if r.Ack != nil {
		return r.Ack.Message
	}
	if r.Confirmation != nil {
		return r.Confirmation.Message
	}
	return ""
}
