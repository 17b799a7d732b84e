package models

import (
	"time"

	"github.com/google/uuid"
)

// JobState defines the lifecycle position of a deferred send.
type JobState string

const (
	JobStateArmed           JobState = "armed"
	JobStateFired           JobState = "fired"
	JobStateDelivered       JobState = "delivered"
	JobStateTransportFailed JobState = "transport_failed"
)

// Terminal reports whether no further transition can happen.
func (s JobState) Terminal() bool {
	return s == JobStateDelivered || s == JobStateTransportFailed
}

// ScheduledSend is an in-memory deferred send. The ID is only a process-local handle.
type ScheduledSend struct {
	ID        uuid.UUID      `json:"id"`
	SessionID string         `json:"session_id,omitempty"`
	FireAt    time.Time      `json:"fire_at"`
	Draft     EmailDraft     `json:"draft"`
	Target    DeliveryTarget `json:"target"`
	State     JobState       `json:"state"`
	ArmedAt   time.Time      `json:"armed_at"`
	FiredAt   *time.Time     `json:"fired_at,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// DeliveryOutcome is the terminal record of a fired deferred send.
type DeliveryOutcome struct {
	JobID     uuid.UUID `json:"job_id"`
	SessionID string    `json:"session_id,omitempty"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	State     JobState  `json:"state"`
	FireAt    time.Time `json:"fire_at"`
	FiredAt   time.Time `json:"fired_at"`
	Message   string    `json:"message"`
	Error     string    `json:"error,omitempty"`
}
