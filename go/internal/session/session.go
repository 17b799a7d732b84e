// Package session holds the per-conversation state of the email agent and the turn logic
// that drives draft generation and delivery from it.
package session

import (
	"time"

	"github.com/mcdev12/mailagent/go/internal/models"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one line of the conversation transcript.
type ChatMessage struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Session is one conversation. Draft is replaced wholesale by every successful generation.
type Session struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"created_at"`
	Tone      models.Tone        `json:"tone"`
	Language  string             `json:"language"`
	Chat      []ChatMessage      `json:"chat"`
	Draft     *models.EmailDraft `json:"draft,omitempty"`
}

func (s *Session) add(role Role, content string, at time.Time) ChatMessage {
	msg := ChatMessage{Role: role, Content: content, At: at}
	s.Chat = append(s.Chat, msg)
	return msg
}

// clone returns a deep copy so stored sessions are never aliased by callers.
func (s *Session) clone() *Session {
	c := *s
	c.Chat = append([]ChatMessage(nil), s.Chat...)
	if s.Draft != nil {
		d := *s.Draft
		c.Draft = &d
	}
	return &c
}
