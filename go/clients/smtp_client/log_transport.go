package smtp_client

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogTransport logs messages instead of sending them. Useful for development.
type LogTransport struct {
	from string
}

func NewLogTransport(from string) *LogTransport {
	if from == "" {
		from = "dev@localhost"
	}
	return &LogTransport{from: from}
}

func (t *LogTransport) Sender() string {
	return t.from
}

func (t *LogTransport) Validate() error {
	return nil
}

// Send logs the message and always succeeds.
func (t *LogTransport) Send(_ context.Context, env Envelope) error {
	if env.From == "" {
		env.From = t.from
	}
	log.Info().
		Str("from", env.From).
		Str("to", env.To).
		Str("subject", env.Subject).
		Str("body", env.Body).
		Msg("EMAIL (dev mode - not actually sent)")
	return nil
}
