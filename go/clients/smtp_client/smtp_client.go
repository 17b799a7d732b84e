package smtp_client

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/mailagent/go/internal/config"
	"github.com/mcdev12/mailagent/go/internal/mailerr"
)

// session is the part of *smtp.Client a send needs.
type session interface {
	Auth(a sasl.Client) error
	SendMail(from string, to []string, r io.Reader) error
	Quit() error
	Close() error
}

// Client sends mail through an authenticated STARTTLS relay. Every Send opens and closes its own session.
type Client struct {
	cfg  config.SMTPConfig
	dial func(addr string, tlsConfig *tls.Config) (session, error)
	now  func() time.Time
}

// NewClient creates a client. Credentials are validated on each Send.
func NewClient(cfg config.SMTPConfig) *Client {
	return &Client{
		cfg:  cfg,
		dial: dialStartTLS,
		now:  time.Now,
	}
}

func dialStartTLS(addr string, tlsConfig *tls.Config) (session, error) {
	c, err := smtp.DialStartTLS(addr, tlsConfig)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports a config error when the sender identity or secret is missing.
func (c *Client) Validate() error {
	return c.cfg.Validate()
}

// Sender returns the configured From identity.
func (c *Client) Sender() string {
	return c.cfg.Email
}

// Send transmits one message. Missing credentials fail before any connection attempt.
func (c *Client) Send(ctx context.Context, env Envelope) (err error) {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return mailerr.Wrap(mailerr.KindTransport, "smtp.send", "Send failed", err)
	}
	if env.From == "" {
		env.From = c.cfg.Email
	}

	msg, err := BuildMessage(env, c.now())
	if err != nil {
		return mailerr.Wrap(mailerr.KindTransport, "smtp.send", "Send failed", err)
	}

	addr := c.cfg.Addr()
	log.Debug().Str("addr", addr).Str("from", env.From).Str("to", env.To).Msg("connecting to SMTP relay")

	s, err := c.dial(addr, &tls.Config{ServerName: c.cfg.Host})
	if err != nil {
		return mailerr.Wrap(mailerr.KindTransport, "smtp.send", "Send failed", fmt.Errorf("dial %s: %w", addr, err))
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			log.Debug().Err(closeErr).Msg("closing SMTP session")
		}
	}()

	if err := s.Auth(sasl.NewPlainClient("", c.cfg.Email, c.cfg.Password)); err != nil {
		return mailerr.Wrap(mailerr.KindTransport, "smtp.send", "Send failed", fmt.Errorf("auth: %w", err))
	}
	if err := s.SendMail(env.From, []string{env.To}, bytes.NewReader(msg)); err != nil {
		return mailerr.Wrap(mailerr.KindTransport, "smtp.send", "Send failed", fmt.Errorf("transmit: %w", err))
	}
	if err := s.Quit(); err != nil {
		return mailerr.Wrap(mailerr.KindTransport, "smtp.send", "Send failed", fmt.Errorf("quit: %w", err))
	}

	return nil
}
