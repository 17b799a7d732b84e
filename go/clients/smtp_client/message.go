package smtp_client

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-message/mail"
)

// Envelope is a single-recipient plain-text email.
type Envelope struct {
	From    string
	To      string
	Subject string
	Body    string
}

// BuildMessage renders env as a plain-text MIME message with Date, Message-Id, Subject, From and To headers.
func BuildMessage(env Envelope, now time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetSubject(env.Subject)
	h.SetAddressList("From", []*mail.Address{{Address: env.From}})
	h.SetAddressList("To", []*mail.Address{{Address: env.To}})
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generate message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create message writer: %w", err)
	}
	if _, err := w.Write([]byte(env.Body)); err != nil {
		return nil, fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close message writer: %w", err)
	}

	return buf.Bytes(), nil
}
