// Package history keeps a ledger of terminal outcomes of scheduled sends. It records what
// happened; it never stores pending jobs and cannot resume them.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/mailagent/go/internal/models"
	"github.com/mcdev12/mailagent/go/internal/sqlutil"
)

// Schema creates the ledger table. Applied by the migrate_history tool.
const Schema = `
CREATE TABLE IF NOT EXISTS email_delivery_log (
    job_id      UUID PRIMARY KEY,
    session_id  TEXT,
    recipient   TEXT NOT NULL,
    subject     TEXT NOT NULL,
    state       TEXT NOT NULL,
    fire_at     TIMESTAMPTZ NOT NULL,
    fired_at    TIMESTAMPTZ NOT NULL,
    message     TEXT NOT NULL,
    detail      JSONB,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS email_delivery_log_fired_at_idx ON email_delivery_log (fired_at DESC);
`

// Repository stores and lists delivery outcomes.
type Repository interface {
	Record(ctx context.Context, outcome models.DeliveryOutcome) error
	ListRecent(ctx context.Context, limit int) ([]models.DeliveryOutcome, error)
}

type detail struct {
	Error string `json:"error,omitempty"`
}

// PostgresRepository is a Repository backed by the email_delivery_log table.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Record(ctx context.Context, outcome models.DeliveryOutcome) error {
	var sessionID *string
	if outcome.SessionID != "" {
		sessionID = &outcome.SessionID
	}

	d := pqtype.NullRawMessage{}
	if outcome.Error != "" {
		raw, err := json.Marshal(detail{Error: outcome.Error})
		if err != nil {
			return fmt.Errorf("failed to marshal detail: %w", err)
		}
		d = pqtype.NullRawMessage{RawMessage: raw, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_delivery_log (
		  job_id, session_id, recipient, subject, state, fire_at, fired_at, message, detail
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (job_id) DO NOTHING`,
		outcome.JobID,
		sqlutil.ToSqlString(sessionID),
		outcome.Recipient,
		outcome.Subject,
		string(outcome.State),
		outcome.FireAt,
		outcome.FiredAt,
		outcome.Message,
		d,
	)
	if err != nil {
		return fmt.Errorf("failed to record delivery outcome: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]models.DeliveryOutcome, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT job_id, session_id, recipient, subject, state, fire_at, fired_at, message, detail
		FROM email_delivery_log
		ORDER BY fired_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery outcomes: %w", err)
	}
	defer rows.Close()

	var out []models.DeliveryOutcome
	for rows.Next() {
		var (
			o         models.DeliveryOutcome
			sessionID sql.NullString
			state     string
			d         pqtype.NullRawMessage
		)
		if err := rows.Scan(&o.JobID, &sessionID, &o.Recipient, &o.Subject, &state, &o.FireAt, &o.FiredAt, &o.Message, &d); err != nil {
			return nil, fmt.Errorf("failed to scan delivery outcome: %w", err)
		}
		o.SessionID = sqlutil.FromSqlString(sessionID, "")
		o.State = models.JobState(state)
		if d.Valid {
			var parsed detail
			if err := json.Unmarshal(d.RawMessage, &parsed); err == nil {
				o.Error = parsed.Error
			}
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate delivery outcomes: %w", err)
	}
	return out, nil
}

// MemoryRepository keeps the most recent outcomes in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	capacity int
	items    []models.DeliveryOutcome
}

func NewMemoryRepository(capacity int) *MemoryRepository {
	if capacity <= 0 {
		capacity = 500
	}
	return &MemoryRepository{capacity: capacity}
}

func (r *MemoryRepository) Record(_ context.Context, outcome models.DeliveryOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, outcome)
	if len(r.items) > r.capacity {
		r.items = r.items[len(r.items)-r.capacity:]
	}
	return nil
}

// ListRecent returns up to limit outcomes, newest first.
func (r *MemoryRepository) ListRecent(_ context.Context, limit int) ([]models.DeliveryOutcome, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.items) {
		limit = len(r.items)
	}
	out := make([]models.DeliveryOutcome, 0, limit)
	for i := len(r.items) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.items[i])
	}
	return out, nil
}
