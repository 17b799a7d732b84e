package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/mailagent/go/internal/dbconfig"
	"github.com/mcdev12/mailagent/go/internal/delivery/history"
)

const historyCapacity = 500

// setupHistory returns the Postgres ledger when a database is configured and reachable,
// otherwise an in-memory one. The returned *sql.DB is nil for the in-memory ledger.
func setupHistory(ctx context.Context, cfg dbconfig.Config) (history.Repository, *sql.DB) {
	if !cfg.Enabled() {
		log.Info().Msg("no database configured, keeping delivery history in memory")
		return history.NewMemoryRepository(historyCapacity), nil
	}

	db, err := dbconfig.Open(ctx, cfg.DSN(), 5*time.Second)
	if err != nil {
		log.Error().Err(err).Msg("database unavailable, keeping delivery history in memory")
		return history.NewMemoryRepository(historyCapacity), nil
	}

	log.Info().Msg("connected to delivery history database")
	return history.NewPostgresRepository(db), db
}
