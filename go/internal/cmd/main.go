package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/mailagent/go/internal/config"
)

func main() {
	// Load .env file if it exists
	config.LoadDotEnv()

	cfg := config.NewFromEnv()
	setupLogging(cfg.LogLevel)

	catalog := loadStyle(cfg.StyleConfig)

	if !cfg.LLM.Configured() && !cfg.LLM.UseMock {
		log.Warn().Msg("GEMINI_API_KEY is not set, draft generation will fail until it is")
	}
	if !cfg.SMTP.Configured() && cfg.DeliveryMode != "log" {
		log.Warn().Msg("SMTP credentials are not set, sending will fail until they are")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services := setupServices(ctx, cfg, catalog)
	defer services.Close()

	go services.Connections.Start(ctx)

	server := setupServer(cfg.Port, services)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("model", cfg.LLM.ModelName).
			Str("smtp_host", cfg.SMTP.Host).
			Msg("email agent starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	pending := services.Scheduler.Pending()
	if err := services.Scheduler.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown timed out")
	}
	if pending > 0 {
		log.Warn().Int("dropped", pending).Msg("scheduled emails that had not fired were dropped")
	}

	cancel()
	log.Info().Msg("shutdown complete")
}
