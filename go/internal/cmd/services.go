package main

import (
	"context"
	"database/sql"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/mailagent/go/clients/llm_client"
	"github.com/mcdev12/mailagent/go/clients/smtp_client"
	"github.com/mcdev12/mailagent/go/internal/config"
	"github.com/mcdev12/mailagent/go/internal/delivery"
	"github.com/mcdev12/mailagent/go/internal/delivery/events"
	"github.com/mcdev12/mailagent/go/internal/delivery/history"
	"github.com/mcdev12/mailagent/go/internal/draftgen"
	"github.com/mcdev12/mailagent/go/internal/gateway"
	"github.com/mcdev12/mailagent/go/internal/session"
)

type Services struct {
	Agent       *session.Agent
	Scheduler   *delivery.Scheduler
	History     history.Repository
	Connections *gateway.ConnectionManager
	Status      config.Status

	db        *sql.DB
	publisher *events.JetStreamPublisher
}

func setupServices(ctx context.Context, cfg config.Config, catalog *config.StyleCatalog) *Services {
	// Wire up dependency chain
	// Clients → Generator / Engine → Agent → Gateway
	clock := clockwork.NewRealClock()

	// Draft generation
	var completer llm_client.Completer = llm_client.NewGeminiClient(cfg.LLM)
	if cfg.LLM.UseMock {
		log.Warn().Msg("AGENT_USE_MOCK_LLM=1, drafts come from the mock completer")
		completer = llm_client.NewMockCompleter()
	}
	generator := draftgen.NewGenerator(completer, catalog.ToneGuidance)

	// Delivery
	var transport delivery.Transport = smtp_client.NewClient(cfg.SMTP)
	if cfg.DeliveryMode == "log" {
		log.Warn().Msg("DELIVERY_MODE=log, emails are logged instead of sent")
		transport = smtp_client.NewLogTransport(cfg.SMTP.Email)
	}

	repo, db := setupHistory(ctx, cfg.Database)
	connections := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())

	svc := &Services{
		History:     repo,
		Connections: connections,
		Status:      config.StatusOf(cfg, catalog),
		db:          db,
	}

	// Outcome events
	var publisher events.EventPublisher = events.NewLogPublisher(events.DefaultJetStreamConfig().SubjectPrefix)
	if cfg.NATSURL != "" {
		jsCfg := events.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATSURL
		js, err := events.NewJetStreamPublisher(ctx, jsCfg)
		if err != nil {
			log.Error().Err(err).Str("nats_url", cfg.NATSURL).Msg("NATS unavailable, logging outcome events instead")
		} else {
			svc.publisher = js
			publisher = js
		}
	}

	svc.Scheduler = delivery.NewScheduler(clock,
		delivery.LogObserver{},
		history.NewRecordingObserver(repo),
		events.NewPublishingObserver(publisher),
		connections,
	)
	engine := delivery.NewEngine(transport, svc.Scheduler)

	svc.Agent = session.NewAgent(session.NewMemoryStore(), generator, engine, clock, session.Defaults{
		Tone:     catalog.DefaultTone,
		Language: catalog.DefaultLanguage,
	})
	return svc
}

func (s *Services) healthChecker() *gateway.ServiceHealthChecker {
	var broker gateway.ConnectedChecker
	if s.publisher != nil {
		broker = s.publisher
	}
	return gateway.NewServiceHealthChecker(s.db, broker, s.Scheduler, s.Connections)
}

// Close releases external connections. Call after the scheduler has shut down.
func (s *Services) Close() {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close NATS publisher")
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}
}
