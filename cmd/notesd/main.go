package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"relationship-notes-service/internal/api"
	"relationship-notes-service/internal/assist"
	"relationship-notes-service/internal/config"
	"relationship-notes-service/internal/events"
	"relationship-notes-service/internal/observability"
	"relationship-notes-service/internal/observability/logging"
	"relationship-notes-service/internal/session"
	"relationship-notes-service/internal/store"
)

func main() {
	cfg := config.Load()

	logging.Init(logging.Config{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("Failed to open store")
	}
	defer st.Close()

	// Kafka publisher with separate topics for logged interactions and
	// scheduled reminders
	publisher := events.New(&events.Config{
		Enabled:           cfg.Kafka.Enabled,
		Brokers:           cfg.Kafka.Brokers,
		TopicInteractions: cfg.Kafka.TopicInteractions,
		TopicReminders:    cfg.Kafka.TopicReminders,
		Principal:         cfg.Kafka.Principal,
	})
	defer publisher.Close()

	sessions := session.NewManager(session.Config{
		Username: cfg.Session.Username,
		Password: cfg.Session.Password,
		TTL:      cfg.Session.TTL,
	})
	if cfg.Session.Password == "" {
		log.Warn().Msg("AUTH_PASSWORD not set, sign-in is disabled")
	}

	generator := assist.NewClient(
		&http.Client{Timeout: cfg.Assist.Timeout},
		cfg.Assist.URL,
		cfg.Assist.APIKey,
		cfg.Assist.Model,
	)

	var templates *assist.TemplateManager
	if cfg.Assist.PromptPath != "" {
		templates, err = assist.NewTemplateManager(cfg.Assist.PromptPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Assist.PromptPath).Msg("Failed to load prompt template")
		}
		defer templates.Close()
	}

	handler := api.NewHandler(st, sessions, generator, templates, publisher)
	server := &http.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	obs := observability.NewServer(":" + cfg.Observability.MetricsPort)
	obs.Start()

	go func() {
		log.Info().
			Str("principal", cfg.Service.Principal).
			Str("port", cfg.Service.HTTPPort).
			Msg("Relationship notes service started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
	if err := obs.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Observability shutdown failed")
	}
}
