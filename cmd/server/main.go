package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vn.io.arda/admin-event-interpreter/internal/application"
	"vn.io.arda/admin-event-interpreter/internal/config"
	"vn.io.arda/admin-event-interpreter/internal/infrastructure/keycloak"
	"vn.io.arda/admin-event-interpreter/internal/infrastructure/postgres"
	kafkaconsumer "vn.io.arda/admin-event-interpreter/internal/kafka"
	transporthttp "vn.io.arda/admin-event-interpreter/internal/transport/http"
	"vn.io.arda/admin-event-interpreter/internal/transport/mw"
)

func main() {
	// ── Logging ──────────────────────────────────────────────────────────────
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// ── Config ───────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.Server.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().Str("env", cfg.Server.Env).Str("port", cfg.Server.Port).Msg("starting admin-event-interpreter")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Database ──────────────────────────────────────────────────────────────
	if err := postgres.Migrate(cfg.Database.MigrateURL()); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("postgres ping failed")
	}
	log.Info().Msg("postgres connected")

	// ── Repository & SSE Hub ─────────────────────────────────────────────────
	repo := postgres.New(pool)
	hub := transporthttp.NewHub()

	// ── Directory (Keycloak Admin API) ────────────────────────────────────────
	directory := keycloak.New(
		cfg.Keycloak.BaseURL,
		cfg.Keycloak.AdminRealm,
		cfg.Keycloak.AdminClientID,
		cfg.Keycloak.AdminClientSecret,
		nil,
	)

	var opts []application.ValidatorOption
	if cfg.Validation.OrgNameOverride != "" {
		log.Warn().Str("org", cfg.Validation.OrgNameOverride).Msg("organization name override enabled")
		opts = append(opts, application.WithOrgNameOverride(cfg.Validation.OrgNameOverride))
	}
	validator := application.NewOrgRoleValidator(directory, log.Logger, opts...)

	// ── Output Publisher ──────────────────────────────────────────────────────
	var publisher application.Publisher
	if cfg.Kafka.OutputTopic != "" {
		p, err := kafkaconsumer.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.OutputTopic)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create kafka publisher")
		}
		defer p.Close()
		publisher = p
	}

	// ── Application Service ───────────────────────────────────────────────────
	svc := application.NewService(repo, hub, publisher, validator, log.Logger.With().Str("component", "service").Logger())

	// ── HTTP Server ───────────────────────────────────────────────────────────
	jwks, err := keyfunc.NewDefaultCtx(ctx, cfg.Keycloak.JWKSURLs())
	if err != nil {
		log.Fatal().Err(err).Strs("urls", cfg.Keycloak.JWKSURLs()).Msg("failed to load JWKS")
	}

	handler := transporthttp.NewHandler(svc, hub)
	router := transporthttp.NewRouter(handler, mw.JWTAuth(jwks), cfg.Keycloak.AdminRealm)

	// ── Kafka Consumer ────────────────────────────────────────────────────────
	consumer, err := kafkaconsumer.New(
		cfg.Kafka.Brokers,
		cfg.Kafka.ConsumerGroupID,
		cfg.Kafka.Topics,
		svc,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create kafka consumer")
	}

	// Start Kafka consumer in background
	go consumer.Start(ctx)
	log.Info().Strs("topics", cfg.Kafka.Topics).Msg("kafka consumer started")

	// ── TTL Purge Job (every 24h) ─────────────────────────────────────────────
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				svc.PurgeTTL(ctx, cfg.TTL.RetentionDays)
			case <-ctx.Done():
				return
			}
		}
	}()

	// ── Start HTTP Server ─────────────────────────────────────────────────────
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := router.Start(":" + cfg.Server.Port); err != nil {
			log.Info().Msg("HTTP server stopped")
		}
	}()

	// ── Graceful Shutdown ─────────────────────────────────────────────────────
	<-ctx.Done()
	log.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("admin-event-interpreter stopped")
}
