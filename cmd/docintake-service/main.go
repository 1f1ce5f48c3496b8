package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/docintake/docintake-backend/internal/docextract/consumers"
	"github.com/docintake/docintake-backend/internal/docextract/events"
	"github.com/docintake/docintake-backend/internal/docextract/handler"
	"github.com/docintake/docintake-backend/internal/docextract/processor"
	"github.com/docintake/docintake-backend/internal/docextract/repository"
	"github.com/docintake/docintake-backend/internal/docextract/service"
	"github.com/docintake/docintake-backend/internal/docextract/storage"
	"github.com/docintake/docintake-backend/migrations"
	"github.com/docintake/docintake-backend/pkg/config"
	"github.com/docintake/docintake-backend/pkg/database"
	"github.com/docintake/docintake-backend/pkg/httputil"
	"github.com/docintake/docintake-backend/pkg/logger"
	"github.com/docintake/docintake-backend/pkg/messaging"
)

const serviceName = "docintake-service"

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting document intake service")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(&cfg.Database, migrations.FS, log); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	files, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize document storage")
	}

	registry := processor.NewDefaultRegistry(cfg.Extraction, processor.NewExecRunner(log), log)
	if len(registry.Names()) == 0 {
		log.Warn().Msg("no recognition backend configured, every upload will yield an empty record")
	}
	log.Info().Strs("backends", registry.Names()).Msg("recognition backends registered")

	repo := repository.NewDocumentRepository(db)

	// Messaging is optional; a nil publisher drops events
	var rmq *messaging.RabbitMQ
	var publisher *events.DocumentEventPublisher
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewDocumentEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	}

	orchestrator := service.NewOrchestrator(registry, log)
	svc := service.NewService(orchestrator, files, repo, publisher, log)

	if rmq != nil {
		reextractConsumer, err := consumers.NewReextractConsumer(rmq, svc, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create re-extraction consumer")
		}
		if err := reextractConsumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start re-extraction consumer")
		}
	}

	if cfg.Retention.Enabled {
		retention := service.NewRetentionJob(repo, cfg.Retention, log)
		if err := retention.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start retention job")
		}
		defer retention.Stop()
	}

	documentHandler := handler.NewDocumentHandler(svc, cfg.Server.MaxUploadBytes, log)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"database": db.Health(r.Context()),
			"backends": registry.Names(),
		}
		if rmq != nil {
			status["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, status)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/documents", func(r chi.Router) {
		r.Use(httputil.Authenticate(cfg.JWT.Secret, cfg.JWT.Issuer, log))
		documentHandler.Routes(r)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop consumers
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
