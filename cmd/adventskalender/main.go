package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/adventskalender/backend/internal/backoff"
	"github.com/adventskalender/backend/internal/config"
	"github.com/adventskalender/backend/internal/events"
	"github.com/adventskalender/backend/internal/healthcheck"
	"github.com/adventskalender/backend/internal/httpserver"
	"github.com/adventskalender/backend/internal/keys"
	"github.com/adventskalender/backend/internal/logging"
	"github.com/adventskalender/backend/internal/middleware"
	"github.com/adventskalender/backend/internal/ratelimit"
	"github.com/adventskalender/backend/internal/repo"
	"github.com/adventskalender/backend/internal/search"
	"github.com/adventskalender/backend/internal/service"
	"github.com/adventskalender/backend/internal/tokens"
)

const (
	dbConnectAttempts   = 5
	dbConnectMaxBackoff = 8 * time.Second

	loginMaxAttempts = 5
	loginWindow      = 15 * time.Minute

	monitorInterval = 60 * time.Second
	cleanupInterval = 5 * time.Minute
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("starting adventskalender backend", "version", httpserver.Version)

	db := openDatabase(cfg, logger)
	cfg.WipeDatabaseURL()

	keyMaterial, err := keys.Load(cfg.SigningKeyPath, logger)
	if err != nil {
		logger.Error("cannot initialize signing key", "error", err)
		os.Exit(1)
	}

	gormRepo := &repo.GormRepo{DB: db}

	auditSvc := &service.AuditService{Repo: gormRepo}
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(cfg.KafkaBrokers, "audit_events")
		defer producer.Close()
		auditSvc.Stream = producer
	}
	if cfg.ElasticsearchURL != "" {
		esClient, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: []string{cfg.ElasticsearchURL},
		})
		if err != nil {
			logger.Warn("elasticsearch unavailable, audit search disabled", "error", err)
		} else {
			auditSvc.Index = search.NewAuditIndex(esClient, "audit_events")
		}
	}

	limiter := ratelimit.NewLimiter(loginMaxAttempts, loginWindow)

	authSvc := &service.AuthService{
		Repo: gormRepo,
		Tokens: &tokens.Issuer{
			Key:      keyMaterial.SigningKey(),
			Issuer:   cfg.APIHost,
			Audience: cfg.TokenAudience,
			Lifetime: cfg.TokenLifetime,
		},
		Limiter: limiter,
		Audit:   auditSvc,
	}

	selectionSvc := &service.SelectionService{Repo: gormRepo, Audit: auditSvc}

	healthSvc := &service.HealthService{
		DB:   db,
		Gate: backoff.NewGate(monitorInterval),
	}
	if cfg.HealthcheckURL != "" {
		healthSvc.Notifier = healthcheck.NewNotifier(cfg.HealthcheckURL)
	}

	guard := middleware.NewGuard(&tokens.Verifier{
		Key:      keyMaterial.VerificationKey(),
		Issuer:   cfg.APIHost,
		Audience: cfg.TokenAudience,
	})

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(middleware.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:        &httpserver.AuthHTTP{Svc: authSvc, TokenLifetime: cfg.TokenLifetime},
		ParticipantHandler: &httpserver.ParticipantHTTP{Svc: selectionSvc},
		AuditHandler:       &httpserver.AuditHTTP{Svc: auditSvc},
		HealthHandler:      &httpserver.HealthHTTP{Svc: healthSvc},
		Guard:              guard,
		CORSOrigins:        cfg.CORSOrigins,
	})

	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Cleanup()
			case <-cleanupDone:
				return
			}
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("echo start", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
	close(cleanupDone)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
}

// openDatabase retries the initial connection with capped exponential
// backoff. Retrying happens at startup only; steady-state calls go
// through the pool without it.
func openDatabase(cfg *config.Config, logger *slog.Logger) *gorm.DB {
	var db *gorm.DB
	var err error

	wait := time.Second
	for attempt := 1; attempt <= dbConnectAttempts; attempt++ {
		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err = config.OpenDB(initCtx, string(cfg.DatabaseURL))
		cancel()
		if err == nil {
			return db
		}

		logger.Warn("database not reachable", "attempt", attempt, "error", err)
		if attempt < dbConnectAttempts {
			time.Sleep(wait)
			wait *= 2
			if wait > dbConnectMaxBackoff {
				wait = dbConnectMaxBackoff
			}
		}
	}

	logger.Error("could not connect to the database, giving up", "error", err)
	os.Exit(1)
	return nil
}
