package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neura/fraudshield/internal/application"
	"github.com/neura/fraudshield/internal/application/intercept"
	appscans "github.com/neura/fraudshield/internal/application/scans"
	"github.com/neura/fraudshield/internal/config"
	"github.com/neura/fraudshield/internal/domain/alerts"
	domain "github.com/neura/fraudshield/internal/domain/scans"
	"github.com/neura/fraudshield/internal/infra/classifier/httpapi"
	oaiclassifier "github.com/neura/fraudshield/internal/infra/classifier/openai"
	mysqlp "github.com/neura/fraudshield/internal/infra/db/mysql"
	postgresp "github.com/neura/fraudshield/internal/infra/db/postgres"
	"github.com/neura/fraudshield/internal/infra/httpserver"
	"github.com/neura/fraudshield/internal/infra/notify"
	minioStore "github.com/neura/fraudshield/internal/infra/storage"
	"github.com/neura/fraudshield/internal/middleware"
)

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// history store, driver-selectable
	var (
		db   *sql.DB
		repo domain.Repository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		repo = postgresp.NewHistoryRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		repo = mysqlp.NewHistoryRepository(db)
	}
	defer db.Close()

	// classifier backend
	var classifier domain.Classifier
	switch cfg.Classifier.Backend {
	case "openai":
		classifier = oaiclassifier.NewClient(cfg.Classifier.OpenAIAPIKey, cfg.Classifier.OpenAIModel)
	default:
		classifier = httpapi.NewClient(cfg.Classifier.BaseURL, cfg.Classifier.Timeout)
	}

	// evidence archive, optional
	var evidence domain.EvidenceStore
	if cfg.Evidence.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Evidence.Endpoint,
			cfg.Evidence.Region,
			cfg.Evidence.BucketName,
			cfg.Evidence.AccessKey,
			cfg.Evidence.SecretKey,
			cfg.Evidence.UseSSL,
		)
		if err != nil {
			log.Fatalf("evidence store init error: %v", err)
		}
		evidence = store
	}

	// alert sinks
	var sinks []alerts.Sink
	if cfg.Alerts.WebhookURL != "" {
		sink, err := notify.NewWebhookSink(cfg.Alerts.WebhookURL, cfg.Alerts.Headers, 0)
		if err != nil {
			log.Fatalf("alert webhook init error: %v", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Alerts.FilePath != "" {
		sink, err := notify.NewFileSink(cfg.Alerts.FilePath)
		if err != nil {
			log.Fatalf("alert file sink init error: %v", err)
		}
		sinks = append(sinks, sink)
	}
	emitter := notify.NewEmitter(notify.EmitterConfig{
		QueueSize: cfg.Alerts.QueueSize,
		Workers:   cfg.Alerts.Workers,
	}, sinks)

	svc := &appscans.Service{
		Classifier: classifier,
		Repo:       repo,
		Evidence:   evidence,
		Clock:      application.SystemClock{},
	}

	interceptor := &intercept.Service{
		Scans:  svc,
		Alerts: emitter,
		Clock:  application.SystemClock{},
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Capacity > 0 && cfg.RateLimit.RefillRate > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
	}

	handler := httpserver.NewRouter(svc, interceptor, httpserver.Options{
		APIKeys: cfg.Server.APIKeys,
		HealthCheckers: map[string]middleware.HealthChecker{
			"database": &middleware.DatabaseHealthChecker{DB: db},
		},
		AlertMetrics:   emitter.MetricsSnapshot,
		InboundLimiter: limiter,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening addr=%s driver=%s classifier=%s", addr, cfg.Database.Driver, cfg.Classifier.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	emitter.Close(shutdownCtx)
}
