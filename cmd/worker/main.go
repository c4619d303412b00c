// Command worker consumes index tasks from the Redpanda queue and builds the
// search artifacts for uploaded resumes.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fairyhunter13/resume-ranker/internal/adapter/observability"
	"github.com/fairyhunter13/resume-ranker/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/resume-ranker/internal/adapter/repo/postgres"
	qdrantcli "github.com/fairyhunter13/resume-ranker/internal/adapter/vector/qdrant"
	"github.com/fairyhunter13/resume-ranker/internal/app"
	"github.com/fairyhunter13/resume-ranker/internal/config"
	"github.com/fairyhunter13/resume-ranker/internal/extract"
	"github.com/fairyhunter13/resume-ranker/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Dedicated /metrics endpoint so Prometheus can scrape job-queue metrics
	// from the worker process.
	observability.InitMetrics()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", mux); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	app.LoadSkillVocabularyOverlay(cfg, extract.ExtendSkillVocabulary)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		slog.Error("schema migration failed", slog.Any("error", err))
		os.Exit(1)
	}
	repo := postgres.NewResumeRepo(pool)

	aicl, rdb := app.BuildAIClient(cfg)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	var qcli *qdrantcli.Client
	if cfg.QdrantURL != "" {
		qcli = qdrantcli.New(cfg.QdrantURL, cfg.QdrantAPIKey)
	}
	app.EnsureResumeCollection(ctx, qcli, aicl, cfg.QdrantCollection)

	var vec usecase.VectorIndex
	if qcli != nil {
		vec = qcli
	}
	parseSvc := usecase.NewParseService(repo, aicl)
	indexSvc := usecase.NewIndexService(repo, aicl, parseSvc, vec, cfg.QdrantCollection)

	consumer, err := redpanda.NewConsumer(
		cfg.KafkaBrokers,
		cfg.KafkaGroupID,
		cfg.ConsumerMaxConcurrency,
		indexSvc.ProcessIndexTask,
		logger,
	)
	if err != nil {
		slog.Error("redpanda consumer init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer consumer.Close()

	slog.Info("worker started", slog.String("group_id", cfg.KafkaGroupID))
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("consumer stopped", slog.Any("error", err))
	}
	slog.Info("worker stopped")
}
