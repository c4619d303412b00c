// Command server starts the resume ranker HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpserver "github.com/fairyhunter13/resume-ranker/internal/adapter/httpserver"
	"github.com/fairyhunter13/resume-ranker/internal/adapter/observability"
	"github.com/fairyhunter13/resume-ranker/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/resume-ranker/internal/adapter/repo/postgres"
	tikaext "github.com/fairyhunter13/resume-ranker/internal/adapter/textextractor/tika"
	qdrantcli "github.com/fairyhunter13/resume-ranker/internal/adapter/vector/qdrant"
	"github.com/fairyhunter13/resume-ranker/internal/app"
	"github.com/fairyhunter13/resume-ranker/internal/config"
	"github.com/fairyhunter13/resume-ranker/internal/extract"
	"github.com/fairyhunter13/resume-ranker/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

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

	ctx := context.Background()
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

	producer, err := redpanda.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("redpanda producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = producer.Close() }()

	aicl, rdb := app.BuildAIClient(cfg)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	var qcli *qdrantcli.Client
	if cfg.QdrantURL != "" {
		qcli = qdrantcli.New(cfg.QdrantURL, cfg.QdrantAPIKey)
	}
	app.EnsureResumeCollection(ctx, qcli, aicl, cfg.QdrantCollection)

	ext := tikaext.New(cfg.TikaURL)

	var vec usecase.VectorIndex
	if qcli != nil {
		vec = qcli
	}
	uploadSvc := usecase.NewUploadService(repo, producer, ext)
	parseSvc := usecase.NewParseService(repo, aicl)
	indexSvc := usecase.NewIndexService(repo, aicl, parseSvc, vec, cfg.QdrantCollection)
	searchSvc := usecase.NewSearchService(repo, aicl, logger)
	if qcli != nil {
		searchSvc.UseVectorBackend(qcli, cfg.QdrantCollection)
	}
	scoreSvc := usecase.NewScoreService(repo)

	refreshCtx, stopRefresh := context.WithCancel(ctx)
	defer stopRefresh()
	go searchSvc.RunRefresher(refreshCtx, cfg.CorpusRefreshInterval)

	srv := httpserver.NewServer(cfg, uploadSvc, parseSvc, indexSvc, searchSvc, scoreSvc)
	srv.DBCheck, srv.RedisCheck, srv.QdrantCheck, srv.TikaCheck = app.BuildReadinessChecks(cfg, pool, rdb)

	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
