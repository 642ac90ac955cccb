// Package main wires together the job ingestion service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	gcsclient "cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/api"
	"github.com/jobsift/jobsift/internal/clock/system"
	"github.com/jobsift/jobsift/internal/collect"
	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/extract"
	"github.com/jobsift/jobsift/internal/fetch"
	"github.com/jobsift/jobsift/internal/id/uuid"
	"github.com/jobsift/jobsift/internal/ingest"
	"github.com/jobsift/jobsift/internal/ledger"
	"github.com/jobsift/jobsift/internal/llm"
	"github.com/jobsift/jobsift/internal/logging"
	"github.com/jobsift/jobsift/internal/notify"
	"github.com/jobsift/jobsift/internal/pipeline"
	"github.com/jobsift/jobsift/internal/progress"
	"github.com/jobsift/jobsift/internal/progress/sinks"
	"github.com/jobsift/jobsift/internal/snapshot"
	snapgcs "github.com/jobsift/jobsift/internal/snapshot/gcs"
	snaplocal "github.com/jobsift/jobsift/internal/snapshot/local"
	snapmem "github.com/jobsift/jobsift/internal/snapshot/memory"
	storemem "github.com/jobsift/jobsift/internal/store/memory"
	storepg "github.com/jobsift/jobsift/internal/store/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("service failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	clock := system.New()
	ids := uuid.New()

	// persistence
	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	linkLedger, err := ledger.Open(cfg.Ledger.Path, logger.Named("ledger"))
	if err != nil {
		return fmt.Errorf("open link ledger: %w", err)
	}
	defer func() {
		if closeErr := linkLedger.Close(); closeErr != nil {
			logger.Warn("ledger close failed", zap.Error(closeErr))
		}
	}()

	blobStore, closeBlob, err := buildBlobStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBlob()
	archiver := snapshot.NewArchiver(blobStore, snapshot.ArchiverConfig{
		Prefix:      cfg.Snapshot.Prefix,
		ContentType: cfg.Snapshot.ContentType,
	}, clock, logger.Named("snapshot"))

	notifier, stopNotifier, err := buildNotifier(ctx, cfg, clock, logger)
	if err != nil {
		return err
	}
	defer stopNotifier()

	// progress fan-out
	promSink, err := sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register progress metrics: %w", err)
	}
	stateSink := sinks.NewStateSink()
	hub := progress.NewHub(progress.Config{Logger: logger.Named("progress")},
		sinks.NewLogSink(logger.Named("events")),
		promSink,
		stateSink,
	)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if closeErr := hub.Close(closeCtx); closeErr != nil {
			logger.Warn("progress hub close failed", zap.Error(closeErr))
		}
	}()

	// fetch path
	fetcher, err := fetch.NewClient(fetch.Config{
		UserAgent:      cfg.Fetch.UserAgent,
		RequestTimeout: cfg.FetchTimeout(),
		MaxBodyBytes:   cfg.Fetch.MaxBodyBytes,
		HostRPS:        cfg.Fetch.HostRPS,
		HostBurst:      cfg.Fetch.HostBurst,
	}, logger.Named("fetch"))
	if err != nil {
		return fmt.Errorf("build fetcher: %w", err)
	}

	var renderer ingest.Fetcher
	if cfg.Headless.Enabled {
		chromeRenderer, err := fetch.NewRenderer(fetch.RendererConfig{
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.Fetch.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		})
		if err != nil {
			logger.Warn("headless renderer init failed, promotion disabled", zap.Error(err))
		} else {
			renderer = chromeRenderer
			defer chromeRenderer.Close()
		}
	}
	detector := fetch.NewDetector(cfg.Headless.BodyThreshold)

	// extraction
	backend, err := buildBackend(cfg)
	if err != nil {
		return err
	}
	throttler := llm.NewThrottler(backend.Name(), cfg.LLM.MinDelay(), clock)
	retry := llm.RetryPolicy{MaxRetries: cfg.LLM.MaxRetries, BackoffFactor: cfg.LLM.BackoffFactor}
	extractor := extract.New(
		fetcher, renderer, detector, archiver, backend, throttler, retry,
		extract.Config{BaseRetryDelay: cfg.LLM.MinDelay(), MaxPromptChars: cfg.LLM.MaxPromptChars},
		logger.Named("extract"),
	)

	// LinkedIn search pages only yield cards through the renderer, so the
	// collector fetches through a router that honors per-request headless.
	collector := collect.New(fetch.NewRouter(fetcher, renderer),
		collect.Config{MaxPages: cfg.Pipeline.MaxPages}, logger.Named("collect"))

	orchestrator := pipeline.New(
		collector, extractor, store, linkLedger, notifier, hub, clock,
		pipeline.LinkedInConfig{
			Enabled:   cfg.Pipeline.LinkedIn.Enabled,
			Titles:    cfg.Pipeline.LinkedIn.Titles,
			SearchURL: cfg.Pipeline.LinkedIn.SearchURL,
		},
		logger.Named("pipeline"),
	)
	runner := pipeline.NewRunner(orchestrator, ids, cfg.Pipeline.QueueDepth, logger.Named("runner"))
	runner.Start(ctx)

	apiServer := api.NewServer(orchestrator, runner, stateSink, prometheus.DefaultGatherer, api.Config{
		Auth:           api.AuthConfig{Enabled: cfg.Auth.Enabled, APIKey: cfg.Auth.APIKey},
		DefaultSources: cfg.Pipeline.Sources,
	}, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	runner.Wait()
	logger.Info("shutdown complete")
	return nil
}

func buildStore(ctx context.Context, cfg config.Config) (ingest.JobStore, func(), error) {
	switch cfg.DB.Provider {
	case "postgres":
		store, err := storepg.NewJobStore(ctx, storepg.Config{
			DSN:      cfg.DB.DSN,
			MaxConns: int32(cfg.DB.MaxConns),
			MinConns: int32(cfg.DB.MinConns),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect job store: %w", err)
		}
		if err := store.Init(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("init job store: %w", err)
		}
		return store, store.Close, nil
	default:
		return storemem.NewJobStore(), func() {}, nil
	}
}

func buildBlobStore(ctx context.Context, cfg config.Config) (ingest.BlobStore, func(), error) {
	switch cfg.Snapshot.Provider {
	case "gcs":
		client, err := gcsclient.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("create gcs client: %w", err)
		}
		store, err := snapgcs.New(client, snapgcs.Config{Bucket: cfg.Snapshot.GCSBucket})
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("build gcs blob store: %w", err)
		}
		return store, func() { _ = client.Close() }, nil
	case "local":
		store, err := snaplocal.New(snaplocal.Config{BaseDir: cfg.Snapshot.LocalDir})
		if err != nil {
			return nil, nil, fmt.Errorf("build local blob store: %w", err)
		}
		return store, func() {}, nil
	default:
		return snapmem.NewBlobStore(), func() {}, nil
	}
}

func buildNotifier(ctx context.Context, cfg config.Config, clock ingest.Clock, logger *zap.Logger) (ingest.Notifier, func(), error) {
	if cfg.Notify.Provider == "pubsub" {
		client, err := pubsub.NewClient(ctx, cfg.Notify.ProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("create pubsub client: %w", err)
		}
		notifier, err := notify.NewPubSub(client, cfg.Notify.Topic, clock)
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("build pubsub notifier: %w", err)
		}
		return notifier, func() {
			notifier.Stop()
			_ = client.Close()
		}, nil
	}
	return notify.NewLog(logger.Named("notify")), func() {}, nil
}

func buildBackend(cfg config.Config) (llm.Backend, error) {
	switch cfg.LLM.Backend {
	case "openai":
		return llm.NewOpenAI(llm.OpenAIConfig{
			APIKey: cfg.LLM.OpenAIAPIKey,
			Model:  cfg.LLM.OpenAIModel,
		})
	default:
		return llm.NewGemini(llm.GeminiConfig{
			APIKey: cfg.LLM.GeminiAPIKey,
			Model:  cfg.LLM.GeminiModel,
		})
	}
}
