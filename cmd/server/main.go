package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"erpverify/internal/bootstrap"
	"erpverify/internal/config"
	"erpverify/internal/handler"
	"erpverify/internal/logger"
	"erpverify/internal/metrics"
	"erpverify/internal/notify"
	"erpverify/internal/notify/noop"
	"erpverify/internal/notify/ses"
	"erpverify/internal/pipeline"
	"erpverify/internal/port"
	natsqueue "erpverify/internal/queue/nats"
	"erpverify/internal/repository/postgres"
	"erpverify/internal/router"
	s3storage "erpverify/internal/storage/s3"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, &cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	resultRepo := postgres.NewVerificationResultRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(ctx, &cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	images := s3storage.NewImageStore(s3Client, cfg.S3.Bucket)

	// Result sinks: the repository first, then side channels
	sinks := pipeline.MultiSink{resultRepo}
	if cfg.S3.ArchiveBucket != "" {
		sinks = append(sinks, s3storage.NewArchiver(s3Client, cfg.S3.ArchiveBucket, zl))
	}

	notifier, err := newNotifier(ctx, &cfg.Email, zl)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}
	sinks = append(sinks, notify.NewSink(notifier, zl))

	var queue *natsqueue.Queue
	if cfg.Queue.Enabled {
		queue, err = natsqueue.New(&cfg.Queue, natsqueue.Options{}, zl)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer queue.Close()
		sinks = append(sinks, queue.Publisher())
	}

	m := metrics.New("erpverify")

	orch, err := bootstrap.NewOrchestrator(cfg, bootstrap.Extras{
		Images:  images,
		Sink:    sinks,
		Metrics: m,
	}, zl)
	if err != nil {
		return fmt.Errorf("failed to assemble pipeline: %w", err)
	}
	pool := pipeline.NewPool(orch, cfg.Pipeline.MaxConcurrency, zl)

	// Initialize handlers
	verificationH := handler.NewVerificationHandler(pool, resultRepo, cfg.Server.MaxBatchSize)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(zl, cfg.Server.CORSOrigins, m, verificationH, healthH)
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zl.Info("Server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	if queue != nil {
		g.Go(func() error {
			return queue.Serve(gctx, pool)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		zl.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zl.Error("HTTP server shutdown failed", zap.Error(err))
		}
		return pool.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newNotifier(ctx context.Context, cfg *config.EmailConfig, zl *zap.Logger) (port.Notifier, error) {
	if cfg.Provider == "ses" && cfg.NotifyAddress != "" {
		return ses.NewNotifier(ctx, cfg)
	}
	return noop.NewNotifier(zl), nil
}
