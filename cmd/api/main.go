package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rowvault/csvvault-backend/api/routes"
	"github.com/rowvault/csvvault-backend/internal/uploads"
	"github.com/rowvault/csvvault-backend/pkg/config"
	"github.com/rowvault/csvvault-backend/pkg/db"
	"github.com/rowvault/csvvault-backend/pkg/logger"
	"github.com/rowvault/csvvault-backend/pkg/metrics"
	"github.com/rowvault/csvvault-backend/pkg/migrate"
	"github.com/rowvault/csvvault-backend/pkg/redis"
	"github.com/rowvault/csvvault-backend/pkg/storage/s3"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	s3Client, err := s3.NewClient(context.Background(), cfg.S3, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap s3 client", err)
		os.Exit(1)
	}

	prepareBucket(context.Background(), cfg, logg, s3Client)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	uploadMetrics := metrics.NewUploadMetrics(registry)

	uploadsService, err := uploads.NewService(
		uploads.NewRepository(dbClient.DB()),
		s3Client,
		logg,
		uploadMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create uploads service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			s3Client,
			uploadsService,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// prepareBucket provisions the bucket for local runs and otherwise just logs
// whether it exists. Bucket state never blocks boot; uploads surface their own
// failures.
func prepareBucket(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *s3.Client) {
	bucketCtx := logg.WithField(ctx, "bucket", cfg.S3.BucketName)

	if cfg.App.IsLocal() {
		if err := client.EnsureBucket(ctx); err != nil {
			logg.Warn(logg.WithField(bucketCtx, "error", err.Error()), "could not ensure bucket, uploads may fail")
			return
		}
		logg.Info(bucketCtx, "bucket ready")
		return
	}

	exists, err := client.BucketExists(ctx)
	switch {
	case err != nil:
		logg.Warn(logg.WithField(bucketCtx, "error", err.Error()), "bucket check failed")
	case exists:
		logg.Info(bucketCtx, "bucket ready")
	default:
		logg.Warn(bucketCtx, "bucket missing, uploads will fail until it is created")
	}
}
