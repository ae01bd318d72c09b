package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rowvault/csvvault-backend/api/controllers"
	"github.com/rowvault/csvvault-backend/api/middleware"
	"github.com/rowvault/csvvault-backend/internal/uploads"
	"github.com/rowvault/csvvault-backend/pkg/config"
	"github.com/rowvault/csvvault-backend/pkg/db"
	"github.com/rowvault/csvvault-backend/pkg/logger"
	"github.com/rowvault/csvvault-backend/pkg/redis"
	"github.com/rowvault/csvvault-backend/pkg/storage/s3"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	storeP s3.Pinger,
	uploadsService uploads.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	uploadPolicy := middleware.NewUploadRateLimitPolicy(
		cfg.Upload.RateLimitWindow,
		cfg.Upload.RateLimitPerIP,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, storeP, cachePinger(redisClient)))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Get("/", controllers.Index(uploadsService, logg))
	r.With(middleware.UploadRateLimit(uploadPolicy, limiterStore(redisClient), logg)).
		Post("/upload", controllers.UploadFile(uploadsService, cfg.Upload.MaxUploadBytes(), logg))
	r.Route("/files", func(r chi.Router) {
		r.Get("/", controllers.ListFiles(uploadsService, logg))
		r.Get("/{fileID}", controllers.GetFile(uploadsService, logg))
	})

	return r
}

// cachePinger avoids wrapping a nil *redis.Client in a non-nil interface.
func cachePinger(c *redis.Client) redis.Pinger {
	if c == nil {
		return nil
	}
	return c
}

func limiterStore(c *redis.Client) middleware.RateLimiterStore {
	if c == nil {
		return nil
	}
	return c
}
