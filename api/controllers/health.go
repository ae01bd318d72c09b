package controllers

import (
	"context"
	"net/http"

	"github.com/rowvault/csvvault-backend/api/responses"
	"github.com/rowvault/csvvault-backend/pkg/config"
	pkgerrors "github.com/rowvault/csvvault-backend/pkg/errors"
	"github.com/rowvault/csvvault-backend/pkg/logger"
)

const envHeader = "X-CSVVault-Env"

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each dependency and reports per-dependency state. Any
// failing pinger degrades the endpoint to 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, objectStore, cache pinger) http.HandlerFunc {
	deps := []struct {
		name   string
		pinger pinger
	}{
		{"database", db},
		{"object_store", objectStore},
		{"redis", cache},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx := r.Context()
		states := make(map[string]string, len(deps))
		healthy := true
		for _, dep := range deps {
			if dep.pinger == nil {
				states[dep.name] = "not configured"
				continue
			}
			if err := dep.pinger.Ping(ctx); err != nil {
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", dep.name), "readiness check failed", err)
				}
				states[dep.name] = "unreachable"
				healthy = false
				continue
			}
			states[dep.name] = "ok"
		}

		if !healthy {
			err := pkgerrors.New(pkgerrors.CodeDependency, "service not ready").
				WithDetails(states)
			responses.WriteError(ctx, nil, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "dependencies": states})
	}
}
