package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/plasa/shopper-settlement/api/responses"
	"github.com/plasa/shopper-settlement/pkg/config"
	pkgerrors "github.com/plasa/shopper-settlement/pkg/errors"
	"github.com/plasa/shopper-settlement/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is any dependency the readiness probe can reach.
type Pinger interface {
	Ping(context.Context) error
}

// ReadinessChecks names the dependencies probed by /health/ready. Nil entries are skipped.
type ReadinessChecks struct {
	DB       Pinger
	Redis    Pinger
	BigQuery Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Plasa-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, checks ReadinessChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Plasa-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		deps := map[string]string{}
		var failed bool
		for _, check := range []struct {
			name   string
			pinger Pinger
		}{
			{"db", checks.DB},
			{"redis", checks.Redis},
			{"bigquery", checks.BigQuery},
		} {
			if check.pinger == nil {
				continue
			}
			if err := check.pinger.Ping(ctx); err != nil {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{"dependency": check.name, "error": err.Error()}), "readiness check failed")
				}
				deps[check.name] = "down"
				failed = true
				continue
			}
			deps[check.name] = "up"
		}

		if failed {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(deps))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "dependencies": deps})
	}
}
