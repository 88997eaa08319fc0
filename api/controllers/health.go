package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/bagaspradana/tokoadmin-backend/api/responses"
	"github.com/bagaspradana/tokoadmin-backend/pkg/config"
	"github.com/bagaspradana/tokoadmin-backend/pkg/db"
	pkgerrors "github.com/bagaspradana/tokoadmin-backend/pkg/errors"
	"github.com/bagaspradana/tokoadmin-backend/pkg/logger"
	"github.com/bagaspradana/tokoadmin-backend/pkg/redis"
	"github.com/bagaspradana/tokoadmin-backend/pkg/storage/gcs"
)

const readyCheckTimeout = 5 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TokoAdmin-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every hard dependency and reports the first
// failure. Nil pingers are skipped so partial wiring still works in
// tests.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger, gcsP gcs.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TokoAdmin-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		checks := []struct {
			name   string
			pinger interface {
				Ping(context.Context) error
			}
		}{
			{"database", dbP},
			{"redis", redisP},
			{"gcs", gcsP},
		}

		for _, check := range checks {
			if check.pinger == nil {
				continue
			}
			if err := check.pinger.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ping "+check.name).
						WithDetails(map[string]any{"dependency": check.name}))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
