package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/ecomops/logiscan-backend/api/responses"
	"github.com/ecomops/logiscan-backend/pkg/config"
	"github.com/ecomops/logiscan-backend/pkg/db"
	pkgerrors "github.com/ecomops/logiscan-backend/pkg/errors"
	"github.com/ecomops/logiscan-backend/pkg/logger"
	"github.com/ecomops/logiscan-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LogiScan-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when every backing dependency answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	type dependency struct {
		name string
		ping func(context.Context) error
	}

	deps := make([]dependency, 0, 2)
	if dbP != nil {
		deps = append(deps, dependency{name: "postgres", ping: dbP.Ping})
	}
	if redisP != nil {
		deps = append(deps, dependency{name: "redis", ping: redisP.Ping})
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LogiScan-Env", cfg.App.Env)

		checks := make(map[string]string, len(deps))
		for _, dep := range deps {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			err := dep.ping(ctx)
			cancel()
			if err != nil {
				checks[dep.name] = "unreachable"
				if logg != nil {
					logg.Error(r.Context(), "readiness check failed for "+dep.name, err)
				}
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, dep.name+" not ready"))
				return
			}
			checks[dep.name] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
