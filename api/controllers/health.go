package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/ashasetu/ashasetu-backend/api/responses"
	"github.com/ashasetu/ashasetu-backend/pkg/config"
	pkgerrors "github.com/ashasetu/ashasetu-backend/pkg/errors"
	"github.com/ashasetu/ashasetu-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const readyTimeout = 2 * time.Second

// Pinger is any dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AshaSetu-Env", cfg.App.Env)
		responses.WriteMessage(w, http.StatusOK, "live")
	}
}

// HealthReady pings every configured dependency concurrently; nil pingers are
// skipped so optional backends (Redis) do not fail readiness when disabled.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AshaSetu-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			g.Go(func() error {
				if err := dep.Ping(gctx); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").
						WithDetails(map[string]any{"step": "ready." + name})
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "ready")
	}
}
