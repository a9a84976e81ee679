package controllers

import (
	"context"
	"net/http"

	"github.com/Yashop965/CamPass/api/responses"
	"github.com/Yashop965/CamPass/pkg/config"
	pkgerrors "github.com/Yashop965/CamPass/pkg/errors"
	"github.com/Yashop965/CamPass/pkg/logger"
)

const envHeader = "X-CamPass-Env"

// Pinger is implemented by the database, Redis and Pub/Sub clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every wired dependency answers a ping.
// Nil dependencies are skipped so workers with a narrower stack can reuse it.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP, pubsubP Pinger) http.HandlerFunc {
	deps := []struct {
		name string
		ping Pinger
	}{
		{"database", dbP},
		{"redis", redisP},
		{"pubsub", pubsubP},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		for _, dep := range deps {
			if dep.ping == nil {
				continue
			}
			if err := dep.ping.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, dep.name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
