package controllers

import (
	"net/http"

	"github.com/merchantpulse/pricing-backend/api/responses"
	"github.com/merchantpulse/pricing-backend/pkg/config"
	"github.com/merchantpulse/pricing-backend/pkg/db"
	"github.com/merchantpulse/pricing-backend/pkg/logger"
	"github.com/merchantpulse/pricing-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MerchantPulse-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MerchantPulse-Env", cfg.App.Env)

		checks := map[string]string{
			"database": "ok",
			"redis":    "ok",
		}
		healthy := true

		if dbP == nil {
			checks["database"] = "unconfigured"
			healthy = false
		} else if err := dbP.Ping(r.Context()); err != nil {
			if logg != nil {
				logg.Error(r.Context(), "health.database", err)
			}
			checks["database"] = "unreachable"
			healthy = false
		}

		if redisP == nil {
			checks["redis"] = "unconfigured"
			healthy = false
		} else if err := redisP.Ping(r.Context()); err != nil {
			if logg != nil {
				logg.Error(r.Context(), "health.redis", err)
			}
			checks["redis"] = "unreachable"
			healthy = false
		}

		status := http.StatusOK
		label := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			label = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": label,
			"checks": checks,
		})
	}
}
