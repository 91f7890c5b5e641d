// cmd/worker-manager/health.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"room-redesign-workers/internal/common/camunda"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type readinessCheck func(ctx context.Context) error

func readinessChecks(zeebe *camunda.Client, s *stores) map[string]readinessCheck {
	checks := map[string]readinessCheck{
		"zeebe": zeebe.HealthCheck,
	}
	if s.pg != nil {
		checks["postgres"] = s.pg.Ping
	}
	if s.redis != nil {
		checks["redis"] = s.redis.Ping
	}
	if s.es != nil {
		checks["elasticsearch"] = s.es.Ping
	}
	return checks
}

func newHealthMux(checks map[string]readinessCheck, log *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.Warn("readiness check failed", zap.String("dependency", name), zap.Error(err))
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not ready"
		}
		writeJSON(w, status, map[string]interface{}{
			"status": state,
			"checks": results,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
