package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Togather-Foundation/eventcal/internal/domain/events"
	"github.com/Togather-Foundation/eventcal/internal/metrics"
)

// HealthCheck is the readiness report served on /health.
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

type HealthChecker struct {
	service   *events.Service
	stats     metrics.StatsSource
	driver    string
	version   string
	gitCommit string
}

func NewHealthChecker(service *events.Service, stats metrics.StatsSource, driver, version, gitCommit string) *HealthChecker {
	return &HealthChecker{
		service:   service,
		stats:     stats,
		driver:    driver,
		version:   version,
		gitCommit: gitCommit,
	}
}

func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The server is shutting down.
		if r.Context().Err() != nil {
			respondHealth(w, http.StatusServiceUnavailable, "shutting_down")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]CheckResult{
			"database": h.checkDatabase(ctx),
		}

		status := "healthy"
		code := http.StatusOK
		for _, check := range checks {
			if check.Status == "fail" {
				status = "unhealthy"
				code = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(HealthCheck{
			Status:    status,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.service == nil {
		return CheckResult{Status: "fail", Message: "Event store not initialized"}
	}

	dbCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.service.Ping(dbCtx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return CheckResult{
			Status:    "fail",
			Message:   "Database ping failed",
			LatencyMs: latency,
			Details: map[string]any{
				"driver": h.driver,
				"error":  err.Error(),
			},
		}
	}

	details := map[string]any{"driver": h.driver}
	if h.stats != nil {
		stat := h.stats.Stats()
		details["open_connections"] = stat.Open
		details["in_use_connections"] = stat.InUse
		details["idle_connections"] = stat.Idle
		details["max_connections"] = stat.MaxOpen
	}
	return CheckResult{
		Status:    "pass",
		Message:   "Database reachable",
		LatencyMs: latency,
		Details:   details,
	}
}

// Healthz is the liveness probe; it never touches the database.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondHealth(w, http.StatusOK, "ok")
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

func respondHealth(w http.ResponseWriter, status int, value string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: value})
}
