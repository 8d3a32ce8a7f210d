package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/casting-agency/jwks"
	"github.com/upb/casting-agency/utils"
	"go.uber.org/zap"
)

// KeyStats reports the state of the signing key cache
type KeyStats interface {
	Stats() jwks.Stats
}

// DatabaseChecker verifies the database answers queries
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     DatabaseChecker
	keys   KeyStats
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db may be nil when no database
// is configured, keys when token verification is disabled.
func NewHealthHandler(db DatabaseChecker, keys KeyStats, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		keys:   keys,
		logger: logger,
	}
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
// Readiness depends on the database. The key cache is reported but never
// fails readiness, since an empty cache fills on the first request.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		healthy = false
	} else {
		checks["database"] = "healthy"
	}

	body := map[string]interface{}{
		"success":   healthy,
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}

	if h.keys != nil {
		stats := h.keys.Stats()
		body["signing_keys"] = stats
		if stats.Keys > 0 {
			checks["signing_keys"] = "loaded"
		} else {
			checks["signing_keys"] = "empty"
		}
	}

	status := http.StatusOK
	if !healthy {
		body["status"] = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	if err := utils.WriteJSON(w, status, body); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// checkDatabase checks database connectivity
func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil // No database configured
	}
	return h.db.HealthCheck(ctx)
}
