// Package health provides health checking functionality for the catalog server.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/medicine-inventory/interfaces"
	"github.com/giygas/medicine-inventory/scheduler"
)

// Health states reported by HealthCheck
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// StaleAfter is the data age past which the catalog is reported as degraded
const StaleAfter = 48 * time.Hour

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
	reloadAt  string
	now       func() time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(dataStore interfaces.DataStore, reloadAt string) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore: dataStore,
		reloadAt:  reloadAt,
		now:       time.Now,
	}
}

// HealthCheck returns the catalog health and the HTTP code /health answers with.
// An empty catalog is unhealthy; data older than StaleAfter is degraded.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	count := h.dataStore.Count()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()

	dataAge := h.now().Sub(lastUpdate)

	switch {
	case count == 0:
		status = StatusUnhealthy
		httpStatus = http.StatusServiceUnavailable

	case dataAge > StaleAfter:
		status = StatusDegraded
		httpStatus = http.StatusServiceUnavailable

	default:
		status = StatusHealthy
		httpStatus = http.StatusOK
	}

	// Build response data (no system metrics, only data-related fields)
	data = map[string]any{
		"last_update":    lastUpdate.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"medicines":      count,
		"is_updating":    isUpdating,
		"next_update":    h.CalculateNextUpdate().Format(time.RFC3339),
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled reload time
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	return scheduler.NextReload(h.now(), h.reloadAt)
}
