package services

import (
	"log/slog"
	"time"
)

// HealthStatus is the liveness/readiness summary served at /api/health.
type HealthStatus struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	BuildTime string    `json:"build_time"`
	StartedAt time.Time `json:"started_at"`
	Uptime    string    `json:"uptime"`

	DataCacheEntries int `json:"data_cache_entries"`
	APICacheEntries  int `json:"api_cache_entries"`
}

// HealthService reports process health and cache population.
type HealthService struct {
	version   string
	buildTime string
	startedAt time.Time
	cot       *COTService
	logger    *slog.Logger
}

// NewHealthService creates a health service stamped with build metadata.
func NewHealthService(version, buildTime string, cot *COTService, logger *slog.Logger) *HealthService {
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		startedAt: time.Now(),
		cot:       cot,
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// Check returns the current health summary. The gateway has no hard
// dependencies to probe at request time; upstream reachability shows up
// in query envelopes as source=error, not as process unhealthiness.
func (h *HealthService) Check() HealthStatus {
	status := h.cot.Status()
	return HealthStatus{
		Status:           "healthy",
		Version:          h.version,
		BuildTime:        h.buildTime,
		StartedAt:        h.startedAt,
		Uptime:           time.Since(h.startedAt).Round(time.Second).String(),
		DataCacheEntries: status.DataCache.ValidEntries,
		APICacheEntries:  status.APICache.ValidEntries,
	}
}
