package services

import (
	"context"
	"log/slog"
	"time"

	"salesview/internal/dataset"
	"salesview/pkg/contracts"
)

// HealthService reports process liveness and readiness
type HealthService struct {
	logger    *slog.Logger
	cache     *dataset.Cache
	startTime time.Time
}

// NewHealthService creates a new health service
func NewHealthService(logger *slog.Logger, cache *dataset.Cache) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		logger:    logger.With(slog.String("service", "health")),
		cache:     cache,
		startTime: time.Now(),
	}
}

// HealthCheck returns the overall service status. The service is healthy
// whether or not a dataset has been uploaded; dataset_loaded is
// informational.
func (s *HealthService) HealthCheck(ctx context.Context) map[string]interface{} {
	_, loaded := s.cache.Current()
	return map[string]interface{}{
		"status":         "healthy",
		"version":        contracts.Version,
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"dataset_loaded": loaded,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}
}

// LivenessCheck reports that the process is running
func (s *HealthService) LivenessCheck(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}

// Version returns build version information
func (s *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}
