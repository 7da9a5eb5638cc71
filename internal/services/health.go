package services

import (
	"context"
	"time"

	apperrors "github.com/mbsadvocates/site/pkg/errors"
)

// Pinger checks datastore connectivity. *database.Gateway implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResult is the body of GET /health.
type HealthResult struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// HealthService implements the health check
type HealthService struct {
	name    string
	version string
	db      Pinger
}

// NewHealthService creates a new health service
func NewHealthService(name, version string, db Pinger) *HealthService {
	return &HealthService{name: name, version: version, db: db}
}

// Check reports liveness. The site stays healthy without a datastore;
// the database field says why listings may be empty.
func (s *HealthService) Check(ctx context.Context) HealthResult {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	database := "up"
	if err := s.db.Ping(ctx); err != nil {
		database = "down"
		if apperrors.IsUnavailable(err) {
			database = "unconfigured"
		}
	}
	return HealthResult{
		Status:   "healthy",
		Service:  s.name,
		Version:  s.version,
		Database: database,
	}
}
