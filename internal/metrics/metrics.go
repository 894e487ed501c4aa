package metrics

import (
	"log/slog"

	"go.opentelemetry.io/otel"
)

type Metrics struct {
	Database *DatabaseMetrics
	Roster   *RosterMetrics
	logger   *slog.Logger
}

// New builds the collectors on the global meter provider. Without an SDK
// provider installed the instruments are no-ops.
func New(serviceName string, logger *slog.Logger) (*Metrics, error) {
	meter := otel.Meter(serviceName)

	database, err := NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	roster, err := NewRosterMetrics(meter)
	if err != nil {
		return nil, err
	}

	logger.Info("metrics collectors initialized successfully")

	return &Metrics{
		Database: database,
		Roster:   roster,
		logger:   logger,
	}, nil
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{
		Database: &DatabaseMetrics{},
		Roster:   &RosterMetrics{},
	}
}
