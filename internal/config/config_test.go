package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"student-roster/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "unit")

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "unit", cfg.Env)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/students.db", cfg.Database.Path)
	assert.Equal(t, 2.0, cfg.Roster.AtRiskThreshold)
	assert.Equal(t, 10, cfg.Roster.TopPerformersLimit)
	assert.Equal(t, []int{100, 200, 300, 400, 500, 600, 700}, cfg.Roster.Levels)
	assert.Contains(t, cfg.Roster.Programmes, "Computer Science")
	assert.Equal(t, "data/app.log", cfg.Logging.ActivityFile)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: "9090"
roster:
  programmes:
    - Nursing
    - Law
  at_risk_threshold: 1.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.unit.yaml"), []byte(yaml), 0o644))

	t.Setenv("ENV", "unit")
	t.Setenv("ROSTER_TOP_PERFORMERS_LIMIT", "25")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DB_USER", "roster")

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"Nursing", "Law"}, cfg.Roster.Programmes)
	assert.Equal(t, 1.5, cfg.Roster.AtRiskThreshold)
	assert.Equal(t, 25, cfg.Roster.TopPerformersLimit)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "roster", cfg.Database.User)

	rules := cfg.Roster.Rules()
	assert.Equal(t, []string{"Nursing", "Law"}, rules.Programmes)
}

func TestLoad_RejectsInvalidThreshold(t *testing.T) {
	t.Setenv("ENV", "unit")
	t.Setenv("ROSTER_AT_RISK_THRESHOLD", "4.5")

	_, err := config.Load(t.TempDir())
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("ENV", "unit")
	t.Setenv("DATABASE_DRIVER", "oracle")

	_, err := config.Load(t.TempDir())
	assert.Error(t, err)
}

func TestLoad_Metrics(t *testing.T) {
	t.Setenv("ENV", "unit")

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "localhost:4317", cfg.Metrics.Endpoint)
	assert.Equal(t, 10, cfg.Metrics.IntervalSeconds)

	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "127.0.0.1:14317")

	cfg, err = config.Load(t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:14317", cfg.Metrics.Endpoint)
}

func TestValidate_MetricsEndpointRequiredWhenEnabled(t *testing.T) {
	t.Setenv("ENV", "unit")

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	cfg.Metrics.Enabled = true
	cfg.Metrics.Endpoint = ""
	assert.Error(t, cfg.Validate())

	cfg.Metrics.Enabled = false
	assert.NoError(t, cfg.Validate())
}
