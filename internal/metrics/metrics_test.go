package metrics_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"student-roster/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMock_IgnoresRecords(t *testing.T) {
	m := metrics.NewMock()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.Database.RecordQuery(ctx, "select", "students", time.Millisecond, errors.New("boom"))
		m.Roster.RecordStudentAdded(ctx)
		m.Roster.RecordImport(ctx, 3, 1)
		m.Roster.RecordExport(ctx, "students")
	})
}

func TestNew_UsesGlobalProvider(t *testing.T) {
	m, err := metrics.New("student-roster-test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.Database.RecordQuery(ctx, "insert", "students", 2*time.Millisecond, nil)
		m.Roster.RecordImport(ctx, 1, 0)
	})
}
