package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewWithWriter_JSONAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	var ctx context.Context
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, ctx)

	log.InfoContext(ctx, "student added", "student_id", "S1")

	out := buf.String()
	assert.Contains(t, out, `"msg":"student added"`)
	assert.Contains(t, out, `"request_id":`)
	assert.Contains(t, out, `"student_id":"S1"`)
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "text")

	log.Info("hidden")
	log.Error("boom")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "\x1b[31mboom\x1b[0m")
}

func TestFromContext_WithoutRequestID(t *testing.T) {
	base := slog.Default()
	assert.Same(t, base, FromContext(context.Background(), base))
}

func TestActivity_JSONLines(t *testing.T) {
	var buf bytes.Buffer
	a := NewActivityWriter(&buf)

	a.Import(context.Background(), "batch-1", 3, 1)
	a.Export(context.Background(), "students_all", 12)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var imp map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &imp))
	assert.Equal(t, "IMPORT", imp["msg"])
	assert.Equal(t, "batch-1", imp["batch_id"])
	assert.EqualValues(t, 3, imp["success"])
	assert.EqualValues(t, 1, imp["errors"])

	var exp map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &exp))
	assert.Equal(t, "EXPORT", exp["msg"])
	assert.Equal(t, "students_all", exp["type"])
	assert.EqualValues(t, 12, exp["records"])
}

func TestNewActivity_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "app.log")

	a, err := NewActivity(ActivityOptions{File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	a.Import(context.Background(), "b", 1, 0)
	require.NoError(t, a.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"IMPORT"`)
}

func TestActivity_NilSafe(t *testing.T) {
	var a *Activity
	a.Import(context.Background(), "b", 0, 0)
	a.Export(context.Background(), "x", 0)
	assert.NoError(t, a.Close())
}

func TestMiddleware_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "json")

	h := middleware.RequestID(Middleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/students", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "/api/students", entry["path"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}
