package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Activity records import and export operations as JSON lines in a
// rotating file, separate from the process log.
type Activity struct {
	log    *slog.Logger
	closer io.Closer
}

type ActivityOptions struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewActivity opens the rotating activity log. An empty file disables it.
func NewActivity(opts ActivityOptions) (*Activity, error) {
	if opts.File == "" {
		return NewActivityWriter(io.Discard), nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, fmt.Errorf("create activity log directory: %w", err)
	}

	return NewActivityWriter(&lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
	}), nil
}

func NewActivityWriter(w io.Writer) *Activity {
	a := &Activity{
		log: slog.New(newRequestContextHandler(slog.NewJSONHandler(w, nil))),
	}
	if c, ok := w.(io.Closer); ok {
		a.closer = c
	}
	return a
}

func (a *Activity) Import(ctx context.Context, batchID string, succeeded, failed int) {
	if a == nil {
		return
	}
	a.log.InfoContext(ctx, "IMPORT",
		"batch_id", batchID,
		"success", succeeded,
		"errors", failed,
	)
}

func (a *Activity) Export(ctx context.Context, kind string, records int) {
	if a == nil {
		return
	}
	a.log.InfoContext(ctx, "EXPORT",
		"type", kind,
		"records", records,
	)
}

func (a *Activity) Close() error {
	if a == nil || a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
