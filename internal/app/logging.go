package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dshills/tessera/internal/config"
)

// discardHandler drops every record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

// newLogger builds the application logger. The terminal belongs to the
// UI, so records only ever go to the configured file; without one the
// logger discards everything. The returned closer is nil when no file was
// opened.
func newLogger(s config.LoggingSettings, level *slog.LevelVar) (*slog.Logger, io.Closer, error) {
	level.Set(s.Level)
	if s.File == "" {
		return slog.New(discardHandler{}), nil, nil
	}

	f, err := os.OpenFile(s.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(h), f, nil
}
