// Package logger provides opinionated logging for the parley system.
//
// Everything speaks *slog.Logger so callers never depend on a concrete
// handler. New builds text, JSON, or pretty (charmbracelet) handlers from
// options; Nop discards everything; Multi fans out to several loggers.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	charm "github.com/charmbracelet/log"
)

type config struct {
	level   slog.Level
	pretty  bool
	json    bool
	source  bool
	writers []io.Writer
}

// New creates a *slog.Logger from the given options. Defaults: Info level,
// text handler, os.Stdout.
func New(opts ...Option) *slog.Logger {
	cfg := &config{
		level:   slog.LevelInfo,
		writers: []io.Writer{os.Stdout},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	out := io.MultiWriter(cfg.writers...)

	var handler slog.Handler
	switch {
	case cfg.pretty:
		charmLevel := charm.InfoLevel
		if cfg.level == slog.LevelDebug {
			charmLevel = charm.DebugLevel
		}

		handler = charm.NewWithOptions(out, charm.Options{
			Level:        charmLevel,
			ReportCaller: cfg.source,
		})
	case cfg.json:
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:     cfg.level,
			AddSource: cfg.source,
		})
	default:
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{
			Level:     cfg.level,
			AddSource: cfg.source,
		})
	}

	return slog.New(handler)
}

// Nop returns a logger that discards every record.
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }
