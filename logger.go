package viz

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip attribute formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called while a frame is evaluating expressions.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for viz and all its sub-packages.
// By default, viz produces no log output. Pass nil to restore the
// silent default.
//
// Log levels used by viz:
//   - [slog.LevelDebug]: binding, hot property updates, program assembly, frees
//   - [slog.LevelInfo]: render session creation
//   - [slog.LevelWarn]: non-fatal issues (degenerate ranges, double releases)
//
// Example:
//
//	viz.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by viz.
// Sub-packages (dataframe/, expr/, gpu/, metadata/) call this to share the
// same logger configuration without introducing import cycles.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
