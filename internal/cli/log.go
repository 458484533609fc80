// Package cli implements the ifcwatch command-line interface.
//
// ifcwatch hosts the watch and geometry nodes of an IFC pipeline outside the
// graph editor: it loads payloads from files or an HTTP feed, persists node
// state, and draws the nodes in the terminal. The CLI is built using cobra
// and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - render: Print one frame of a watch node for a payload file
//   - watch: Host an interactive watch node that reloads on file changes
//   - geometry: Print a geometry-summary node
//   - serve: Accept payloads and status over HTTP
//   - state: Inspect or reset persisted node data
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// registers logging observability hooks. Loggers are passed through
// context.Context. While the interactive node owns the terminal, logs go to
// a file instead (--log-file).
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ifcwatch/pkg/errors"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// stopwatch tracks the start time of an operation and logs completion with elapsed duration.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
}

// newStopwatch creates a stopwatch that captures the current time as start.
func newStopwatch(l *log.Logger) *stopwatch {
	return &stopwatch{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since the stopwatch was created.
// Example output: "Loaded walls.json (12ms)"
func (p *stopwatch) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// openLogFile opens path for appending, creating its directory. An empty
// path uses ifcwatch.log in the state directory.
func openLogFile(path string) (*os.File, error) {
	if path == "" {
		dir, err := stateDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "locate state dir")
		}
		path = filepath.Join(dir, appName+".log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create log dir")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open log file %s", path)
	}
	return f, nil
}
