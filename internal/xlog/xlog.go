// Package xlog sets up structured logging on top of log/slog, extending it
// with severities the stdlib doesn't define (Notice below Warn; Critical,
// Alert and Emergency above Error), the way rclone's fs/log package extends slog with
// fs.SlogLevelNotice / fs.SlogLevelCritical (confirmed via
// fs/log/slog_test.go's TestSlogLevelToString).
package xlog

import (
	"context"
	"io"
	"log/slog"
)

const (
	LevelNotice   = slog.LevelInfo + 2
	LevelCritical = slog.LevelError + 4
	LevelAlert    = slog.LevelError + 8
	LevelEmergency = slog.LevelError + 12
)

// levelNames maps the custom levels (and the stdlib ones) to the
// upper-case names this module prints, matching the teacher's
// "WARNING"/"CRITICAL" convention rather than slog's default "WARN"/"ERROR".
var levelNames = map[slog.Level]string{
	slog.LevelDebug: "DEBUG",
	slog.LevelInfo:  "INFO",
	LevelNotice:     "NOTICE",
	slog.LevelWarn:  "WARNING",
	slog.LevelError: "ERROR",
	LevelCritical:   "CRITICAL",
	LevelAlert:      "ALERT",
	LevelEmergency:  "EMERGENCY",
}

func levelToString(l slog.Level) string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return l.String()
}

// mapLevelNames rewrites the slog.LevelKey attribute's value to our
// upper-case name instead of slog's own rendering.
func mapLevelNames(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(levelToString(lvl))
		}
	}
	return a
}

// New builds a *slog.Logger writing text-handler lines to w, with the
// module's level remapping applied and a minimum level of min.
func New(w io.Writer, min slog.Level) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       min,
		ReplaceAttr: mapLevelNames,
	})
	return slog.New(h)
}

// TaskWriter adapts an io.Writer into something a task's subprocess can
// write log lines to, so that the lines land both in the process log and
// in the task's own Task.logs buffer (§3, §7). It forwards every Write to
// both sinks.
type TaskWriter struct {
	Logger *slog.Logger
	Task   string
	Sink   func(line string)
}

func (t *TaskWriter) Write(p []byte) (int, error) {
	line := string(p)
	if t.Sink != nil {
		t.Sink(line)
	}
	t.Logger.Log(context.Background(), slog.LevelInfo, line, "task", t.Task)
	return len(p), nil
}
