package scheduler

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

type entry struct {
	task     Task
	enabled  bool
	schedule cron.Schedule
	id       cron.EntryID
	inFlight atomic.Bool

	mu       sync.Mutex
	runs     int
	failures int
	skipped  int
	lastRun  time.Time
	lastErr  string
}

func (e *entry) record(start time.Time, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runs++
	e.lastRun = start
	e.lastErr = ""
	if err != nil {
		e.failures++
		e.lastErr = err.Error()
	}
}

func (e *entry) recordSkip() {
	e.mu.Lock()
	e.skipped++
	e.mu.Unlock()
}

func (e *entry) status() TaskStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	ts := TaskStatus{
		Name:      e.task.Name,
		Trigger:   e.task.Trigger.String(),
		Enabled:   e.enabled,
		InFlight:  e.inFlight.Load(),
		Runs:      e.runs,
		Failures:  e.failures,
		Skipped:   e.skipped,
		LastError: e.lastErr,
	}
	if !e.lastRun.IsZero() {
		last := e.lastRun
		ts.LastRun = &last
	}
	return ts
}

// cronLogger routes robfig/cron diagnostics to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
