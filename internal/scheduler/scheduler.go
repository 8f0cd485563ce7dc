package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/mtlprog/lpmon/internal/metrics"
)

// Handler is the body of a scheduled task.
type Handler func(ctx context.Context) error

// Task is a named unit of periodic work.
type Task struct {
	Name    string
	Trigger Trigger
	Handler Handler
}

// TaskStatus is the live state of one registered task.
type TaskStatus struct {
	Name      string     `json:"name"`
	Trigger   string     `json:"trigger"`
	Running   bool       `json:"running"`
	Enabled   bool       `json:"enabled"`
	InFlight  bool       `json:"inFlight"`
	Runs      int        `json:"runs"`
	Failures  int        `json:"failures"`
	Skipped   int        `json:"skipped"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	LastError string     `json:"lastError,omitempty"`
	NextRun   *time.Time `json:"nextRun,omitempty"`
}

// Status is a snapshot of the scheduler.
type Status struct {
	Running   bool         `json:"isRunning"`
	TaskCount int          `json:"taskCount"`
	Tasks     []TaskStatus `json:"tasks"`
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLocation sets the time zone used by daily and cron triggers.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

// Scheduler runs tasks on their triggers. Every invocation is isolated: a
// returned error or panic is logged and counted, and never stops the schedule.
type Scheduler struct {
	defs []Task
	loc  *time.Location

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	entries []*entry
	byName  map[string]*entry
}

// New creates a stopped Scheduler for tasks.
func New(tasks []Task, opts ...Option) *Scheduler {
	s := &Scheduler{
		defs: append([]Task(nil), tasks...),
		loc:  time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers every task and begins firing them. Either all tasks are
// registered or, on an invalid trigger or duplicate name, none are.
// Calling Start on a running scheduler logs a warning and does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		slog.Warn("scheduler: already running")
		return nil
	}

	entries := make([]*entry, 0, len(s.defs))
	byName := make(map[string]*entry, len(s.defs))
	for _, t := range s.defs {
		if t.Name == "" || t.Handler == nil {
			return errors.New("scheduler: task needs a name and a handler")
		}
		if _, dup := byName[t.Name]; dup {
			return fmt.Errorf("scheduler: duplicate task %q", t.Name)
		}
		e := &entry{task: t, enabled: t.Trigger.Enabled()}
		if e.enabled {
			sched, err := t.Trigger.schedule()
			if err != nil {
				return fmt.Errorf("scheduler: task %q: %w", t.Name, err)
			}
			e.schedule = sched
		}
		entries = append(entries, e)
		byName[t.Name] = e
	}

	// Handlers outlive a cancelled ctx; Stop only halts new firings.
	runCtx := context.WithoutCancel(ctx)
	c := cron.New(cron.WithLocation(s.loc), cron.WithLogger(cronLogger{}))
	for _, e := range entries {
		if !e.enabled {
			slog.Info("scheduler: task disabled", "task", e.task.Name)
			continue
		}
		e.id = c.Schedule(e.schedule, cron.FuncJob(func() {
			s.invoke(runCtx, e, "schedule")
		}))
	}
	c.Start()

	s.cron = c
	s.entries = entries
	s.byName = byName
	s.running = true
	slog.Info("scheduler: started", "tasks", len(entries))
	return nil
}

// Stop halts new firings and clears the registry. In-flight invocations run
// to completion. Stop on a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cron.Stop()
	s.cron = nil
	s.entries = nil
	s.byName = nil
	s.running = false
	slog.Info("scheduler: stopped")
}

// Status returns the running flag and the state of every registered task.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Running: s.running, TaskCount: len(s.entries), Tasks: make([]TaskStatus, 0, len(s.entries))}
	for _, e := range s.entries {
		ts := e.status()
		ts.Running = s.running && e.enabled
		if e.enabled && s.cron != nil {
			if next := s.cron.Entry(e.id).Next; !next.IsZero() {
				ts.NextRun = &next
			}
		}
		st.Tasks = append(st.Tasks, ts)
	}
	return st
}

// ExecuteTask runs a registered task immediately and waits for it.
// It reports false for an unknown task, a skipped overlapping run, or a failed run.
func (s *Scheduler) ExecuteTask(ctx context.Context, name string) bool {
	s.mu.Lock()
	e, ok := s.byName[name]
	s.mu.Unlock()
	if !ok {
		slog.Error("scheduler: task not found", "task", name)
		return false
	}
	return s.invoke(ctx, e, "manual")
}

// invoke runs one guarded invocation of a task and reports whether it succeeded.
func (s *Scheduler) invoke(ctx context.Context, e *entry, trigger string) (ok bool) {
	name := e.task.Name
	if !e.inFlight.CompareAndSwap(false, true) {
		e.recordSkip()
		metrics.TaskRuns.WithLabelValues(name, "skipped").Inc()
		slog.Warn("scheduler: previous run still in flight, skipping", "task", name, "trigger", trigger)
		return false
	}
	defer e.inFlight.Store(false)

	runID := uuid.NewString()
	log := slog.With("task", name, "run", runID, "trigger", trigger)
	start := time.Now()
	result := "ok"

	defer func() {
		if r := recover(); r != nil {
			result = "panic"
			ok = false
			log.Error("scheduler: task panicked", "panic", r)
			e.record(start, fmt.Errorf("panic: %v", r))
		}
		elapsed := time.Since(start)
		metrics.TaskRuns.WithLabelValues(name, result).Inc()
		metrics.TaskDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		log.Debug("scheduler: task finished", "result", result, "duration", elapsed)
	}()

	err := e.task.Handler(ctx)
	e.record(start, err)
	if err != nil {
		result = "error"
		log.Error("scheduler: task failed", "error", err)
		return false
	}
	return true
}
