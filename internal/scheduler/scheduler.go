// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Package scheduler fires registered jobs on cron schedules. A fired job is not
// run inline: it is submitted to a task queue, normally the single-worker jobs
// queue, so scheduled work never overlaps.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/afritable/internal/logging"
	"github.com/tomtom215/afritable/internal/metrics"
	"github.com/tomtom215/afritable/internal/tasks"
)

var (
	ErrSchedulerRunning = errors.New("scheduler already running")
	ErrDuplicateJob     = errors.New("job already registered")
)

// Submitter accepts fired jobs. *tasks.Queue satisfies it.
type Submitter interface {
	Submit(kind string, fn tasks.Func) (string, error)
}

// EntryInfo describes a registered job.
type EntryInfo struct {
	Name       string    `json:"name"`
	Spec       string    `json:"spec"`
	Next       time.Time `json:"next"`
	LastFired  time.Time `json:"last_fired,omitempty"`
	LastTaskID string    `json:"last_task_id,omitempty"`
}

type entry struct {
	name     string
	schedule *Schedule
	fn       tasks.Func
	next     time.Time
	lastRun  time.Time
	lastTask string
}

// Scheduler is the process-wide cron registry.
type Scheduler struct {
	loc    *time.Location
	submit Submitter
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries []*entry
	running bool
	wake    chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a scheduler that evaluates schedules in loc (UTC when nil).
func New(loc *time.Location, submit Submitter) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		loc:    loc,
		submit: submit,
		logger: logging.WithComponent("scheduler"),
		now:    time.Now,
		wake:   make(chan struct{}, 1),
	}
}

// Register adds a job. An empty spec leaves the job disabled.
func (s *Scheduler) Register(name, spec string, fn tasks.Func) error {
	if spec == "" {
		s.logger.Info().Str("job", name).Msg("Scheduled job disabled")
		return nil
	}
	sched, err := ParseCron(spec)
	if err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.name == name {
			return fmt.Errorf("register %s: %w", name, ErrDuplicateJob)
		}
	}
	e := &entry{name: name, schedule: sched, fn: fn, next: sched.Next(s.now(), s.loc)}
	s.entries = append(s.entries, e)
	s.logger.Info().Str("job", name).Str("spec", spec).Time("next", e.next).Msg("Scheduled job registered")

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Entries lists registered jobs ordered by their next fire time.
func (s *Scheduler) Entries() []EntryInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EntryInfo, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, EntryInfo{
			Name:       e.name,
			Spec:       e.schedule.String(),
			Next:       e.next,
			LastFired:  e.lastRun,
			LastTaskID: e.lastTask,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Next.Before(out[j].Next) })
	return out
}

// Start launches the scheduling loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerRunning
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stop, done := s.stopCh, s.doneCh
	n := len(s.entries)
	s.mu.Unlock()

	s.logger.Info().Int("jobs", n).Str("timezone", s.loc.String()).Msg("Starting scheduler")
	go s.loop(ctx, stop, done)
	return nil
}

// Stop ends the loop and waits for it. Submitted jobs keep running on their
// queue.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stop, done := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stop)
	<-done

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

func (s *Scheduler) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		timer := time.NewTimer(s.untilNext())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-stop:
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
			s.fireDue(s.now())
		}
	}
}

// untilNext is the wait until the earliest entry, capped at an hour so clock
// jumps are picked up.
func (s *Scheduler) untilNext() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	wait := time.Hour
	now := s.now()
	for _, e := range s.entries {
		if e.next.IsZero() {
			continue
		}
		if d := e.next.Sub(now); d < wait {
			wait = d
		}
	}
	if wait < 0 {
		wait = 0
	}
	return wait
}

// fireDue submits every entry whose next time is at or before now and
// advances it. Missed firings collapse into one.
func (s *Scheduler) fireDue(now time.Time) int {
	s.mu.Lock()
	var due []*entry
	for _, e := range s.entries {
		if !e.next.IsZero() && !e.next.After(now) {
			due = append(due, e)
			e.lastRun = now
			e.next = e.schedule.Next(now, s.loc)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		id, err := s.submit.Submit(e.name, s.guard(e.name, e.fn))
		if err != nil {
			metrics.SchedulerRuns.WithLabelValues(e.name, "rejected").Inc()
			s.logger.Error().Err(err).Str("job", e.name).Msg("Scheduled job not submitted")
			continue
		}
		s.mu.Lock()
		e.lastTask = id
		s.mu.Unlock()
		s.logger.Info().Str("job", e.name).Str("task_id", id).Msg("Scheduled job submitted")
	}
	return len(due)
}

// guard wraps a job with panic recovery, logging and the run metric.
func (s *Scheduler) guard(name string, fn tasks.Func) tasks.Func {
	return func(ctx context.Context) (result any, err error) {
		log := logging.Ctx(ctx).With().Str("job", name).Logger()
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Scheduled job panicked")
				err = fmt.Errorf("job %s panicked: %v", name, r)
			}
			status := "succeeded"
			if err != nil {
				status = "failed"
				log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Scheduled job failed")
			} else {
				log.Info().Dur("duration", time.Since(start)).Msg("Scheduled job complete")
			}
			metrics.SchedulerRuns.WithLabelValues(name, status).Inc()
		}()
		return fn(ctx)
	}
}
