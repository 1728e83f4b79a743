// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Package tasks runs pipeline work in the background. A Queue owns a buffered
// channel of submitted tasks and a fixed number of workers, each of which is a
// suture service. Task state is kept in memory for the retention window and is
// published on the tasks event topic at every transition.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/afritable/internal/events"
	"github.com/tomtom215/afritable/internal/logging"
	"github.com/tomtom215/afritable/internal/metrics"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrQueueClosed  = errors.New("task queue is closed")
	ErrQueueFull    = errors.New("task queue is full")
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Done reports whether s is terminal.
func (s Status) Done() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// Func is the unit of work. Its result is kept on the task and should encode
// cleanly to JSON.
type Func func(ctx context.Context) (any, error)

// Task is a snapshot of a submitted unit of work.
type Task struct {
	ID         string     `json:"id"`
	Queue      string     `json:"queue"`
	Kind       string     `json:"kind"`
	Status     Status     `json:"status"`
	Result     any        `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Publisher receives task transitions. Publish must not call back into the
// queue.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Options size a queue.
type Options struct {
	Workers   int
	Size      int
	Timeout   time.Duration
	Retention time.Duration
}

type entry struct {
	task *Task
	fn   Func
	done chan struct{}
}

// Queue is a bounded FIFO of tasks served by a fixed worker pool.
type Queue struct {
	name string
	opts Options
	pub  Publisher
	jobs chan *entry

	mu      sync.RWMutex
	entries map[string]*entry
	closed  bool

	logger zerolog.Logger
	now    func() time.Time
}

// NewQueue creates a queue. A nil publisher disables task events.
func NewQueue(name string, opts Options, pub Publisher) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Size <= 0 {
		opts.Size = 64
	}
	return &Queue{
		name:    name,
		opts:    opts,
		pub:     pub,
		jobs:    make(chan *entry, opts.Size),
		entries: make(map[string]*entry),
		logger:  logging.WithComponent("tasks").With().Str("queue", name).Logger(),
		now:     time.Now,
	}
}

// Name returns the queue name.
func (q *Queue) Name() string { return q.name }

// Submit enqueues fn and returns the new task id without waiting.
func (q *Queue) Submit(kind string, fn Func) (string, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return "", ErrQueueClosed
	}
	q.pruneLocked()

	e := &entry{
		task: &Task{
			ID:        uuid.NewString(),
			Queue:     q.name,
			Kind:      kind,
			Status:    StatusPending,
			CreatedAt: q.now().UTC(),
		},
		fn:   fn,
		done: make(chan struct{}),
	}

	select {
	case q.jobs <- e:
	default:
		q.mu.Unlock()
		metrics.TasksTotal.WithLabelValues(kind, "rejected").Inc()
		return "", fmt.Errorf("%s queue: %w", q.name, ErrQueueFull)
	}
	q.entries[e.task.ID] = e
	snapshot := *e.task
	// Published under the lock so the pending event precedes the running one.
	q.publish(context.Background(), snapshot)
	q.mu.Unlock()

	metrics.TaskQueueDepth.WithLabelValues(q.name).Set(float64(len(q.jobs)))
	q.logger.Info().Str("task_id", snapshot.ID).Str("kind", kind).Msg("Task queued")
	return snapshot.ID, nil
}

// Get returns a snapshot of the task.
func (q *Queue) Get(id string) (Task, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	e, ok := q.entries[id]
	if !ok {
		return Task{}, fmt.Errorf("%s: %w", id, ErrTaskNotFound)
	}
	return *e.task, nil
}

// List returns every retained task, newest first.
func (q *Queue) List() []Task {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]Task, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, *e.task)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Wait blocks until the task finishes or ctx is done.
func (q *Queue) Wait(ctx context.Context, id string) (Task, error) {
	q.mu.RLock()
	e, ok := q.entries[id]
	q.mu.RUnlock()
	if !ok {
		return Task{}, fmt.Errorf("%s: %w", id, ErrTaskNotFound)
	}
	select {
	case <-e.done:
		return q.Get(id)
	case <-ctx.Done():
		return Task{}, ctx.Err()
	}
}

// Close rejects further submissions and cancels tasks still waiting in the
// buffer. Running tasks finish under their own context.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	for {
		select {
		case e := <-q.jobs:
			q.finish(context.Background(), e, nil, context.Canceled)
		default:
			metrics.TaskQueueDepth.WithLabelValues(q.name).Set(0)
			return
		}
	}
}

// Workers returns one suture service per configured worker.
func (q *Queue) Workers() []suture.Service {
	out := make([]suture.Service, q.opts.Workers)
	for i := range out {
		out[i] = &worker{queue: q, name: fmt.Sprintf("tasks-%s-%d", q.name, i+1)}
	}
	return out
}

func (q *Queue) run(ctx context.Context, e *entry) {
	q.mu.Lock()
	started := q.now().UTC()
	e.task.Status = StatusRunning
	e.task.StartedAt = &started
	snapshot := *e.task
	q.mu.Unlock()

	metrics.TaskQueueDepth.WithLabelValues(q.name).Set(float64(len(q.jobs)))
	q.publish(ctx, snapshot)

	taskCtx := logging.ContextWithTaskID(ctx, e.task.ID)
	if q.opts.Timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(taskCtx, q.opts.Timeout)
		defer cancel()
	}

	logging.Ctx(taskCtx).Info().Str("kind", snapshot.Kind).Msg("Task started")
	result, err := q.call(taskCtx, e.fn)
	q.finish(ctx, e, result, err)
}

func (q *Queue) call(ctx context.Context, fn Func) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Task panicked")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

func (q *Queue) finish(ctx context.Context, e *entry, result any, err error) {
	q.mu.Lock()
	finished := q.now().UTC()
	e.task.FinishedAt = &finished
	switch {
	case err == nil:
		e.task.Status = StatusSucceeded
		e.task.Result = result
	case errors.Is(err, context.Canceled):
		e.task.Status = StatusCancelled
		e.task.Error = err.Error()
	default:
		e.task.Status = StatusFailed
		e.task.Error = err.Error()
		e.task.Result = result
	}
	snapshot := *e.task
	q.mu.Unlock()
	close(e.done)

	metrics.TasksTotal.WithLabelValues(snapshot.Kind, string(snapshot.Status)).Inc()
	ev := q.logger.Info()
	if err != nil {
		ev = q.logger.Warn().Err(err)
	}
	var took time.Duration
	if snapshot.StartedAt != nil {
		took = finished.Sub(*snapshot.StartedAt)
	}
	ev.Str("task_id", snapshot.ID).Str("kind", snapshot.Kind).Str("status", string(snapshot.Status)).
		Dur("duration", took).Msg("Task finished")
	q.publish(ctx, snapshot)
}

// pruneLocked drops finished tasks older than the retention window.
func (q *Queue) pruneLocked() {
	if q.opts.Retention <= 0 {
		return
	}
	cutoff := q.now().Add(-q.opts.Retention)
	for id, e := range q.entries {
		if e.task.Status.Done() && e.task.FinishedAt != nil && e.task.FinishedAt.Before(cutoff) {
			delete(q.entries, id)
		}
	}
}

func (q *Queue) publish(ctx context.Context, t Task) {
	if q.pub == nil {
		return
	}
	if err := q.pub.Publish(ctx, events.TopicTasks, t); err != nil {
		q.logger.Debug().Err(err).Str("task_id", t.ID).Msg("Task event not published")
	}
}

// worker pulls tasks until its context is cancelled.
type worker struct {
	queue *Queue
	name  string
}

func (w *worker) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-w.queue.jobs:
			w.queue.run(ctx, e)
		}
	}
}

func (w *worker) String() string { return w.name }
