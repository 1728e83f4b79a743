// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/afritable/internal/events"
	"github.com/tomtom215/afritable/internal/logging"
	"github.com/tomtom215/afritable/internal/metrics"
)

type recordingPublisher struct {
	mu       sync.Mutex
	statuses []Status
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload any) error {
	if topic != events.TopicTasks {
		return errors.New("unexpected topic " + topic)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, payload.(Task).Status)
	return nil
}

func (p *recordingPublisher) seen() []Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Status(nil), p.statuses...)
}

// startQueue runs the queue's workers until the test ends.
func startQueue(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, w := range q.Workers() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Serve(ctx)
		}()
	}
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
}

func wait(t *testing.T, q *Queue, id string) Task {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	task, err := q.Wait(ctx, id)
	if err != nil {
		t.Fatalf("Wait(%s) error = %v", id, err)
	}
	return task
}

func TestSubmitRunsTask(t *testing.T) {
	pub := &recordingPublisher{}
	q := NewQueue("enhancement", Options{Workers: 2, Size: 8}, pub)
	startQueue(t, q)

	before := testutil.ToFloat64(metrics.TasksTotal.WithLabelValues("enhance_restaurant", "succeeded"))

	var gotTaskID string
	id, err := q.Submit("enhance_restaurant", func(ctx context.Context) (any, error) {
		gotTaskID = logging.TaskIDFromContext(ctx)
		return map[string]float64{"score": 0.8}, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	task := wait(t, q, id)
	if task.Status != StatusSucceeded || task.Kind != "enhance_restaurant" || task.Queue != "enhancement" {
		t.Errorf("task = %+v", task)
	}
	if task.StartedAt == nil || task.FinishedAt == nil {
		t.Error("timestamps not set")
	}
	if res, ok := task.Result.(map[string]float64); !ok || res["score"] != 0.8 {
		t.Errorf("Result = %#v", task.Result)
	}
	if gotTaskID != id {
		t.Errorf("task id in context = %q, want %q", gotTaskID, id)
	}

	want := []Status{StatusPending, StatusRunning, StatusSucceeded}
	if got := pub.seen(); len(got) != len(want) || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Errorf("published statuses = %v, want %v", got, want)
	}
	if after := testutil.ToFloat64(metrics.TasksTotal.WithLabelValues("enhance_restaurant", "succeeded")); after != before+1 {
		t.Errorf("tasks counter = %v, want %v", after, before+1)
	}
}

func TestFailedAndPanickingTasks(t *testing.T) {
	q := NewQueue("jobs", Options{Workers: 1, Size: 8}, nil)
	startQueue(t, q)

	failID, _ := q.Submit("collect", func(context.Context) (any, error) {
		return "partial", errors.New("google: 503")
	})
	panicID, _ := q.Submit("report", func(context.Context) (any, error) {
		panic("nil map")
	})
	okID, _ := q.Submit("report", func(context.Context) (any, error) { return 1, nil })

	if task := wait(t, q, failID); task.Status != StatusFailed || task.Error != "google: 503" || task.Result != "partial" {
		t.Errorf("failed task = %+v", task)
	}
	if task := wait(t, q, panicID); task.Status != StatusFailed || !strings.Contains(task.Error, "panic: nil map") {
		t.Errorf("panicked task = %+v", task)
	}
	if task := wait(t, q, okID); task.Status != StatusSucceeded {
		t.Errorf("task after panic = %+v", task)
	}
}

func TestTaskTimeout(t *testing.T) {
	q := NewQueue("jobs", Options{Workers: 1, Size: 1, Timeout: 20 * time.Millisecond}, nil)
	startQueue(t, q)

	id, _ := q.Submit("slow", func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	task := wait(t, q, id)
	if task.Status != StatusFailed || !strings.Contains(task.Error, "deadline exceeded") {
		t.Errorf("task = %+v", task)
	}
}

func TestQueueFullAndClosed(t *testing.T) {
	q := NewQueue("jobs", Options{Workers: 1, Size: 1}, nil)

	first, err := q.Submit("a", func(context.Context) (any, error) { return nil, nil })
	if err != nil {
		t.Fatal(err)
	}
	if _, err := q.Submit("b", func(context.Context) (any, error) { return nil, nil }); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Submit() on full queue error = %v", err)
	}

	q.Close()
	if _, err := q.Submit("c", func(context.Context) (any, error) { return nil, nil }); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Submit() after Close error = %v", err)
	}
	if task := wait(t, q, first); task.Status != StatusCancelled {
		t.Errorf("buffered task = %+v, want cancelled", task)
	}
}

func TestGetAndList(t *testing.T) {
	q := NewQueue("jobs", Options{Size: 4}, nil)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	q.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	older, _ := q.Submit("collect", func(context.Context) (any, error) { return nil, nil })
	newer, _ := q.Submit("report", func(context.Context) (any, error) { return nil, nil })

	if _, err := q.Get("missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Get(missing) error = %v", err)
	}
	task, err := q.Get(older)
	if err != nil || task.Status != StatusPending {
		t.Errorf("Get() = %+v, %v", task, err)
	}

	list := q.List()
	if len(list) != 2 || list[0].ID != newer || list[1].ID != older {
		t.Errorf("List() order = %v", list)
	}
}

func TestRetentionPrunesFinishedTasks(t *testing.T) {
	q := NewQueue("jobs", Options{Workers: 1, Size: 4, Retention: time.Hour}, nil)
	startQueue(t, q)

	old, _ := q.Submit("collect", func(context.Context) (any, error) { return nil, nil })
	wait(t, q, old)

	q.mu.Lock()
	q.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	q.mu.Unlock()

	fresh, err := q.Submit("collect", func(context.Context) (any, error) { return nil, nil })
	if err != nil {
		t.Fatal(err)
	}
	if _, err := q.Get(old); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expired task still retained: %v", err)
	}
	if _, err := q.Get(fresh); err != nil {
		t.Errorf("fresh task missing: %v", err)
	}
}

func TestWorkersAreNamed(t *testing.T) {
	ws := NewQueue("enhancement", Options{Workers: 3}, nil).Workers()
	if len(ws) != 3 {
		t.Fatalf("len(Workers()) = %d", len(ws))
	}
	if s, ok := ws[2].(interface{ String() string }); !ok || s.String() != "tasks-enhancement-3" {
		t.Errorf("worker name = %v", ws[2])
	}
}
