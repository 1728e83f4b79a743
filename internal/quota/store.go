// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Package quota tracks daily usage of the external place-search APIs and
// enforces the configured per-provider ceilings.
package quota

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	// ErrQuotaExceeded is returned when a provider's daily ceiling is reached.
	ErrQuotaExceeded = errors.New("daily API quota exceeded")

	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("quota store is closed")
)

// Store persists (provider, endpoint, day) request counters. Increment must be
// atomic: an absent counter is created with 1, an existing one is bumped.
type Store interface {
	Increment(ctx context.Context, provider, endpoint, day string) (int64, error)
	Count(ctx context.Context, provider, day string) (int64, error)
	Usage(ctx context.Context, day string) ([]Counter, error)
	Close() error
}

// Counter is a single ApiUsageCounter row.
type Counter struct {
	Provider string `json:"provider"`
	Endpoint string `json:"endpoint"`
	Day      string `json:"day"`
	Count    int64  `json:"count"`
}

// Day returns the calendar-day key for t. Days roll over at UTC midnight.
func Day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func counterKey(day, provider, endpoint string) string {
	return day + ":" + provider + ":" + endpoint
}

// MemoryStore keeps counters in a map. Counters are lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]int64
	closed   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]int64)}
}

func (s *MemoryStore) Increment(_ context.Context, provider, endpoint, day string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}
	k := counterKey(day, provider, endpoint)
	s.counters[k]++
	return s.counters[k], nil
}

func (s *MemoryStore) Count(_ context.Context, provider, day string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}
	prefix := day + ":" + provider + ":"
	var total int64
	for k, v := range s.counters {
		if strings.HasPrefix(k, prefix) {
			total += v
		}
	}
	return total, nil
}

func (s *MemoryStore) Usage(_ context.Context, day string) ([]Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	var out []Counter
	for k, v := range s.counters {
		c, err := parseCounterKey(k)
		if err != nil || c.Day != day {
			continue
		}
		c.Count = v
		out = append(out, c)
	}
	sortCounters(out)
	return out, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func parseCounterKey(k string) (Counter, error) {
	parts := strings.SplitN(k, ":", 3)
	if len(parts) != 3 {
		return Counter{}, fmt.Errorf("malformed counter key %q", k)
	}
	return Counter{Day: parts[0], Provider: parts[1], Endpoint: parts[2]}, nil
}

func sortCounters(cs []Counter) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Provider != cs[j].Provider {
			return cs[i].Provider < cs[j].Provider
		}
		return cs[i].Endpoint < cs[j].Endpoint
	})
}
