// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package quota

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	badgerPrefix = "quota:"

	// counterTTL keeps a week of history for the usage endpoint.
	counterTTL = 8 * 24 * time.Hour

	maxConflictRetries = 10
)

// BadgerStore persists counters in BadgerDB. Increments run in a read-write
// transaction; Badger's optimistic concurrency rejects concurrent writers to the
// same key with ErrConflict, and the increment is retried.
type BadgerStore struct {
	db     *badger.DB
	owned  bool
	mu     sync.RWMutex
	closed bool
}

// OpenBadgerStore opens (or creates) a Badger database at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for quota: %w", err)
	}
	return &BadgerStore{db: db, owned: true}, nil
}

// NewBadgerStore wraps an already open database. Close leaves it open.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *BadgerStore) Increment(ctx context.Context, provider, endpoint, day string) (int64, error) {
	if s.isClosed() {
		return 0, ErrStoreClosed
	}
	key := []byte(badgerPrefix + counterKey(day, provider, endpoint))

	var next int64
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			current, err := readCount(txn, key)
			if err != nil {
				return err
			}
			next = current + 1
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, uint64(next))
			return txn.SetEntry(badger.NewEntry(key, buf).WithTTL(counterTTL))
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("increment %s: %w", key, err)
		}
		return next, nil
	}
	return 0, fmt.Errorf("increment %s: %w", key, badger.ErrConflict)
}

func readCount(txn *badger.Txn, key []byte) (int64, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var n int64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt counter value for %s", key)
		}
		n = int64(binary.BigEndian.Uint64(val))
		return nil
	})
	return n, err
}

func (s *BadgerStore) Count(_ context.Context, provider, day string) (int64, error) {
	if s.isClosed() {
		return 0, ErrStoreClosed
	}
	prefix := []byte(badgerPrefix + day + ":" + provider + ":")
	var total int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n, err := readCount(txn, it.Item().KeyCopy(nil))
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	return total, err
}

func (s *BadgerStore) Usage(_ context.Context, day string) ([]Counter, error) {
	if s.isClosed() {
		return nil, ErrStoreClosed
	}
	prefix := []byte(badgerPrefix + day + ":")
	var out []Counter
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			c, err := parseCounterKey(string(key[len(badgerPrefix):]))
			if err != nil {
				continue
			}
			if c.Count, err = readCount(txn, key); err != nil {
				return err
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortCounters(out)
	return out, nil
}

// Close closes the database if this store opened it.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.owned {
		return s.db.Close()
	}
	return nil
}
