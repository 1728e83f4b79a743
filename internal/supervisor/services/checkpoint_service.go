// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/afritable/internal/logging"
)

// Checkpointer flushes the database write-ahead log. *database.DB satisfies it.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// CheckpointService checkpoints the database on an interval and once more at
// shutdown. Failures are logged; the next tick retries.
type CheckpointService struct {
	db       Checkpointer
	interval time.Duration
	logger   zerolog.Logger
}

// NewCheckpointService creates the service. A non-positive interval means 15m.
func NewCheckpointService(db Checkpointer, interval time.Duration) *CheckpointService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &CheckpointService{db: db, interval: interval, logger: logging.WithComponent("checkpoint")}
}

func (s *CheckpointService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			s.checkpoint(final)
			cancel()
			return ctx.Err()
		case <-ticker.C:
			s.checkpoint(ctx)
		}
	}
}

func (s *CheckpointService) checkpoint(ctx context.Context) {
	start := time.Now()
	if err := s.db.Checkpoint(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Database checkpoint failed")
		return
	}
	s.logger.Debug().Dur("duration", time.Since(start)).Msg("Database checkpoint complete")
}

func (s *CheckpointService) String() string {
	return "db-checkpoint"
}
