// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tomtom215/afritable/internal/events"
	"github.com/tomtom215/afritable/internal/logging"
)

// EventSource delivers every pipeline event. *events.Bus satisfies it.
type EventSource interface {
	SubscribeAll(ctx context.Context) (<-chan events.Event, error)
}

// EventLogService writes every pipeline event to the structured log, giving
// headless deployments the same trail the websocket stream shows.
type EventLogService struct {
	source EventSource
	logger zerolog.Logger
}

func NewEventLogService(source EventSource) *EventLogService {
	return &EventLogService{source: source, logger: logging.WithComponent("event-log")}
}

// Serve implements suture.Service. A subscription that ends while ctx is
// still live is an error so the supervisor resubscribes.
func (s *EventLogService) Serve(ctx context.Context) error {
	evs, err := s.source.SubscribeAll(ctx)
	if errors.Is(err, events.ErrBusClosed) {
		<-ctx.Done()
		return ctx.Err()
	}
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-evs:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("event subscription closed")
			}
			s.log(ev)
		}
	}
}

func (s *EventLogService) log(ev events.Event) {
	level := zerolog.DebugLevel
	if ev.Topic == events.TopicCollection {
		level = zerolog.InfoLevel
	}
	e := s.logger.WithLevel(level).
		Str("topic", ev.Topic).
		Str("event_id", ev.ID).
		Int("payload_bytes", len(ev.Payload))
	if ev.TaskID != "" {
		e = e.Str("task_id", ev.TaskID)
	}
	if ev.CorrelationID != "" {
		e = e.Str("correlation_id", ev.CorrelationID)
	}
	e.Msg("Pipeline event")
}

func (s *EventLogService) String() string {
	return "event-log"
}
