// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Package events carries pipeline notifications (quality assessments, task
// transitions, collection runs) between components. Events always travel over
// an in-process watermill gochannel; when a NATS URL is configured each event is
// also forwarded to the subject "<prefix>.<topic>".
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/afritable/internal/config"
	"github.com/tomtom215/afritable/internal/logging"
	"github.com/tomtom215/afritable/internal/metrics"
)

// Topics.
const (
	TopicQuality    = "quality"
	TopicTasks      = "tasks"
	TopicCollection = "collection"
)

// Topics returns every topic the pipeline publishes on.
func Topics() []string {
	return []string{TopicQuality, TopicTasks, TopicCollection}
}

// ErrBusClosed is returned by Publish and Subscribe after Close.
var ErrBusClosed = errors.New("event bus is closed")

const (
	metaCorrelationID = "correlation_id"
	metaTaskID        = "task_id"
	metaPublishedAt   = "published_at"
)

// Event is a published message as seen by subscribers.
type Event struct {
	ID            string          `json:"id"`
	Topic         string          `json:"topic"`
	Payload       json.RawMessage `json:"payload"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	TaskID        string          `json:"task_id,omitempty"`
	PublishedAt   time.Time       `json:"published_at"`
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Bus publishes JSON-encoded events.
type Bus struct {
	local   *gochannel.GoChannel
	forward message.Publisher
	breaker *gobreaker.CircuitBreaker[any]
	prefix  string
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewBus creates the in-process bus and, when cfg.NATSURL is set, the NATS
// forwarder. The NATS connection retries in the background, so an unreachable
// server does not fail startup.
func NewBus(cfg config.EventsConfig) (*Bus, error) {
	logger := logging.WithComponent("events")
	wmLogger := NewLoggerAdapter(logger)

	b := &Bus{
		local: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, wmLogger),
		prefix: cfg.SubjectPrefix,
		logger: logger,
	}

	if cfg.NATSURL == "" {
		return b, nil
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL: cfg.NATSURL,
		NatsOptions: []natsgo.Option{
			natsgo.RetryOnFailedConnect(true),
			natsgo.MaxReconnects(-1),
			natsgo.ReconnectWait(2 * time.Second),
			natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
				if err != nil {
					logger.Warn().Err(err).Msg("NATS disconnected")
				}
			}),
			natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
				logger.Info().Str("url", logging.RedactURL(nc.ConnectedUrl())).Msg("NATS reconnected")
			}),
		},
		Marshaler: &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{Disabled: true},
	}, wmLogger)
	if err != nil {
		_ = b.local.Close()
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}
	b.forward = pub
	b.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "nats-forward",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
		},
	})
	logger.Info().Str("url", logging.RedactURL(cfg.NATSURL)).Str("prefix", cfg.SubjectPrefix).Msg("Forwarding events to NATS")
	return b, nil
}

// Publish encodes payload and delivers it to local subscribers of topic.
// Forwarding failures are logged and counted but never returned.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		metrics.EventsPublished.WithLabelValues(topic, "closed").Inc()
		return ErrBusClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(topic, "error").Inc()
		return fmt.Errorf("encode %s event: %w", topic, err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set(metaPublishedAt, time.Now().UTC().Format(time.RFC3339Nano))
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(metaCorrelationID, id)
	}
	if id := logging.TaskIDFromContext(ctx); id != "" {
		msg.Metadata.Set(metaTaskID, id)
	}

	if err := b.local.Publish(topic, msg); err != nil {
		metrics.EventsPublished.WithLabelValues(topic, "error").Inc()
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	metrics.EventsPublished.WithLabelValues(topic, "ok").Inc()

	if b.forward != nil {
		b.forwardMessage(ctx, topic, msg.Copy())
	}
	return nil
}

func (b *Bus) forwardMessage(ctx context.Context, topic string, msg *message.Message) {
	subject := b.Subject(topic)
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	_, err := b.breaker.Execute(func() (any, error) {
		return nil, b.forward.Publish(subject, msg)
	})
	if err != nil {
		metrics.EventsPublished.WithLabelValues(topic, "forward_error").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("subject", subject).Msg("Event forward failed")
		return
	}
	metrics.EventsPublished.WithLabelValues(topic, "forwarded").Inc()
}

// Subject is the NATS subject a topic is forwarded to.
func (b *Bus) Subject(topic string) string {
	if b.prefix == "" {
		return topic
	}
	return b.prefix + "." + topic
}

// Subscribe streams events on topic until ctx is cancelled or the bus closes.
// Messages are acknowledged as soon as they are handed over.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan Event, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrBusClosed
	}

	msgs, err := b.local.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range msgs {
			ev := toEvent(topic, msg)
			msg.Ack()
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// SubscribeAll merges the streams of every topic.
func (b *Bus) SubscribeAll(ctx context.Context) (<-chan Event, error) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Event)
	var wg sync.WaitGroup

	for _, topic := range Topics() {
		ch, err := b.Subscribe(ctx, topic)
		if err != nil {
			cancel()
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range ch {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		cancel()
		close(out)
	}()
	return out, nil
}

func toEvent(topic string, msg *message.Message) Event {
	ev := Event{
		ID:            msg.UUID,
		Topic:         topic,
		Payload:       json.RawMessage(msg.Payload),
		CorrelationID: msg.Metadata.Get(metaCorrelationID),
		TaskID:        msg.Metadata.Get(metaTaskID),
	}
	if ts, err := time.Parse(time.RFC3339Nano, msg.Metadata.Get(metaPublishedAt)); err == nil {
		ev.PublishedAt = ts
	}
	return ev
}

// Close stops delivery. Open subscriptions are closed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if err := b.local.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close gochannel: %w", err))
	}
	if b.forward != nil {
		if err := b.forward.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close nats publisher: %w", err))
		}
	}
	b.logger.Info().Msg("Event bus closed")
	return errors.Join(errs...)
}

var _ watermill.LoggerAdapter = (*zerologAdapter)(nil)
