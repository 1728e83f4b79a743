// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package websocket

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/afritable/internal/events"
	"github.com/tomtom215/afritable/internal/logging"
	"github.com/tomtom215/afritable/internal/metrics"
)

// Message types.
const (
	MessageTypeEvent = "event"
	MessageTypePing  = "ping"
	MessageTypePong  = "pong"
)

// Message is the JSON frame exchanged with clients.
type Message struct {
	Type  string `json:"type"`
	Topic string `json:"topic,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// Source supplies the events the hub broadcasts.
type Source interface {
	SubscribeAll(ctx context.Context) (<-chan events.Event, error)
}

// Hub maintains the set of connected clients and broadcasts events to them.
type Hub struct {
	source    Source
	broadcast chan Message
	logger    zerolog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub creates a hub fed by source. A nil source leaves Broadcast as the
// only way to send messages.
func NewHub(source Source) *Hub {
	return &Hub{
		source:    source,
		broadcast: make(chan Message, 256),
		clients:   make(map[*Client]struct{}),
		logger:    logging.WithComponent("websocket-hub"),
	}
}

// String implements fmt.Stringer for suture logging.
func (h *Hub) String() string {
	return "websocket-hub"
}

// Register adds a client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebSocketClients.Set(float64(n))
	h.logger.Info().Uint64("client_id", c.id).Int("total_clients", n).Msg("Websocket client connected")
}

// Unregister removes a client and closes its send channel. It is a no-op for
// clients already removed.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		metrics.WebSocketClients.Set(float64(n))
		h.logger.Info().Uint64("client_id", c.id).Int("total_clients", n).Msg("Websocket client disconnected")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues msg for every client. It drops the message when the queue
// is full.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn().Str("message_type", msg.Type).Msg("Broadcast queue full, dropping message")
	}
}

// Serve subscribes to the event source and fans messages out until ctx is
// cancelled, then closes every client.
func (h *Hub) Serve(ctx context.Context) error {
	var evs <-chan events.Event
	if h.source != nil {
		ch, err := h.source.SubscribeAll(ctx)
		if err != nil {
			if errors.Is(err, events.ErrBusClosed) {
				h.closeAllClients()
				return ctx.Err()
			}
			return fmt.Errorf("subscribe to events: %w", err)
		}
		evs = ch
	}

	for {
		select {
		case <-ctx.Done():
			n := h.closeAllClients()
			h.logger.Info().Int("clients_closed", n).Msg("Websocket hub stopped")
			return ctx.Err()

		case ev, ok := <-evs:
			if !ok {
				evs = nil
				if ctx.Err() != nil {
					continue
				}
				// Let the supervisor restart the hub with a fresh subscription.
				return errors.New("event subscription closed")
			}
			h.broadcastToClients(Message{Type: MessageTypeEvent, Topic: ev.Topic, Data: ev})

		case msg := <-h.broadcast:
			h.broadcastToClients(msg)
		}
	}
}

func (h *Hub) sendTo(c *Client, msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// broadcastToClients delivers msg in client id order. Clients whose buffer is
// full are disconnected.
func (h *Hub) broadcastToClients(msg Message) {
	h.mu.Lock()
	clients := h.sortedClients()
	var dropped int
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(h.clients, c)
			dropped++
		}
	}
	n := len(h.clients)
	h.mu.Unlock()

	if dropped > 0 {
		metrics.WebSocketClients.Set(float64(n))
		h.logger.Warn().Int("dropped", dropped).Msg("Disconnected slow websocket clients")
	}
}

func (h *Hub) closeAllClients() int {
	h.mu.Lock()
	clients := h.sortedClients()
	for _, c := range clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()
	metrics.WebSocketClients.Set(0)
	return len(clients)
}

// sortedClients must be called with h.mu held.
func (h *Hub) sortedClients() []*Client {
	out := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
