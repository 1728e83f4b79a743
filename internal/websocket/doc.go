// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Package websocket streams pipeline events to admin clients.
//
// A Hub subscribes to every event topic and fans each event out to the
// connected clients as a Message of type "event". Clients may send
// {"type":"ping"} and receive {"type":"pong"}. Slow clients whose send buffer
// fills up are disconnected rather than allowed to stall the hub.
//
// The hub runs as a supervised service; when its context is cancelled every
// client connection is closed.
package websocket
