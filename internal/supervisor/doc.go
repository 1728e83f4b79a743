// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Package supervisor builds the suture v4 supervision tree that runs every
// long-lived component of the pipeline server.
//
// Restart policy follows suture's defaults: five failures decaying over thirty
// seconds before a fifteen second backoff. Supervisor events are logged through
// sutureslog into the zerolog pipeline via logging.NewSlogLogger.
//
// Usage:
//
//	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
//	tree.AddDataServices(queue.Workers())
//	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
//	err = tree.Serve(ctx)
package supervisor
