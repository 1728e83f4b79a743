// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

/*
Package services adapts pipeline components to the suture.Service interface.

	type Service interface {
	    Serve(ctx context.Context) error
	}

Each wrapper translates one lifecycle pattern into Serve:

  - HTTPServerService: ListenAndServe plus Shutdown with a drain timeout
  - SchedulerService: Start/Stop, for the cron scheduler
  - EventLogService: a long-lived event bus subscription
  - CheckpointService: a ticker loop against the database

Task queue workers and the websocket hub implement suture.Service directly and
need no wrapper. Every wrapper implements fmt.Stringer so supervisor events
name the service.
*/
package services
