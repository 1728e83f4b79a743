// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

/*
Package sources provides clients for the external place-search APIs used to
discover and cross-check restaurants: Google Places, Yelp Fusion and
Foursquare Places.

Every client implements Adapter and normalizes provider payloads into
models.SourceRecord. Calls share one request path (see client.go) that, in
order:

  - returns ErrNotConfigured when no API key is set, without touching the quota
  - asks the quota gate whether today's ceiling allows another call
  - waits on a token-bucket rate limiter
  - runs the request through a gobreaker circuit breaker
  - retries HTTP 429 and 5xx with exponential backoff, honouring Retry-After
  - records one unit of quota usage after a 2xx response

Registry.WithDetailsCache wraps each adapter in a CachedAdapter so repeated
Details lookups for the same place inside the TTL skip the request path
entirely. Google photo URLs are built without the API key.

Provider error payloads surface as *APIError. Network failures are wrapped and
returned; nothing in this package panics on malformed upstream data.

Example:

	reg := sources.NewRegistry(cfg.Sources, tracker)
	for _, a := range reg.Adapters() {
	    recs, err := a.Search(ctx, sources.SearchQuery{Term: "ethiopian", Location: "Washington, DC"})
	    ...
	}
*/
package sources
