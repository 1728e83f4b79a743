// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

/*
Package enhancement verifies restaurant records against every linked provider
and merges what the providers agree on back into the store.

An enhancement pass over one restaurant:

 1. fetches Details from each configured provider the record has an id for,
    concurrently, recording per-provider failures in Result.Errors
 2. compares the records field by field with Verify; a value held by the
    majority wins, a two-source tie goes to the provider listed first in
    models.ProviderOrder, and a split with no majority stays unresolved
 3. fills empty fields from the verified values (ForceUpdate overwrites)
 4. optionally scrapes the Google Maps listing and the restaurant website
 5. optionally collects and ranks photos through photos.Collector
 6. scores the record with QualityScore and maps it to a status
 7. persists the record, its photos, discrepancies and a quality event

Only a missing restaurant or a failed load is returned as an error. Everything
after that is best effort and shows up in Result.

EnhanceBatch runs passes in concurrent chunks of BatchSize and, with
SkipExisting, leaves out records updated within SkipRecentWithin.
SourceDiscrepancyDetector reuses Verify for the monitoring package.
*/
package enhancement
