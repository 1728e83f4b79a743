// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package collection

import (
	"strings"

	"github.com/tomtom215/afritable/internal/models"
	"github.com/tomtom215/afritable/internal/validation"
)

// Candidate is a search result waiting to be upserted. Duplicates folded into
// it contribute their external ids.
type Candidate struct {
	models.SourceRecord
	ExternalIDs map[models.Provider]string `json:"external_ids"`
}

// NewCandidate wraps a single provider record.
func NewCandidate(rec models.SourceRecord) Candidate {
	c := Candidate{SourceRecord: rec, ExternalIDs: map[models.Provider]string{}}
	if rec.ExternalID != "" {
		c.ExternalIDs[rec.Source] = rec.ExternalID
	}
	return c
}

// DedupeKey is lower(trim(name)) + "|" + the normalized address.
func DedupeKey(name, address string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + validation.NormalizeAddress(address)
}

// Dedupe keeps the first candidate per DedupeKey and folds the external ids
// and missing contact details of later duplicates into it. It is idempotent.
func Dedupe(cands []Candidate) []Candidate {
	out := make([]Candidate, 0, len(cands))
	index := make(map[string]int, len(cands))
	for _, c := range cands {
		key := DedupeKey(c.Name, c.Address)
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			c.ExternalIDs = copyIDs(c.ExternalIDs)
			out = append(out, c)
			continue
		}
		kept := &out[i]
		for p, id := range c.ExternalIDs {
			if _, has := kept.ExternalIDs[p]; !has && id != "" {
				kept.ExternalIDs[p] = id
			}
		}
		if kept.Phone == "" {
			kept.Phone = c.Phone
		}
		if kept.Website == "" {
			kept.Website = c.Website
		}
	}
	return out
}

func copyIDs(in map[models.Provider]string) map[models.Provider]string {
	out := make(map[models.Provider]string, len(in))
	for p, id := range in {
		out[p] = id
	}
	return out
}
