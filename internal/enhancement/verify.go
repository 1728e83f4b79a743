// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package enhancement

import (
	"strconv"
	"strings"

	"github.com/tomtom215/afritable/internal/models"
	"github.com/tomtom215/afritable/internal/validation"
)

const (
	// tieConfidence is reported when exactly two sources disagree.
	tieConfidence = 0.7
	// resolvedConfidence is the minimum confidence for a discrepancy to be applied.
	resolvedConfidence = 0.6
)

// Field names used in discrepancies and Result.Updated.
const (
	FieldName    = "name"
	FieldPhone   = "phone"
	FieldWebsite = "website"
	FieldAddress = "address"
	FieldRating  = "rating"
	FieldPrice   = "price"
)

type scalarField struct {
	name string
	get  func(*models.SourceRecord) string
	// key normalizes values for comparison; the raw value is what gets stored.
	key func(string) string
}

var scalarFields = []scalarField{
	{FieldName, func(s *models.SourceRecord) string { return s.Name }, foldKey},
	{FieldPhone, func(s *models.SourceRecord) string { return s.Phone }, phoneKey},
	{FieldWebsite, func(s *models.SourceRecord) string { return s.Website }, websiteKey},
	{FieldAddress, func(s *models.SourceRecord) string { return s.Address }, validation.NormalizeAddress},
	{FieldRating, func(s *models.SourceRecord) string {
		if s.Rating <= 0 {
			return ""
		}
		return strconv.FormatFloat(models.RoundRating(s.Rating), 'f', 1, 64)
	}, strings.TrimSpace},
	{FieldPrice, func(s *models.SourceRecord) string { return string(s.PriceRange) }, strings.TrimSpace},
}

// Verification is the outcome of comparing provider records field by field.
type Verification struct {
	// Values holds the value to adopt per field: the single or agreed value, or
	// the winner of a resolved discrepancy.
	Values        map[string]string
	Discrepancies []models.Discrepancy
	Sources       []models.Provider
}

// Unresolved counts discrepancies below the resolution threshold.
func (v *Verification) Unresolved() int {
	n := 0
	for _, d := range v.Discrepancies {
		if !d.Resolved {
			n++
		}
	}
	return n
}

// Verify compares records by majority vote. Records must be in provider order;
// ties go to the first value seen.
func Verify(records []*models.SourceRecord) Verification {
	v := Verification{Values: map[string]string{}}
	for _, rec := range records {
		if rec != nil {
			v.Sources = append(v.Sources, rec.Source)
		}
	}

	for _, f := range scalarFields {
		var seen []providerValue
		for _, rec := range records {
			if rec == nil {
				continue
			}
			val := strings.TrimSpace(f.get(rec))
			if val == "" {
				continue
			}
			seen = append(seen, providerValue{provider: rec.Source, value: val, key: f.key(val)})
		}
		value, d := resolve(f.name, seen)
		if d != nil {
			v.Discrepancies = append(v.Discrepancies, *d)
			if !d.Resolved {
				continue
			}
		}
		if value != "" {
			v.Values[f.name] = value
		}
	}
	return v
}

type providerValue struct {
	provider models.Provider
	value    string
	key      string
}

type vote struct {
	value string
	count int
}

// resolve returns the adopted value and, when sources disagree, the discrepancy.
func resolve(field string, seen []providerValue) (string, *models.Discrepancy) {
	switch len(seen) {
	case 0:
		return "", nil
	case 1:
		return seen[0].value, nil
	}

	var order []string
	votes := map[string]*vote{}
	for _, pv := range seen {
		if v, ok := votes[pv.key]; ok {
			v.count++
			continue
		}
		votes[pv.key] = &vote{value: pv.value, count: 1}
		order = append(order, pv.key)
	}
	if len(order) == 1 {
		return seen[0].value, nil
	}

	winner := votes[order[0]]
	for _, k := range order[1:] {
		if votes[k].count > winner.count {
			winner = votes[k]
		}
	}

	confidence := float64(winner.count) / float64(len(seen))
	if len(seen) == 2 {
		confidence = tieConfidence
	}

	d := &models.Discrepancy{
		Field:      field,
		Values:     make(map[models.Provider]string, len(seen)),
		Resolution: winner.value,
		Confidence: confidence,
		Resolved:   confidence >= resolvedConfidence,
	}
	for _, pv := range seen {
		// Values that normalize to the winner are recorded as the winner so
		// LosingValues only lists real disagreements.
		if pv.key == normalizedKey(field, winner.value) {
			d.Values[pv.provider] = winner.value
		} else {
			d.Values[pv.provider] = pv.value
		}
	}
	return winner.value, d
}

func normalizedKey(field, value string) string {
	for _, f := range scalarFields {
		if f.name == field {
			return f.key(value)
		}
	}
	return value
}

func foldKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// phoneKey compares phone numbers by their national digits.
func phoneKey(s string) string {
	n := strings.TrimPrefix(validation.NormalizePhone(s), "+")
	if len(n) == 11 && n[0] == '1' {
		n = n[1:]
	}
	return n
}

func websiteKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	return strings.TrimSuffix(s, "/")
}
