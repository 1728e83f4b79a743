// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package enhancement

import (
	"reflect"
	"testing"

	"github.com/tomtom215/afritable/internal/models"
)

func rec(p models.Provider, phone string) *models.SourceRecord {
	return &models.SourceRecord{Source: p, Name: "Abyssinia", Phone: phone}
}

func findDiscrepancy(t *testing.T, v Verification, field string) models.Discrepancy {
	t.Helper()
	for _, d := range v.Discrepancies {
		if d.Field == field {
			return d
		}
	}
	t.Fatalf("no %s discrepancy in %+v", field, v.Discrepancies)
	return models.Discrepancy{}
}

func TestVerifyMajorityWins(t *testing.T) {
	v := Verify([]*models.SourceRecord{
		rec(models.ProviderGoogle, "(202) 555-0143"),
		rec(models.ProviderYelp, "+1 202-555-0143"),
		rec(models.ProviderFoursquare, "202-555-9999"),
	})

	d := findDiscrepancy(t, v, FieldPhone)
	if d.Resolution != "(202) 555-0143" || !d.Resolved {
		t.Errorf("discrepancy = %+v", d)
	}
	if d.Confidence < 0.66 || d.Confidence > 0.67 {
		t.Errorf("Confidence = %v, want 2/3", d.Confidence)
	}
	if got := d.LosingValues(); !reflect.DeepEqual(got, []string{"202-555-9999"}) {
		t.Errorf("LosingValues() = %v", got)
	}
	if v.Values[FieldPhone] != "(202) 555-0143" {
		t.Errorf("Values[phone] = %q", v.Values[FieldPhone])
	}
	if len(v.Discrepancies) != 1 {
		t.Errorf("names agree, want only the phone discrepancy: %+v", v.Discrepancies)
	}
	if !reflect.DeepEqual(v.Sources, []models.Provider{models.ProviderGoogle, models.ProviderYelp, models.ProviderFoursquare}) {
		t.Errorf("Sources = %v", v.Sources)
	}
}

func TestVerifyTieGoesToGoogle(t *testing.T) {
	v := Verify([]*models.SourceRecord{
		rec(models.ProviderGoogle, "202-555-0143"),
		rec(models.ProviderYelp, "202-555-0199"),
	})
	d := findDiscrepancy(t, v, FieldPhone)
	if d.Resolution != "202-555-0143" || d.Confidence != 0.7 || !d.Resolved {
		t.Errorf("discrepancy = %+v", d)
	}
	if d.Values[models.ProviderYelp] != "202-555-0199" {
		t.Errorf("Values = %v", d.Values)
	}
}

func TestVerifyThreeWaySplitIsUnresolved(t *testing.T) {
	v := Verify([]*models.SourceRecord{
		rec(models.ProviderGoogle, "202-555-0101"),
		rec(models.ProviderYelp, "202-555-0102"),
		rec(models.ProviderFoursquare, "202-555-0103"),
	})
	d := findDiscrepancy(t, v, FieldPhone)
	if d.Resolved || d.Resolution != "202-555-0101" {
		t.Errorf("discrepancy = %+v", d)
	}
	if _, ok := v.Values[FieldPhone]; ok {
		t.Error("unresolved value should not be adopted")
	}
	if v.Unresolved() != 1 {
		t.Errorf("Unresolved() = %d", v.Unresolved())
	}
}

func TestVerifySingleSourceAdopted(t *testing.T) {
	google := &models.SourceRecord{Source: models.ProviderGoogle, Website: "https://abyssinia.test", Rating: 4.34, PriceRange: models.PriceModerate}
	yelp := &models.SourceRecord{Source: models.ProviderYelp, Website: "http://www.Abyssinia.test/"}
	v := Verify([]*models.SourceRecord{google, nil, yelp})

	if len(v.Discrepancies) != 0 {
		t.Errorf("Discrepancies = %+v, want none", v.Discrepancies)
	}
	want := map[string]string{
		FieldWebsite: "https://abyssinia.test",
		FieldRating:  "4.3",
		FieldPrice:   "MODERATE",
	}
	if !reflect.DeepEqual(v.Values, want) {
		t.Errorf("Values = %v, want %v", v.Values, want)
	}
}

func TestVerifyNoRecords(t *testing.T) {
	v := Verify(nil)
	if len(v.Values) != 0 || len(v.Discrepancies) != 0 || len(v.Sources) != 0 {
		t.Errorf("Verify(nil) = %+v", v)
	}
}

func TestVerifyAddressAbbreviationsAgree(t *testing.T) {
	google := &models.SourceRecord{Source: models.ProviderGoogle, Address: "1200 U Street NW, Washington, DC"}
	yelp := &models.SourceRecord{Source: models.ProviderYelp, Address: "1200 U St. NW Washington DC"}
	v := Verify([]*models.SourceRecord{google, yelp})

	if len(v.Discrepancies) != 0 {
		t.Errorf("Discrepancies = %+v, want none", v.Discrepancies)
	}
	if got := v.Values[FieldAddress]; got != google.Address {
		t.Errorf("Values[address] = %q, want %q", got, google.Address)
	}
}
