// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package validation

import (
	"strings"
	"testing"
)

type batchRequest struct {
	RestaurantIDs []string `json:"restaurant_ids" validate:"omitempty,max=500,dive,uuid"`
	BatchSize     int      `json:"batch_size" validate:"omitempty,gte=1,lte=100"`
	Mode          string   `json:"mode" validate:"required,oneof=full quick"`
}

func TestGetValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator should return the same instance")
	}
}

func TestValidateStructValid(t *testing.T) {
	req := batchRequest{
		RestaurantIDs: []string{"2b0f7c1e-3f5a-4d8e-9a61-2f7d4c9b1a01"},
		BatchSize:     10,
		Mode:          "full",
	}
	if err := ValidateStruct(req); err != nil {
		t.Errorf("ValidateStruct() = %v, want nil", err)
	}
}

func TestValidateStructInvalid(t *testing.T) {
	tests := []struct {
		name      string
		req       batchRequest
		wantField string
		wantTag   string
	}{
		{"missing mode", batchRequest{}, "mode", "required"},
		{"bad mode", batchRequest{Mode: "partial"}, "mode", "oneof"},
		{"batch too large", batchRequest{Mode: "quick", BatchSize: 500}, "batch_size", "lte"},
		{"bad id", batchRequest{Mode: "quick", RestaurantIDs: []string{"nope"}}, "restaurant_ids[0]", "uuid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.req)
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if len(err.Fields) != 1 {
				t.Fatalf("got %d field errors, want 1: %v", len(err.Fields), err)
			}
			f := err.Fields[0]
			if f.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", f.Field, tt.wantField)
			}
			if f.Tag != tt.wantTag {
				t.Errorf("Tag = %q, want %q", f.Tag, tt.wantTag)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("Error() = %q, want it to mention %q", err.Error(), tt.wantField)
			}
		})
	}
}
