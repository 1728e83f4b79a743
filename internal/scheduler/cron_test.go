// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package scheduler

import (
	"testing"
	"time"
)

func TestParseCron(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"every six hours", "0 */6 * * *", false},
		{"daily at two", "0 2 * * *", false},
		{"sunday as zero", "0 3 * * 0", false},
		{"sunday as seven", "0 4 * * 7", false},
		{"list and range", "0,30 9-17 * * 1-5", false},
		{"range with step", "0-30/10 * * * *", false},
		{"too few fields", "0 2 * *", true},
		{"too many fields", "0 2 * * * *", true},
		{"minute out of range", "60 2 * * *", true},
		{"hour out of range", "0 24 * * *", true},
		{"zero step", "*/0 * * * *", true},
		{"inverted range", "0 5-2 * * *", true},
		{"not a number", "0 two * * *", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCron(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseCron(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestScheduleNext(t *testing.T) {
	at := func(day, hour, minute int) time.Time {
		return time.Date(2026, time.March, day, hour, minute, 0, 0, time.UTC)
	}
	tests := []struct {
		name  string
		expr  string
		after time.Time
		want  time.Time
	}{
		{"collection sweep", "0 */6 * * *", at(1, 5, 30), at(1, 6, 0)},
		{"strictly after", "0 2 * * *", at(1, 2, 0), at(2, 2, 0)},
		{"weekly on sunday", "0 3 * * 0", at(4, 10, 0), at(8, 3, 0)},
		{"sunday written as seven", "0 4 * * 7", at(8, 4, 0), at(15, 4, 0)},
		{"day of month or weekday", "0 0 13 * 5", at(1, 0, 0), at(6, 0, 0)},
		{"seconds ignored", "*/15 * * * *", at(1, 0, 14).Add(59 * time.Second), at(1, 0, 15)},
		{"month rollover", "30 1 1 * *", at(31, 23, 0), time.Date(2026, time.April, 1, 1, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseCron(tt.expr)
			if err != nil {
				t.Fatal(err)
			}
			if got := s.Next(tt.after, time.UTC); !got.Equal(tt.want) {
				t.Errorf("Next(%v) = %v, want %v", tt.after, got, tt.want)
			}
		})
	}
}

func TestScheduleNextInLocation(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	s, err := ParseCron("0 9 * * *")
	if err != nil {
		t.Fatal(err)
	}
	got := s.Next(time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC), est)
	want := time.Date(2026, time.March, 2, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Next() = %v, want %v", got.UTC(), want)
	}
}

func TestScheduleNeverMatches(t *testing.T) {
	s, err := ParseCron("0 0 31 2 *")
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Next(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil); !got.IsZero() {
		t.Errorf("Next() = %v, want zero", got)
	}
}
