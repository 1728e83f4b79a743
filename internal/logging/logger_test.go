// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func captureGlobal(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	buf := &bytes.Buffer{}
	SetLogger(NewTestLogger(buf))
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})
	return buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return m
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWithComponent(t *testing.T) {
	buf := captureGlobal(t)

	l := WithComponent("enhancement")
	l.Info().Str("restaurant_id", "r1").Msg("started")

	m := decodeLine(t, buf)
	if m["component"] != "enhancement" {
		t.Errorf("component = %v, want enhancement", m["component"])
	}
	if m["restaurant_id"] != "r1" {
		t.Errorf("restaurant_id = %v, want r1", m["restaurant_id"])
	}
	if m["message"] != "started" {
		t.Errorf("message = %v, want started", m["message"])
	}
}

func TestCtxAddsIdentifiers(t *testing.T) {
	buf := captureGlobal(t)

	ctx := ContextWithCorrelationID(context.Background(), "abcd1234")
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithTaskID(ctx, "task-9")
	Ctx(ctx).Warn().Msg("provider skipped")

	m := decodeLine(t, buf)
	for key, want := range map[string]string{
		"correlation_id": "abcd1234",
		"request_id":     "req-1",
		"task_id":        "task-9",
		"level":          "warn",
	} {
		if m[key] != want {
			t.Errorf("%s = %v, want %s", key, m[key], want)
		}
	}
}

func TestCtxWithoutIdentifiers(t *testing.T) {
	buf := captureGlobal(t)

	Ctx(context.Background()).Info().Msg("plain")

	m := decodeLine(t, buf)
	if _, ok := m["correlation_id"]; ok {
		t.Error("correlation_id should be absent")
	}
	if _, ok := m["task_id"]; ok {
		t.Error("task_id should be absent")
	}
}

func TestGenerateCorrelationID(t *testing.T) {
	a, b := GenerateCorrelationID(), GenerateCorrelationID()
	if len(a) != 8 {
		t.Errorf("len = %d, want 8", len(a))
	}
	if a == b {
		t.Error("expected distinct correlation ids")
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "google key",
			in:   "https://maps.googleapis.com/maps/api/place/textsearch/json?query=injera&key=SECRET",
			want: "https://maps.googleapis.com/maps/api/place/textsearch/json?key=REDACTED&query=injera",
		},
		{
			name: "no credentials untouched",
			in:   "https://api.yelp.com/v3/businesses/search?term=suya",
			want: "https://api.yelp.com/v3/businesses/search?term=suya",
		},
		{
			name: "invalid",
			in:   "://bad",
			want: "[invalid url]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactURL(tt.in); got != tt.want {
				t.Errorf("RedactURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaskSecret(t *testing.T) {
	if got := MaskSecret("abcdefgh"); got != "****efgh" {
		t.Errorf("MaskSecret = %q", got)
	}
	if got := MaskSecret("abc"); got != "***" {
		t.Errorf("MaskSecret short = %q", got)
	}
}
