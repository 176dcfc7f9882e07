// Structured logging tests
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerBasic(t *testing.T) {
	var buf bytes.Buffer
	logger := New("test")
	logger.SetWriter(&buf)
	logger.SetLevel(DEBUG)
	logger.SetColorize(false)

	logger.Info("hello %s", "world")

	output := buf.String()
	if !strings.Contains(output, "[INFO ]") {
		t.Errorf("expected INFO level, got: %s", output)
	}
	if !strings.Contains(output, "test:") {
		t.Errorf("expected prefix 'test:', got: %s", output)
	}
	if !strings.Contains(output, "hello world") {
		t.Errorf("expected message 'hello world', got: %s", output)
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New("test")
	logger.SetWriter(&buf)
	logger.SetColorize(false)

	// Default level is INFO, so DEBUG should be filtered
	logger.SetLevel(INFO)
	logger.Debug("debug message")
	if buf.Len() != 0 {
		t.Errorf("expected DEBUG to be filtered, got: %s", buf.String())
	}

	logger.Info("info message")
	if !strings.Contains(buf.String(), "info message") {
		t.Errorf("expected INFO to pass, got: %s", buf.String())
	}

	buf.Reset()
	logger.Warn("warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Errorf("expected WARN to pass, got: %s", buf.String())
	}

	buf.Reset()
	logger.Error("error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Errorf("expected ERROR to pass, got: %s", buf.String())
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New("render")
	logger.SetWriter(&buf)
	logger.SetColorize(false)

	logger.InfoFields("instruction skipped", Fields{
		"fixture": "spot_1",
		"step":    "s1",
	})

	output := buf.String()
	if !strings.Contains(output, "fixture=spot_1") {
		t.Errorf("expected fixture field, got: %s", output)
	}
	if !strings.Contains(output, "step=s1") {
		t.Errorf("expected step field, got: %s", output)
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New("test")
	logger.SetWriter(&buf)
	logger.SetFormat(FormatJSON)
	logger.SetLevel(DEBUG)

	logger.InfoFields("json test", Fields{"run_id": "abc"})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON output: %v (%s)", err, buf.String())
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
	if entry["logger"] != "test" {
		t.Errorf("logger = %v, want test", entry["logger"])
	}
	if entry["message"] != "json test" {
		t.Errorf("message = %v", entry["message"])
	}
	fields, _ := entry["fields"].(map[string]interface{})
	if fields["run_id"] != "abc" {
		t.Errorf("fields = %v", entry["fields"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warning", WARN},
		{"error", ERROR},
		{"bogus", INFO},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
