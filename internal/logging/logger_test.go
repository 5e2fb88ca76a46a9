package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("cycle complete", String(FieldComponent, "workflow"), Int("posted", 3))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "cycle complete" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry[FieldComponent] != "workflow" {
		t.Errorf("component = %v", entry[FieldComponent])
	}
	if entry["posted"] != float64(3) {
		t.Errorf("posted = %v", entry["posted"])
	}
}

func TestNewConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Warn("retrying fetch", String("op", "regulations.gov"))

	line := buf.String()
	if !strings.Contains(line, "retrying fetch") || !strings.Contains(line, "WARN") {
		t.Errorf("console line = %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "logfmt"}); err == nil {
		t.Fatal("unknown format should error")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("ignored")
	logger.Warn("kept")

	if strings.Contains(buf.String(), "ignored") {
		t.Error("info line emitted below the warn threshold")
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Error("warn line missing")
	}
}

func TestNewComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	NewComponentLogger(logger, "store").Info("opened")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry[FieldComponent] != "store" {
		t.Errorf("component = %v", entry[FieldComponent])
	}
}
