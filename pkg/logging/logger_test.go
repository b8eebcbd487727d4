package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func readEvents(t *testing.T, path string) []Event {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("bad log line %q: %v", scanner.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

func TestLogger_WritesSessionLog(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, "sess-1")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	if err := logger.Info(CategorySession, "session_started", "checkout started", map[string]any{"surface_id": "s1"}); err != nil {
		t.Fatalf("Info failed: %v", err)
	}

	events := readEvents(t, filepath.Join(dir, "sessions", "sess-1.jsonl"))
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.Level != LevelInfo || ev.Category != CategorySession || ev.EventType != "session_started" {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.SessionID != "sess-1" {
		t.Errorf("session ID = %q", ev.SessionID)
	}
	if ev.Timestamp.IsZero() {
		t.Error("timestamp not stamped")
	}
	if ev.Details["surface_id"] != "s1" {
		t.Errorf("details = %v", ev.Details)
	}
}

func TestLogger_ErrorsDuplicatedToErrorLog(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, "sess-2")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	if err := logger.Error(CategoryParser, "parse_failed", "bad payload", nil); err != nil {
		t.Fatalf("Error failed: %v", err)
	}
	if err := logger.Info(CategorySession, "ok", "fine", nil); err != nil {
		t.Fatalf("Info failed: %v", err)
	}

	errorEvents := readEvents(t, filepath.Join(dir, "errors.jsonl"))
	if len(errorEvents) != 1 {
		t.Fatalf("error log events = %d, want 1", len(errorEvents))
	}
	if errorEvents[0].EventType != "parse_failed" {
		t.Errorf("error event = %+v", errorEvents[0])
	}
}

func TestLogger_MinLevelFilter(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, "sess-3")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	// Default minimum is info.
	if err := logger.Debug(CategorySurface, "noise", "dropped", nil); err != nil {
		t.Fatalf("Debug failed: %v", err)
	}
	logger.SetMinLevel(LevelDebug)
	if err := logger.Debug(CategorySurface, "kept", "written", nil); err != nil {
		t.Fatalf("Debug failed: %v", err)
	}

	events := readEvents(t, filepath.Join(dir, "sessions", "sess-3.jsonl"))
	if len(events) != 1 || events[0].EventType != "kept" {
		t.Errorf("events = %+v", events)
	}
}

func TestLogger_NilReceiver(t *testing.T) {
	var logger *Logger
	if err := logger.Info(CategorySession, "x", "y", nil); err != nil {
		t.Errorf("nil Info err = %v", err)
	}
	if err := logger.Log(Event{}); err != nil {
		t.Errorf("nil Log err = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("nil Close err = %v", err)
	}
}
