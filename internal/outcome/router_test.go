package outcome

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestRouter(t *testing.T) (*Router, string, string, string) {
	t.Helper()
	base := t.TempDir()
	processed := filepath.Join(base, "processed")
	errored := filepath.Join(base, "errors")
	logging := filepath.Join(base, "logs")

	r, err := NewRouter(processed, errored, logging)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return r, processed, errored, logging
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestRouter_Processed(t *testing.T) {
	r, processed, _, _ := newTestRouter(t)
	src := writeTestFile(t, t.TempDir(), "raise.txt", "E001|2024-01-01T10:00:00|1|")

	if err := r.Processed(src); err != nil {
		t.Fatalf("Processed() error = %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source file should have been moved, not copied")
	}
	if _, err := os.Stat(filepath.Join(processed, "raise.txt")); err != nil {
		t.Errorf("file missing from processed directory: %v", err)
	}
}

func TestRouter_Errored(t *testing.T) {
	r, _, errored, _ := newTestRouter(t)
	src := writeTestFile(t, t.TempDir(), "bad.txt", "garbage")

	if err := r.Errored(src, "malformed record"); err != nil {
		t.Fatalf("Errored() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(errored, "bad.txt")); err != nil {
		t.Errorf("file missing from error directory: %v", err)
	}
}

func TestRouter_MoveMissingFile(t *testing.T) {
	r, _, _, _ := newTestRouter(t)
	if err := r.Processed(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("moving a missing file should fail")
	}
}

func TestRouter_RecordTiming(t *testing.T) {
	r, _, _, logging := newTestRouter(t)

	if err := r.RecordTiming("/incoming/raise.txt", 42*time.Millisecond); err != nil {
		t.Fatalf("RecordTiming() error = %v", err)
	}
	if err := r.RecordTiming("/incoming/other.txt", 7*time.Millisecond); err != nil {
		t.Fatalf("RecordTiming() second call error = %v", err)
	}

	logPath := filepath.Join(logging, timingFilePrefix+time.Now().Format(timingDateFormat)+".txt")
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("timing log not created: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 timing lines, got %d: %q", len(lines), string(data))
	}
	if !strings.HasSuffix(lines[0], ",raise.txt,42") {
		t.Errorf("first line = %q, want suffix ,raise.txt,42", lines[0])
	}
	if !strings.HasSuffix(lines[1], ",other.txt,7") {
		t.Errorf("second line = %q, want suffix ,other.txt,7", lines[1])
	}

	// timestamp,filename,elapsedMilliseconds
	parts := strings.Split(lines[0], ",")
	if len(parts) != 3 {
		t.Fatalf("timing line should have 3 fields, got %d: %q", len(parts), lines[0])
	}
	if _, err := time.Parse(timingLineFormat, parts[0]); err != nil {
		t.Errorf("timestamp field %q does not match layout: %v", parts[0], err)
	}
}

func TestNewRouter_EmptyDir(t *testing.T) {
	if _, err := NewRouter("", "/tmp/e", "/tmp/l"); err == nil {
		t.Error("empty processed dir should be rejected")
	}
}
