// Package outcome routes a processed raise file to its terminal location and
// records per-file timing. Every file the pipeline touches ends in exactly
// one relocation and one timing-log line, whatever happened during
// processing.
package outcome

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	timingFilePrefix = "ExceptionRaiseFileProcessingTimes_"
	timingDateFormat = "02-Jan-2006"
	timingLineFormat = "02-Jan-2006 15:04:05"
)

// Router moves source files to their terminal directory and appends timing
// records to a daily log.
type Router struct {
	processedDir string
	errorDir     string
	loggingDir   string
}

// NewRouter creates a router and ensures the target directories exist.
func NewRouter(processedDir, errorDir, loggingDir string) (*Router, error) {
	for _, dir := range []string{processedDir, errorDir, loggingDir} {
		if dir == "" {
			return nil, fmt.Errorf("router directories cannot be empty")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return &Router{
		processedDir: processedDir,
		errorDir:     errorDir,
		loggingDir:   loggingDir,
	}, nil
}

// Processed moves the file to the processed directory.
func (r *Router) Processed(path string) error {
	return r.move(path, r.processedDir)
}

// Errored logs the failure message and moves the file to the error
// directory.
func (r *Router) Errored(path, message string) error {
	slog.Error("Exception raise file failed processing",
		"file", filepath.Base(path),
		"message", message,
	)
	return r.move(path, r.errorDir)
}

// RecordTiming appends one line to the daily timing log: timestamp, file
// name, elapsed milliseconds.
func (r *Router) RecordTiming(path string, elapsed time.Duration) error {
	now := time.Now()
	logPath := filepath.Join(r.loggingDir, timingFilePrefix+now.Format(timingDateFormat)+".txt")

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open timing log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s,%s,%d\n", now.Format(timingLineFormat), filepath.Base(path), elapsed.Milliseconds())
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write timing log: %w", err)
	}
	return nil
}

// move relocates the file into dir, keeping its base name.
func (r *Router) move(path, dir string) error {
	target := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", path, dir, err)
	}
	return nil
}
