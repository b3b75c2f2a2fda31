package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"exception-ingest/internal/ingest"
)

// watchIncoming polls the incoming directory and dispatches one pipeline
// call per raise file until the context is cancelled. Files are processed
// one at a time; the pipeline relocates each file, so a processed file never
// shows up in the next scan.
func watchIncoming(ctx context.Context, pipeline *ingest.Pipeline, dir string, interval time.Duration) {
	slog.Info("Watching for exception raise files", "dir", dir, "poll_interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scanOnce(ctx, pipeline, dir)
		}
	}
}

// scanOnce runs the pipeline for every raise file currently in the incoming
// directory.
func scanOnce(ctx context.Context, pipeline *ingest.Pipeline, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Error("Failed to read incoming directory", "dir", dir, "error", err)
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		signSerial := serialFromFileName(entry.Name())
		if signSerial == "" {
			slog.Warn("Skipping file with no sign serial prefix", "file", entry.Name())
			continue
		}

		pipeline.ProcessRaiseFile(ctx, signSerial, filepath.Join(dir, entry.Name()))
	}
}

// serialFromFileName extracts the sign serial from the
// <serial>_<anything>.txt naming convention.
func serialFromFileName(name string) string {
	serial, _, ok := strings.Cut(name, "_")
	if !ok {
		return ""
	}
	return serial
}
