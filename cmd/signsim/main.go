// Command signsim synthesizes sign exception raise data for exercising the
// ingestion service without real hardware. By default it drops raise files
// into the incoming directory; with -publish it sends a dummy ticket event
// straight to the queue, bypassing the pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"exception-ingest/internal/config"
	"exception-ingest/internal/notify"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	count := flag.Int("count", 1, "Number of raise files to generate")
	signSerial := flag.String("sign", "2081900058", "Sign serial number to report as")
	code := flag.String("code", "E001", "Exception code to raise")
	publish := flag.Bool("publish", false, "Publish a dummy ticket event directly to the queue instead of writing files")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if *publish {
		if err := publishDummyEvent(cfg, *signSerial); err != nil {
			slog.Error("Failed to publish dummy event", "error", err)
			os.Exit(1)
		}
		slog.Info("Published dummy ticket event", "queue", cfg.Queue.Queue)
		return
	}

	if err := os.MkdirAll(cfg.Directories.Incoming, 0o755); err != nil {
		slog.Error("Failed to create incoming directory", "error", err)
		os.Exit(1)
	}

	for i := 0; i < *count; i++ {
		path, err := writeRaiseFile(cfg.Directories.Incoming, *signSerial, *code)
		if err != nil {
			slog.Error("Failed to write raise file", "error", err)
			os.Exit(1)
		}
		slog.Info("Wrote raise file", "file", path)
	}
}

// writeRaiseFile drops one synthetic raise file into the incoming directory.
func writeRaiseFile(dir, signSerial, code string) (string, error) {
	value := 10 + rand.Float64()*140 // wanders outside the usual 10..100 range
	content := fmt.Sprintf("%s|%s|%.2f|<MIN>:10;<MAX>:100",
		code,
		time.Now().Format("2006-01-02T15:04:05"),
		value,
	)

	name := fmt.Sprintf("%s_ExRaise_%s.txt", signSerial, uuid.NewString())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// publishDummyEvent sends a fully populated ticket payload to the queue,
// the way the downstream consumer expects to receive it.
func publishDummyEvent(cfg *config.Config, signSerial string) error {
	publisher, err := notify.NewQueuePublisher(notify.QueueConfig{
		Host:     cfg.Queue.Host,
		Port:     cfg.Queue.Port,
		Username: cfg.Queue.Username,
		Password: cfg.Queue.Password,
		Exchange: cfg.Queue.Exchange,
		Queue:    cfg.Queue.Queue,
	})
	if err != nil {
		return err
	}

	payload := &notify.TicketPayload{
		SensorState:          "RAISE",
		NetworkOwner:         1,
		Landlord:             2,
		Site:                 3,
		Sign:                 4,
		SiteCode:             "ABC",
		ThirdPartyCmsID:      "XYZ",
		SignSerialNumber:     signSerial,
		SiteAddressLine1:     "221B Baker Street",
		SiteAddressPostcode:  "NW1 6XE",
		LandlordName:         "John Doe",
		NetworkOwnerName:     "Network Owner",
		Type:                 "Power",
		Category:             "PSU",
		Name:                 "Simulated exception",
		RaiseTime:            time.Now().Format(notify.DisplayTimeFormat),
		ExceptionDescription: "Simulator generated exception",
		ExceptionTypeID:      notify.ExceptionTypeAlarm,
		NotificationType:     notify.NotificationTypeAlarm,
	}

	body, err := payload.Marshal()
	if err != nil {
		return err
	}
	return publisher.Publish(context.Background(), body)
}
