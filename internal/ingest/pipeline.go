// Package ingest implements the exception-raise processing pipeline: parse
// the raise file, normalize its values, persist the live exception, dispatch
// notifications and route the file to its terminal location.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"exception-ingest/internal/database"
	"exception-ingest/internal/metrics"
	"exception-ingest/internal/notify"
	"exception-ingest/internal/record"
)

// Ledger is the store gateway the pipeline persists through.
type Ledger interface {
	GetExceptionDefinition(ctx context.Context, signSerial, code string) (*database.Definition, error)
	GetExceptionConstraints(ctx context.Context, code string) (database.Constraints, error)
	InsertLiveException(ctx context.Context, rec *database.LiveException) error
}

// Dispatcher fans a persisted raise out to notification transports. The
// bool reports whether a ticket event was published.
type Dispatcher interface {
	Dispatch(ctx context.Context, raise notify.Raise, def *database.Definition) (bool, error)
}

// Router performs the terminal file relocation and timing log write.
type Router interface {
	Processed(path string) error
	Errored(path, message string) error
	RecordTiming(path string, elapsed time.Duration) error
}

// Pipeline processes one raise file per call, synchronously. Each call
// builds its own parameter values, so a Pipeline is safe for concurrent use
// by a dispatching driver.
type Pipeline struct {
	ledger     Ledger
	dispatcher Dispatcher
	router     Router
	recorder   metrics.Recorder
}

// NewPipeline creates a pipeline. A nil recorder defaults to the no-op
// recorder.
func NewPipeline(ledger Ledger, dispatcher Dispatcher, router Router, recorder metrics.Recorder) *Pipeline {
	if recorder == nil {
		recorder = metrics.NewNoOp()
	}
	return &Pipeline{
		ledger:     ledger,
		dispatcher: dispatcher,
		router:     router,
		recorder:   recorder,
	}
}

// ProcessRaiseFile runs the full pipeline for one file. Whatever happens
// inside, the file ends in exactly one relocation and one timing-log line,
// and no error escapes to the caller: failures are scoped to the file.
func (p *Pipeline) ProcessRaiseFile(ctx context.Context, signSerial, path string) Result {
	start := time.Now()
	p.recorder.RecordFileReceived()

	result := p.process(ctx, signSerial, path)

	if result.OK() {
		if err := p.router.Processed(path); err != nil {
			slog.Error("Failed to move file to processed directory", "file", path, "error", err)
		}
	} else {
		if err := p.router.Errored(path, result.Message); err != nil {
			slog.Error("Failed to move file to error directory", "file", path, "error", err)
		}
	}

	elapsed := time.Since(start)
	if err := p.router.RecordTiming(path, elapsed); err != nil {
		slog.Error("Failed to record processing time", "file", path, "error", err)
	}

	if result.OK() {
		p.recorder.RecordFileProcessed(elapsed)
	} else {
		p.recorder.RecordFileErrored(elapsed)
	}

	slog.Debug("Finished raise file",
		"file", filepath.Base(path),
		"sign_serial", signSerial,
		"outcome", result.Kind.String(),
		"elapsed_ms", elapsed.Milliseconds(),
	)

	return result
}

// process runs the pipeline stages up to (but not including) file routing
// and returns the tagged outcome.
func (p *Pipeline) process(ctx context.Context, signSerial, path string) Result {
	fileName := filepath.Base(path)

	content, err := os.ReadFile(path)
	if err != nil {
		return Result{
			Kind:    KindUnclassified,
			Message: fmt.Sprintf("There has been an error attempting to process the given exception raise file %s: %v", path, err),
		}
	}

	fields, err := record.Parse(string(content))
	if err != nil {
		return Result{
			Kind:    KindMalformedRecord,
			Message: fmt.Sprintf("Sign %s attempted to raise an exception using incorrectly formatted data (%s).", signSerial, fileName),
		}
	}

	def, err := p.ledger.GetExceptionDefinition(ctx, signSerial, fields.Code)
	if errors.Is(err, database.ErrNotFound) {
		return Result{
			Kind:    KindUnknownExceptionCode,
			Message: fmt.Sprintf("Sign %s raised an exception using an unknown exception code of %q (%s).", signSerial, fields.Code, fileName),
		}
	}
	if err != nil {
		return Result{
			Kind:    KindPersistenceFailure,
			Message: fmt.Sprintf("There has been an error attempting to process exception raise file %s from sign %s: %v", fileName, signSerial, err),
		}
	}

	value := record.NormalizeValue(fields.RaiseValue)
	pairs, bounds := record.ParseAdditionalData(fields.AdditionalData)
	description := record.ExpandTemplate(def.DescriptionTemplate, fields.RaiseValue, pairs)

	raisedLocal, err := record.ParseRaiseTimestamp(fields.RaiseTimestamp)
	if err != nil {
		return Result{
			Kind:    KindInvalidTimestamp,
			Message: fmt.Sprintf("Sign %s raised exception %q with an invalid timestamp (%s): %v", signSerial, fields.Code, fileName, err),
		}
	}

	raiseValue, err := p.clampToConstraints(ctx, fields.Code, fields.RaiseValue)
	if err != nil {
		return Result{
			Kind:    KindPersistenceFailure,
			Message: fmt.Sprintf("There has been an error attempting to process exception raise file %s from sign %s: %v", fileName, signSerial, err),
		}
	}

	rec := &database.LiveException{
		SignSerialNumber:    signSerial,
		ExceptionCodeID:     def.ExceptionCodeID,
		ExceptionCategoryID: def.ExceptionCategoryID,
		ExceptionTypeID:     def.ExceptionTypeID,
		RaisedLocal:         raisedLocal,
		RaiseValue:          raiseValue,
		Value:               value,
		MinValue:            bounds.Min,
		MaxValue:            bounds.Max,
		Description:         description,
		Inserted:            time.Now().UTC(),
	}

	if err := p.ledger.InsertLiveException(ctx, rec); err != nil {
		if errors.Is(err, database.ErrDuplicateException) {
			p.recorder.RecordDuplicate()
			return Result{
				Kind:    KindDuplicateException,
				Message: fmt.Sprintf("Sign %s raised a duplicate exception using code of %q.", signSerial, fields.Code),
			}
		}
		return Result{
			Kind:    KindPersistenceFailure,
			Message: fmt.Sprintf("There has been an error attempting to process exception raise file %s from sign %s: %v", fileName, signSerial, err),
		}
	}

	raise := notify.Raise{
		SignSerialNumber: signSerial,
		RaisedLocal:      raisedLocal,
		Description:      description,
	}
	published, err := p.dispatcher.Dispatch(ctx, raise, def)
	if err != nil {
		// The insert stands; only the notification failed. The file still
		// routes to the error directory so the raise gets re-examined.
		slog.Error("Notification dispatch failed",
			"sign_serial", signSerial,
			"exception_code", fields.Code,
			"error", err,
		)
		return Result{
			Kind:    KindDispatchFailure,
			Message: fmt.Sprintf("Failed to dispatch notifications for exception raise file %s from sign %s: %v", fileName, signSerial, err),
		}
	}
	if published {
		p.recorder.RecordNotificationPublished()
	}

	return Result{Kind: KindProcessed}
}

// clampToConstraints returns the raise value adjusted to the nearest
// configured boundary for the code. A non-numeric raise value clamps from
// zero, matching the ledger's decimal default.
func (p *Pipeline) clampToConstraints(ctx context.Context, code, rawValue string) (float64, error) {
	constraints, err := p.ledger.GetExceptionConstraints(ctx, code)
	if err != nil {
		return 0, err
	}
	parsed, err := strconv.ParseFloat(rawValue, 64)
	if err != nil {
		parsed = 0
	}
	return record.Clamp(parsed, constraints.Min, constraints.Max), nil
}
