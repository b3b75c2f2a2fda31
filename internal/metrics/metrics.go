// Package metrics records ingestion pipeline metrics. It uses the null
// object pattern so the pipeline never nil-checks its recorder.
package metrics

import "time"

// Recorder defines the interface for recording pipeline metrics.
type Recorder interface {
	// RecordFileReceived increments the count of raise files picked up.
	RecordFileReceived()

	// RecordFileProcessed records a successfully processed file with its
	// processing latency.
	RecordFileProcessed(latency time.Duration)

	// RecordFileErrored records a file routed to the error directory with
	// its processing latency.
	RecordFileErrored(latency time.Duration)

	// RecordNotificationPublished increments the count of ticket events
	// published to the queue.
	RecordNotificationPublished()

	// RecordDuplicate increments the count of duplicate-raise rejections.
	RecordDuplicate()
}

// NoOp is a no-op implementation of Recorder that discards all metrics.
// Use this when metrics collection is not configured.
type NoOp struct{}

// NewNoOp creates a new no-op metrics recorder.
func NewNoOp() *NoOp {
	return &NoOp{}
}

func (n *NoOp) RecordFileReceived()                 {}
func (n *NoOp) RecordFileProcessed(_ time.Duration) {}
func (n *NoOp) RecordFileErrored(_ time.Duration)   {}
func (n *NoOp) RecordNotificationPublished()        {}
func (n *NoOp) RecordDuplicate()                    {}

// Ensure NoOp implements Recorder
var _ Recorder = (*NoOp)(nil)
