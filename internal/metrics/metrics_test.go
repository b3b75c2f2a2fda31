package metrics

import (
	"testing"
	"time"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("ingestor-test", nil)

	c.RecordFileReceived()
	c.RecordFileReceived()
	c.RecordFileProcessed(10 * time.Millisecond)
	c.RecordFileErrored(30 * time.Millisecond)
	c.RecordNotificationPublished()
	c.RecordDuplicate()

	s := c.Snapshot()
	if s.FilesReceived != 2 {
		t.Errorf("FilesReceived = %d, want 2", s.FilesReceived)
	}
	if s.FilesProcessed != 1 {
		t.Errorf("FilesProcessed = %d, want 1", s.FilesProcessed)
	}
	if s.FilesErrored != 1 {
		t.Errorf("FilesErrored = %d, want 1", s.FilesErrored)
	}
	if s.NotificationsPublished != 1 {
		t.Errorf("NotificationsPublished = %d, want 1", s.NotificationsPublished)
	}
	if s.DuplicateRaises != 1 {
		t.Errorf("DuplicateRaises = %d, want 1", s.DuplicateRaises)
	}

	wantAvg := float64((10*time.Millisecond + 30*time.Millisecond).Nanoseconds()) / 2
	if s.AvgProcessingLatency != wantAvg {
		t.Errorf("AvgProcessingLatency = %v, want %v", s.AvgProcessingLatency, wantAvg)
	}
}

func TestNoOp(t *testing.T) {
	// NoOp must accept every call without side effects.
	var r Recorder = NewNoOp()
	r.RecordFileReceived()
	r.RecordFileProcessed(time.Millisecond)
	r.RecordFileErrored(time.Millisecond)
	r.RecordNotificationPublished()
	r.RecordDuplicate()
}
