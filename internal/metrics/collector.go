package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// metricsKeyPrefix is the Redis key prefix for service metrics.
	metricsKeyPrefix = "metrics:"
	// metricsTTL is how long metrics stay in Redis if not refreshed.
	metricsTTL = 2 * time.Minute
	// DefaultReportInterval is the default interval for writing metrics to Redis.
	DefaultReportInterval = 30 * time.Second
)

// ServiceMetrics is the snapshot written to Redis.
type ServiceMetrics struct {
	ServiceName string    `json:"service_name"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`

	FilesReceived          uint64 `json:"files_received"`
	FilesProcessed         uint64 `json:"files_processed"`
	FilesErrored           uint64 `json:"files_errored"`
	NotificationsPublished uint64 `json:"notifications_published"`
	DuplicateRaises        uint64 `json:"duplicate_raises"`

	FilesPerSecond       float64 `json:"files_per_second"`
	AvgProcessingLatency float64 `json:"avg_processing_latency_ns"`
}

// Collector records pipeline counters and periodically reports them to
// Redis.
type Collector struct {
	serviceName    string
	redis          *redis.Client
	startedAt      time.Time
	reportInterval time.Duration

	filesReceived          atomic.Uint64
	filesProcessed         atomic.Uint64
	filesErrored           atomic.Uint64
	notificationsPublished atomic.Uint64
	duplicateRaises        atomic.Uint64

	totalLatencyNs atomic.Uint64
	latencyCount   atomic.Uint64

	mu            sync.Mutex
	lastReport    time.Time
	lastFileCount uint64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewCollector creates a metrics collector reporting under the given service
// name.
func NewCollector(serviceName string, redisClient *redis.Client) *Collector {
	now := time.Now().UTC()
	return &Collector{
		serviceName:    serviceName,
		redis:          redisClient,
		startedAt:      now,
		lastReport:     now,
		reportInterval: DefaultReportInterval,
		stopCh:         make(chan struct{}),
	}
}

// SetReportInterval sets the interval for writing metrics to Redis.
func (c *Collector) SetReportInterval(interval time.Duration) {
	c.reportInterval = interval
}

// Start begins the periodic metrics reporting to Redis.
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.writeMetrics(context.Background()) // Final write
				return
			case <-c.stopCh:
				c.writeMetrics(context.Background()) // Final write
				return
			case <-ticker.C:
				c.writeMetrics(ctx)
			}
		}
	}()
}

// Stop stops the metrics reporting.
func (c *Collector) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

func (c *Collector) RecordFileReceived() {
	c.filesReceived.Add(1)
}

func (c *Collector) RecordFileProcessed(latency time.Duration) {
	c.filesProcessed.Add(1)
	c.totalLatencyNs.Add(uint64(latency.Nanoseconds()))
	c.latencyCount.Add(1)
}

func (c *Collector) RecordFileErrored(latency time.Duration) {
	c.filesErrored.Add(1)
	c.totalLatencyNs.Add(uint64(latency.Nanoseconds()))
	c.latencyCount.Add(1)
}

func (c *Collector) RecordNotificationPublished() {
	c.notificationsPublished.Add(1)
}

func (c *Collector) RecordDuplicate() {
	c.duplicateRaises.Add(1)
}

// Snapshot returns current metrics without writing to Redis.
func (c *Collector) Snapshot() *ServiceMetrics {
	now := time.Now().UTC()
	processed := c.filesProcessed.Load()
	errored := c.filesErrored.Load()
	handled := processed + errored

	c.mu.Lock()
	elapsed := now.Sub(c.lastReport).Seconds()
	var rate float64
	if elapsed > 0 {
		rate = float64(handled-c.lastFileCount) / elapsed
	}
	c.lastReport = now
	c.lastFileCount = handled
	c.mu.Unlock()

	var avgLatency float64
	if count := c.latencyCount.Load(); count > 0 {
		avgLatency = float64(c.totalLatencyNs.Load()) / float64(count)
	}

	return &ServiceMetrics{
		ServiceName:            c.serviceName,
		StartedAt:              c.startedAt,
		LastUpdated:            now,
		FilesReceived:          c.filesReceived.Load(),
		FilesProcessed:         processed,
		FilesErrored:           errored,
		NotificationsPublished: c.notificationsPublished.Load(),
		DuplicateRaises:        c.duplicateRaises.Load(),
		FilesPerSecond:         rate,
		AvgProcessingLatency:   avgLatency,
	}
}

// writeMetrics serializes the current snapshot to Redis.
func (c *Collector) writeMetrics(ctx context.Context) {
	snapshot := c.Snapshot()

	data, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("Failed to marshal metrics snapshot", "error", err)
		return
	}

	key := fmt.Sprintf("%s%s", metricsKeyPrefix, c.serviceName)
	if err := c.redis.Set(ctx, key, data, metricsTTL).Err(); err != nil {
		slog.Warn("Failed to write metrics to Redis", "error", err)
	}
}

// Ensure Collector implements Recorder
var _ Recorder = (*Collector)(nil)
