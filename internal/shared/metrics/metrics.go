package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	monitoringPassStartedTotal   atomic.Uint64
	monitoringPassCompletedTotal atomic.Uint64
	monitoringPassFailedTotal    atomic.Uint64
	findingsEmittedTotal         atomic.Uint64
	monitorTicksTotal            atomic.Uint64

	monitoringPassDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 300000})
)

// IncMonitoringPassStarted increments the started counter.
func IncMonitoringPassStarted() {
	monitoringPassStartedTotal.Add(1)
}

// IncMonitoringPassCompleted increments the completed counter.
func IncMonitoringPassCompleted() {
	monitoringPassCompletedTotal.Add(1)
}

// IncMonitoringPassFailed increments the failed counter.
func IncMonitoringPassFailed() {
	monitoringPassFailedTotal.Add(1)
}

// AddFindingsEmitted records findings produced by a completed pass.
func AddFindingsEmitted(n int) {
	if n > 0 {
		findingsEmittedTotal.Add(uint64(n))
	}
}

// IncMonitorTicks increments the monitor loop tick counter.
func IncMonitorTicks() {
	monitorTicksTotal.Add(1)
}

// ObserveMonitoringPassDurationMs records a pass duration in milliseconds.
func ObserveMonitoringPassDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	monitoringPassDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "monitoring_pass_started_total", "Total monitoring passes started", monitoringPassStartedTotal.Load())
	writeCounter(&buf, "monitoring_pass_completed_total", "Total monitoring passes completed", monitoringPassCompletedTotal.Load())
	writeCounter(&buf, "monitoring_pass_failed_total", "Total monitoring passes failed", monitoringPassFailedTotal.Load())
	writeCounter(&buf, "findings_emitted_total", "Total findings emitted by completed passes", findingsEmittedTotal.Load())
	writeCounter(&buf, "monitor_ticks_total", "Total monitor loop ticks", monitorTicksTotal.Load())
	writeHistogram(&buf, "monitoring_pass_duration_ms", "Monitoring pass duration in milliseconds", monitoringPassDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

