// Package monitor drives scheduled compliance passes over monitored documents.
package monitor

import (
	"context"
	"errors"
	"time"

	"lexguard-backend/internal/compliance"
	"lexguard-backend/internal/documents"
	"lexguard-backend/internal/shared/metrics"
	"lexguard-backend/internal/shared/telemetry"
)

const (
	defaultInterval   = 5 * time.Minute
	defaultBatchLimit = 20
)

// Checker runs one monitoring pass for a document.
type Checker interface {
	RunCheck(ctx context.Context, documentID string) (compliance.CheckResult, error)
}

// Loop polls for due documents on a fixed interval and runs a pass for each.
// Documents are processed sequentially within one tick so a slow pass delays
// its tick rather than piling up goroutines.
type Loop struct {
	Docs       documents.DocumentsRepo
	Checker    Checker
	Interval   time.Duration
	BatchLimit int
}

// Run ticks until the context is canceled. The first tick fires immediately.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.RunOnce(ctx)
		}
	}
}

// RunOnce processes one batch of due documents and returns how many passes ran.
func (l *Loop) RunOnce(ctx context.Context) int {
	metrics.IncMonitorTicks()

	limit := l.BatchLimit
	if limit <= 0 {
		limit = defaultBatchLimit
	}

	due, err := l.Docs.ListDue(ctx, time.Now().UTC(), limit)
	if err != nil {
		telemetry.Error("monitor.list_due_failed", map[string]any{"error": err.Error()})
		return 0
	}
	if len(due) == 0 {
		return 0
	}

	telemetry.Info("monitor.tick", map[string]any{"due": len(due)})

	ran := 0
	for _, doc := range due {
		if ctx.Err() != nil {
			return ran
		}
		result, err := l.Checker.RunCheck(ctx, doc.ID)
		if err != nil {
			if errors.Is(err, compliance.ErrScanInProgress) {
				telemetry.Info("monitor.skip_in_flight", map[string]any{"document_id": doc.ID})
				continue
			}
			telemetry.Error("monitor.pass_failed", map[string]any{
				"document_id": doc.ID,
				"error":       err.Error(),
			})
			ran++
			continue
		}
		ran++
		telemetry.Info("monitor.pass_done", map[string]any{
			"document_id":   doc.ID,
			"status":        string(result.Status),
			"risk_score":    result.RiskScore,
			"finding_count": len(result.Findings),
		})
	}
	return ran
}
