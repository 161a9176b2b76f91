package documents

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidInput = errors.New("invalid input")
)

// DocumentsRepo defines persistence operations for documents.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	GetCurrentByUser(ctx context.Context, userID string) (Document, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error)
	UpdateExtraction(ctx context.Context, userID, documentID, extractedKey string, extractedAt time.Time) error

	// Monitoring operations. These are keyed by document ID alone because the
	// monitor loop runs without a user in scope.
	GetForScan(ctx context.Context, documentID string) (Document, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]Document, error)
	SetMonitoringEnabled(ctx context.Context, userID, documentID string, enabled bool, nextScanDue time.Time) error
	UpdateMonitoringStatus(ctx context.Context, documentID, status string) error
	UpdateMonitoringResult(ctx context.Context, documentID, status string, riskScore int, scannedAt, nextScanDue time.Time) error
}
