package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Document // userId -> documents
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]Document),
	}
}

// Create stores a new document for a user.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.MonitoringStatus == "" {
		doc.MonitoringStatus = MonitoringPending
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.UserID] = append(r.data[doc.UserID], doc)
	return nil
}

// GetCurrentByUser returns the latest document for a user.
func (r *MemoryRepo) GetCurrentByUser(ctx context.Context, userID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	docs, ok := r.data[userID]
	if !ok || len(docs) == 0 {
		return Document{}, ErrNotFound
	}
	return docs[len(docs)-1], nil
}

// GetByID returns a document by ID for a user.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	docs := r.data[userID]
	for i := range docs {
		if docs[i].ID == documentID {
			return docs[i], nil
		}
	}
	return Document{}, ErrNotFound
}

// ListByUser returns documents for a user, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	docs := append([]Document(nil), r.data[userID]...)
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	if offset >= len(docs) {
		return []Document{}, nil
	}
	docs = docs[offset:]
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs, nil
}

// UpdateExtraction stores the extracted text metadata for a document.
func (r *MemoryRepo) UpdateExtraction(ctx context.Context, userID, documentID, extractedKey string, extractedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	docs := r.data[userID]
	for i := range docs {
		if docs[i].ID == documentID {
			if docs[i].ExtractedTextKey == "" {
				docs[i].ExtractedTextKey = extractedKey
				docs[i].ExtractedAt = &extractedAt
				r.data[userID] = docs
			}
			return nil
		}
	}
	return ErrNotFound
}

// GetForScan fetches a document by ID alone.
func (r *MemoryRepo) GetForScan(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, docs := range r.data {
		for i := range docs {
			if docs[i].ID == documentID {
				return docs[i], nil
			}
		}
	}
	return Document{}, ErrNotFound
}

// ListDue returns monitored documents whose next scan is due, oldest first.
func (r *MemoryRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	r.mu.RLock()
	var due []Document
	for _, docs := range r.data {
		for i := range docs {
			doc := docs[i]
			if !doc.MonitoringEnabled {
				continue
			}
			if doc.MonitoringStatus == MonitoringChecking &&
				doc.LastScannedAt != nil && doc.LastScannedAt.After(now.Add(-CheckingStaleAfter)) {
				continue
			}
			if doc.NextScanDue == nil || !doc.NextScanDue.After(now) {
				due = append(due, doc)
			}
		}
	}
	r.mu.RUnlock()

	sort.Slice(due, func(i, j int) bool {
		a, b := due[i].NextScanDue, due[j].NextScanDue
		if a == nil {
			return true
		}
		if b == nil {
			return false
		}
		return a.Before(*b)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *MemoryRepo) update(documentID string, fn func(doc *Document)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, docs := range r.data {
		for i := range docs {
			if docs[i].ID == documentID {
				fn(&docs[i])
				r.data[userID] = docs
				return nil
			}
		}
	}
	return ErrNotFound
}

// SetMonitoringEnabled toggles monitoring for a user's document.
func (r *MemoryRepo) SetMonitoringEnabled(ctx context.Context, userID, documentID string, enabled bool, nextScanDue time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.GetByID(ctx, userID, documentID); err != nil {
		return err
	}
	return r.update(documentID, func(doc *Document) {
		doc.MonitoringEnabled = enabled
		doc.NextScanDue = &nextScanDue
	})
}

// UpdateMonitoringStatus sets only the monitoring status.
func (r *MemoryRepo) UpdateMonitoringStatus(ctx context.Context, documentID, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.update(documentID, func(doc *Document) {
		doc.MonitoringStatus = status
	})
}

// UpdateMonitoringResult persists the outcome of a completed monitoring pass.
func (r *MemoryRepo) UpdateMonitoringResult(ctx context.Context, documentID, status string, riskScore int, scannedAt, nextScanDue time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.update(documentID, func(doc *Document) {
		doc.MonitoringStatus = status
		doc.RiskScore = riskScore
		scanned := scannedAt
		due := nextScanDue
		doc.LastScannedAt = &scanned
		doc.NextScanDue = &due
	})
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
