package documents

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `
id, user_id, file_name, original_filename, mime_type, content_type, size_bytes,
storage_provider, storage_key, extracted_text_key, extracted_at,
monitoring_enabled, monitoring_status, risk_score, last_scanned_at, next_scan_due, created_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    user_id,
    file_name,
    original_filename,
    mime_type,
    content_type,
    size_bytes,
    storage_provider,
    storage_key,
    monitoring_enabled,
    monitoring_status,
    next_scan_due,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	originalName := doc.OriginalFilename
	if originalName == "" {
		originalName = doc.FileName
	}
	contentType := doc.ContentType
	if contentType == "" {
		contentType = doc.MimeType
	}
	storageProvider := doc.StorageProvider
	if storageProvider == "" {
		storageProvider = "local"
	}
	status := doc.MonitoringStatus
	if status == "" {
		status = MonitoringPending
	}

	var storageKey sql.NullString
	if doc.StorageKey != "" {
		storageKey = sql.NullString{String: doc.StorageKey, Valid: true}
	}
	var nextScanDue sql.NullTime
	if doc.NextScanDue != nil {
		nextScanDue = sql.NullTime{Time: *doc.NextScanDue, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.FileName,
		originalName,
		doc.MimeType,
		contentType,
		doc.SizeBytes,
		storageProvider,
		storageKey,
		doc.MonitoringEnabled,
		status,
		nextScanDue,
		doc.CreatedAt,
	)
	return err
}

func scanDocument(row interface{ Scan(dest ...any) error }) (Document, error) {
	var doc Document
	var originalName sql.NullString
	var contentType sql.NullString
	var storageProvider sql.NullString
	var storageKey sql.NullString
	var extractedKey sql.NullString
	var extractedAt sql.NullTime
	var monitoringStatus sql.NullString
	var riskScore sql.NullInt64
	var lastScannedAt sql.NullTime
	var nextScanDue sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&originalName,
		&doc.MimeType,
		&contentType,
		&doc.SizeBytes,
		&storageProvider,
		&storageKey,
		&extractedKey,
		&extractedAt,
		&doc.MonitoringEnabled,
		&monitoringStatus,
		&riskScore,
		&lastScannedAt,
		&nextScanDue,
		&doc.CreatedAt,
	)
	if err != nil {
		return Document{}, err
	}
	if originalName.Valid {
		doc.OriginalFilename = originalName.String
	}
	if contentType.Valid {
		doc.ContentType = contentType.String
	}
	if storageProvider.Valid {
		doc.StorageProvider = storageProvider.String
	}
	if storageKey.Valid {
		doc.StorageKey = storageKey.String
	}
	if extractedKey.Valid {
		doc.ExtractedTextKey = extractedKey.String
	}
	if extractedAt.Valid {
		doc.ExtractedAt = &extractedAt.Time
	}
	if monitoringStatus.Valid {
		doc.MonitoringStatus = monitoringStatus.String
	}
	if riskScore.Valid {
		doc.RiskScore = int(riskScore.Int64)
	}
	if lastScannedAt.Valid {
		doc.LastScannedAt = &lastScannedAt.Time
	}
	if nextScanDue.Valid {
		doc.NextScanDue = &nextScanDue.Time
	}
	return doc, nil
}

// GetByID fetches a document by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, userID, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// GetCurrentByUser returns the latest document for a user.
func (r *PGRepo) GetCurrentByUser(ctx context.Context, userID string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByUser lists documents ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdateExtraction stores the extracted text metadata for a document.
func (r *PGRepo) UpdateExtraction(ctx context.Context, userID, documentID, extractedKey string, extractedAt time.Time) error {
	const query = `
UPDATE documents
SET extracted_text_key = $1, extracted_at = $2
WHERE user_id = $3 AND id = $4 AND extracted_text_key IS NULL`
	_, err := r.DB.ExecContext(ctx, query, extractedKey, extractedAt, userID, documentID)
	return err
}

// GetForScan fetches a document by ID alone, for the monitor loop.
func (r *PGRepo) GetForScan(ctx context.Context, documentID string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE id = $1 AND deleted_at IS NULL
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListDue returns monitored documents whose next scan is due, oldest first.
func (r *PGRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE monitoring_enabled = TRUE
  AND deleted_at IS NULL
  AND (monitoring_status <> $1 OR last_scanned_at IS NULL OR last_scanned_at <= $2)
  AND (next_scan_due IS NULL OR next_scan_due <= $3)
ORDER BY next_scan_due ASC NULLS FIRST
LIMIT $4`

	rows, err := r.DB.QueryContext(ctx, query, MonitoringChecking, now.Add(-CheckingStaleAfter), now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// SetMonitoringEnabled toggles monitoring for a user's document.
func (r *PGRepo) SetMonitoringEnabled(ctx context.Context, userID, documentID string, enabled bool, nextScanDue time.Time) error {
	const query = `
UPDATE documents
SET monitoring_enabled = $1, next_scan_due = $2
WHERE user_id = $3 AND id = $4 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, enabled, nextScanDue, userID, documentID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateMonitoringStatus sets only the monitoring status.
func (r *PGRepo) UpdateMonitoringStatus(ctx context.Context, documentID, status string) error {
	const query = `
UPDATE documents
SET monitoring_status = $1
WHERE id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, status, documentID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateMonitoringResult persists the outcome of a completed monitoring pass.
func (r *PGRepo) UpdateMonitoringResult(ctx context.Context, documentID, status string, riskScore int, scannedAt, nextScanDue time.Time) error {
	const query = `
UPDATE documents
SET monitoring_status = $1, risk_score = $2, last_scanned_at = $3, next_scan_due = $4
WHERE id = $5 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, status, riskScore, scannedAt, nextScanDue, documentID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ DocumentsRepo = (*PGRepo)(nil)
