package compliance

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const checkColumns = `id, document_id, risk_score, status, section_count, finding_count, next_review_date, started_at, completed_at`

const findingColumns = `id, document_id, check_id, clause, description, severity, recommendation, reference, status, created_at, resolved_at`

// SaveCheck stores a completed check and its findings in one transaction.
func (r *PGRepo) SaveCheck(ctx context.Context, check Check, findings []Finding) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const insertCheck = `
INSERT INTO compliance_checks (` + checkColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.ExecContext(ctx, insertCheck,
		check.ID,
		check.DocumentID,
		check.RiskScore,
		check.Status,
		check.SectionCount,
		check.FindingCount,
		check.NextReviewDate,
		check.StartedAt,
		check.CompletedAt,
	); err != nil {
		return err
	}

	const insertFinding = `
INSERT INTO findings (` + findingColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for _, f := range findings {
		if _, err := tx.ExecContext(ctx, insertFinding,
			f.ID,
			f.DocumentID,
			f.CheckID,
			f.Clause,
			f.Description,
			f.Severity,
			f.Recommendation,
			f.Reference,
			f.Status,
			f.CreatedAt,
			f.ResolvedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LatestCheck returns the most recent check for a document.
func (r *PGRepo) LatestCheck(ctx context.Context, documentID string) (Check, error) {
	const query = `
SELECT ` + checkColumns + `
FROM compliance_checks
WHERE document_id = $1
ORDER BY completed_at DESC
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, documentID)
	check, err := scanCheck(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Check{}, ErrNoCheck
		}
		return Check{}, err
	}
	return check, nil
}

// ListFindingsByCheck returns findings attached to a check in insertion order.
func (r *PGRepo) ListFindingsByCheck(ctx context.Context, checkID string) ([]Finding, error) {
	const query = `
SELECT ` + findingColumns + `
FROM findings
WHERE check_id = $1
ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, checkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFindings(rows)
}

// ListFindingsByDocument returns findings for a document, newest first.
func (r *PGRepo) ListFindingsByDocument(ctx context.Context, documentID, status string, limit, offset int) ([]Finding, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	const query = `
SELECT ` + findingColumns + `
FROM findings
WHERE document_id = $1 AND ($2 = '' OR status = $2)
ORDER BY created_at DESC, id ASC
LIMIT $3 OFFSET $4`
	rows, err := r.DB.QueryContext(ctx, query, documentID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFindings(rows)
}

// ResolveFinding marks a finding resolved and returns the updated row.
func (r *PGRepo) ResolveFinding(ctx context.Context, documentID, findingID string) (Finding, error) {
	const query = `
UPDATE findings
SET status = $1,
    resolved_at = COALESCE(resolved_at, now())
WHERE id = $2 AND document_id = $3
RETURNING ` + findingColumns
	row := r.DB.QueryRowContext(ctx, query, FindingResolved, findingID, documentID)
	finding, err := scanFinding(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Finding{}, ErrNotFound
		}
		return Finding{}, err
	}
	return finding, nil
}

var _ Repo = (*PGRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheck(row rowScanner) (Check, error) {
	var c Check
	var nextReview sql.NullTime
	if err := row.Scan(
		&c.ID,
		&c.DocumentID,
		&c.RiskScore,
		&c.Status,
		&c.SectionCount,
		&c.FindingCount,
		&nextReview,
		&c.StartedAt,
		&c.CompletedAt,
	); err != nil {
		return Check{}, err
	}
	if nextReview.Valid {
		c.NextReviewDate = nextReview.Time
	}
	return c, nil
}

func scanFinding(row rowScanner) (Finding, error) {
	var f Finding
	var recommendation sql.NullString
	var reference sql.NullString
	var resolvedAt sql.NullTime
	if err := row.Scan(
		&f.ID,
		&f.DocumentID,
		&f.CheckID,
		&f.Clause,
		&f.Description,
		&f.Severity,
		&recommendation,
		&reference,
		&f.Status,
		&f.CreatedAt,
		&resolvedAt,
	); err != nil {
		return Finding{}, err
	}
	if recommendation.Valid {
		f.Recommendation = recommendation.String
	}
	if reference.Valid {
		f.Reference = reference.String
	}
	if resolvedAt.Valid {
		f.ResolvedAt = &resolvedAt.Time
	}
	return f, nil
}

func collectFindings(rows *sql.Rows) ([]Finding, error) {
	var out []Finding
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
