package compliance

import "context"

// Repo persists compliance checks and their findings.
type Repo interface {
	// SaveCheck stores a completed check together with its findings.
	SaveCheck(ctx context.Context, check Check, findings []Finding) error
	// LatestCheck returns the most recent completed check for a document.
	LatestCheck(ctx context.Context, documentID string) (Check, error)
	// ListFindingsByCheck returns all findings attached to a check.
	ListFindingsByCheck(ctx context.Context, checkID string) ([]Finding, error)
	// ListFindingsByDocument returns findings for a document, optionally
	// filtered by status, newest first.
	ListFindingsByDocument(ctx context.Context, documentID, status string, limit, offset int) ([]Finding, error)
	// ResolveFinding marks a finding resolved. Resolving an already
	// resolved finding is a no-op.
	ResolveFinding(ctx context.Context, documentID, findingID string) (Finding, error)
}
