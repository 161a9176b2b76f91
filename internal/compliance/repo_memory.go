package compliance

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo for tests and local development.
type MemoryRepo struct {
	mu       sync.Mutex
	checks   map[string][]Check   // document ID -> checks
	findings map[string][]Finding // document ID -> findings
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		checks:   map[string][]Check{},
		findings: map[string][]Finding{},
	}
}

func (r *MemoryRepo) SaveCheck(ctx context.Context, check Check, findings []Finding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[check.DocumentID] = append(r.checks[check.DocumentID], check)
	r.findings[check.DocumentID] = append(r.findings[check.DocumentID], findings...)
	return nil
}

func (r *MemoryRepo) LatestCheck(ctx context.Context, documentID string) (Check, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	checks := r.checks[documentID]
	if len(checks) == 0 {
		return Check{}, ErrNoCheck
	}
	latest := checks[0]
	for _, c := range checks[1:] {
		if c.CompletedAt.After(latest.CompletedAt) {
			latest = c
		}
	}
	return latest, nil
}

func (r *MemoryRepo) ListFindingsByCheck(ctx context.Context, checkID string) ([]Finding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Finding
	for _, findings := range r.findings {
		for _, f := range findings {
			if f.CheckID == checkID {
				out = append(out, f)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) ListFindingsByDocument(ctx context.Context, documentID, status string, limit, offset int) ([]Finding, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Finding
	for _, f := range r.findings[documentID] {
		if status != "" && string(f.Status) != status {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) ResolveFinding(ctx context.Context, documentID, findingID string) (Finding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	findings := r.findings[documentID]
	for i := range findings {
		if findings[i].ID != findingID {
			continue
		}
		if findings[i].Status != FindingResolved {
			findings[i].Status = FindingResolved
			now := time.Now().UTC()
			findings[i].ResolvedAt = &now
		}
		return findings[i], nil
	}
	return Finding{}, ErrNotFound
}

var _ Repo = (*MemoryRepo)(nil)
