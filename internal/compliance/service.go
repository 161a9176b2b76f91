package compliance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"lexguard-backend/internal/documents"
	"lexguard-backend/internal/extract"
	"lexguard-backend/internal/llm"
	"lexguard-backend/internal/shared/metrics"
	"lexguard-backend/internal/shared/storage/object"
	"lexguard-backend/internal/shared/telemetry"
	"lexguard-backend/internal/tasks"
)

// Service runs compliance monitoring passes and serves their results.
type Service struct {
	Repo          Repo
	DocRepo       documents.DocumentsRepo
	Store         object.ObjectStore
	LLM           llm.Client
	Tasks         *tasks.Runner
	Cache         *ResultCache
	Policy        Policy
	Provider      string
	Model         string
	PromptVersion string

	guard scanGuard
}

// scanGuard serializes monitoring passes per document so an on-demand scan
// and a scheduled scan never run concurrently for the same document.
type scanGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func (g *scanGuard) tryAcquire(documentID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight == nil {
		g.inFlight = make(map[string]struct{})
	}
	if _, busy := g.inFlight[documentID]; busy {
		return false
	}
	g.inFlight[documentID] = struct{}{}
	return true
}

func (g *scanGuard) release(documentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, documentID)
}

// StartScan launches an on-demand monitoring pass in the background. It
// returns ErrScanInProgress when a pass for the document is already running.
func (s *Service) StartScan(ctx context.Context, userID, documentID string) error {
	if userID == "" || documentID == "" {
		return errors.New("userID and documentID are required")
	}
	if _, err := s.DocRepo.GetByID(ctx, userID, documentID); err != nil {
		return err
	}
	if !s.guard.tryAcquire(documentID) {
		return ErrScanInProgress
	}

	bgCtx := backgroundWithRequestID(ctx)
	if s.Tasks != nil {
		s.Tasks.Go(bgCtx, "compliance.scan", func(ctx context.Context) error {
			defer s.guard.release(documentID)
			_, err := s.runPass(ctx, documentID)
			return err
		})
		return nil
	}
	go func() {
		defer s.guard.release(documentID)
		_, _ = s.runPass(bgCtx, documentID)
	}()
	return nil
}

// RunCheck executes a monitoring pass synchronously. The monitor loop calls
// this for each due document.
func (s *Service) RunCheck(ctx context.Context, documentID string) (CheckResult, error) {
	if documentID == "" {
		return CheckResult{}, errors.New("documentID is required")
	}
	if !s.guard.tryAcquire(documentID) {
		return CheckResult{}, ErrScanInProgress
	}
	defer s.guard.release(documentID)
	return s.runPass(ctx, documentID)
}

func (s *Service) runPass(ctx context.Context, documentID string) (result CheckResult, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			s.failPass(ctx, documentID, err, startedAt)
		}
	}()

	doc, err := s.DocRepo.GetForScan(ctx, documentID)
	if err != nil {
		s.failPass(ctx, documentID, fmt.Errorf("document lookup id=%s: %w", documentID, err), startedAt)
		return CheckResult{}, err
	}
	if s.Store == nil || s.LLM == nil {
		err = errors.New("missing store or llm client")
		s.failPass(ctx, documentID, err, startedAt)
		return CheckResult{}, err
	}

	if err := s.DocRepo.UpdateMonitoringStatus(ctx, documentID, documents.MonitoringChecking); err != nil {
		s.failPass(ctx, documentID, fmt.Errorf("set checking failed: %w", err), startedAt)
		return CheckResult{}, err
	}
	metrics.IncMonitoringPassStarted()
	telemetry.Info("compliance.pass", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"document_id":       documentID,
		"status":            documents.MonitoringChecking,
		"status_transition": doc.MonitoringStatus + "->" + documents.MonitoringChecking,
	})

	text, err := s.documentText(ctx, doc)
	if err != nil {
		s.failPass(ctx, documentID, err, startedAt)
		return CheckResult{}, err
	}

	sections := SplitSections(text, s.Policy.SectionMaxBytes)

	analyzer := newRetryingAnalyzer(newLLMAnalyzer(s.LLM, doc.FileName, s.promptVersion()), documentID)
	var findings []Finding
	for _, section := range sections {
		sectionFindings, analyzeErr := analyzer.Analyze(ctx, section)
		if analyzeErr != nil {
			s.failPass(ctx, documentID, analyzeErr, startedAt)
			return CheckResult{}, analyzeErr
		}
		findings = append(findings, sectionFindings...)
	}

	completedAt := time.Now().UTC()
	result = Aggregate(findings, len(sections), completedAt, s.Policy)

	check := Check{
		ID:             uuid.NewString(),
		DocumentID:     documentID,
		RiskScore:      result.RiskScore,
		Status:         result.Status,
		SectionCount:   result.SectionCount,
		FindingCount:   len(result.Findings),
		NextReviewDate: result.NextReviewDate,
		StartedAt:      startedAt,
		CompletedAt:    completedAt,
	}
	result.CheckID = check.ID
	for i := range result.Findings {
		result.Findings[i].ID = uuid.NewString()
		result.Findings[i].DocumentID = documentID
		result.Findings[i].CheckID = check.ID
	}

	if err := s.Repo.SaveCheck(ctx, check, result.Findings); err != nil {
		s.failPass(ctx, documentID, fmt.Errorf("save check failed: %w", err), startedAt)
		return CheckResult{}, err
	}
	if err := s.DocRepo.UpdateMonitoringResult(ctx, documentID, docStatusFor(result.Status), result.RiskScore, completedAt, result.NextReviewDate); err != nil {
		s.failPass(ctx, documentID, fmt.Errorf("set monitoring result failed: %w", err), startedAt)
		return CheckResult{}, err
	}
	s.Cache.Set(documentID, result)

	metrics.IncMonitoringPassCompleted()
	metrics.AddFindingsEmitted(len(result.Findings))
	metrics.ObserveMonitoringPassDurationMs(durationMs(startedAt, completedAt))
	telemetry.Info("compliance.pass", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"document_id":       documentID,
		"status":            docStatusFor(result.Status),
		"status_transition": documents.MonitoringChecking + "->" + docStatusFor(result.Status),
		"risk_score":        result.RiskScore,
		"section_count":     result.SectionCount,
		"finding_count":     len(result.Findings),
		"duration_ms":       durationMs(startedAt, completedAt),
		"provider":          s.Provider,
		"model":             s.Model,
		"prompt_version":    s.promptVersion(),
	})
	return result, nil
}

// failPass records the failure and pushes the document into the error status.
// The status update uses a fresh context so a canceled pass still lands on
// a terminal state.
func (s *Service) failPass(ctx context.Context, documentID string, err error, startedAt time.Time) {
	completedAt := time.Now().UTC()
	if updateErr := s.DocRepo.UpdateMonitoringStatus(context.Background(), documentID, documents.MonitoringError); updateErr != nil {
		telemetry.Error("compliance.pass.status_update_failed", map[string]any{
			"document_id": documentID,
			"error":       sanitizeError(updateErr),
			"orig_error":  sanitizeError(err),
		})
	}
	s.Cache.Invalidate(documentID)
	metrics.IncMonitoringPassFailed()
	metrics.ObserveMonitoringPassDurationMs(durationMs(startedAt, completedAt))
	telemetry.Info("compliance.pass", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"document_id":       documentID,
		"status":            documents.MonitoringError,
		"status_transition": documents.MonitoringChecking + "->" + documents.MonitoringError,
		"error":             sanitizeError(err),
		"duration_ms":       durationMs(startedAt, completedAt),
	})
}

// LatestResult returns the most recent check result for a document,
// preferring the in-memory cache over a repository round trip.
func (s *Service) LatestResult(ctx context.Context, userID, documentID string) (CheckResult, error) {
	if userID == "" || documentID == "" {
		return CheckResult{}, errors.New("userID and documentID are required")
	}
	if _, err := s.DocRepo.GetByID(ctx, userID, documentID); err != nil {
		return CheckResult{}, err
	}
	if cached, ok := s.Cache.Get(documentID); ok {
		return cached, nil
	}

	check, err := s.Repo.LatestCheck(ctx, documentID)
	if err != nil {
		return CheckResult{}, err
	}
	findings, err := s.Repo.ListFindingsByCheck(ctx, check.ID)
	if err != nil {
		return CheckResult{}, err
	}
	result := CheckResult{
		CheckID:        check.ID,
		Findings:       findings,
		RiskScore:      check.RiskScore,
		Status:         check.Status,
		NextReviewDate: check.NextReviewDate,
		SectionCount:   check.SectionCount,
	}
	s.Cache.Set(documentID, result)
	return result, nil
}

// ListFindings returns findings for a document, optionally filtered by status.
func (s *Service) ListFindings(ctx context.Context, userID, documentID, status string, limit, offset int) ([]Finding, error) {
	if userID == "" || documentID == "" {
		return nil, errors.New("userID and documentID are required")
	}
	if _, err := s.DocRepo.GetByID(ctx, userID, documentID); err != nil {
		return nil, err
	}
	if status != "" {
		normalized := strings.ToUpper(strings.TrimSpace(status))
		if normalized != string(FindingOpen) && normalized != string(FindingResolved) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
		}
		status = normalized
	}
	return s.Repo.ListFindingsByDocument(ctx, documentID, status, limit, offset)
}

// ResolveFinding marks a finding resolved and drops the cached result so the
// next read reflects the change.
func (s *Service) ResolveFinding(ctx context.Context, userID, documentID, findingID string) (Finding, error) {
	if userID == "" || documentID == "" || findingID == "" {
		return Finding{}, errors.New("userID, documentID and findingID are required")
	}
	if _, err := s.DocRepo.GetByID(ctx, userID, documentID); err != nil {
		return Finding{}, err
	}
	finding, err := s.Repo.ResolveFinding(ctx, documentID, findingID)
	if err != nil {
		return Finding{}, err
	}
	s.Cache.Invalidate(documentID)
	return finding, nil
}

// documentText loads the extracted text for a document, extracting on demand
// when no derived copy exists yet.
func (s *Service) documentText(ctx context.Context, doc documents.Document) (string, error) {
	extractedKey := doc.ExtractedTextKey
	if extractedKey == "" {
		text, err := extract.ExtractText(ctx, s.Store, doc.StorageKey, doc.MimeType, doc.FileName)
		if err != nil {
			return "", fmt.Errorf("document %s mime %s: %w", doc.ID, doc.MimeType, err)
		}
		extractedKey = doc.StorageKey + ".extracted.txt"
		if err := s.DocRepo.UpdateExtraction(ctx, doc.UserID, doc.ID, extractedKey, time.Now().UTC()); err != nil {
			return "", fmt.Errorf("document %s: update extraction: %w", doc.ID, err)
		}
		return text, nil
	}

	body, err := s.Store.Open(ctx, extractedKey)
	if err != nil {
		return "", fmt.Errorf("document %s: load extracted text: %w", doc.ID, err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("document %s: read extracted text: %w", doc.ID, err)
	}
	return string(data), nil
}

func (s *Service) promptVersion() string {
	if strings.TrimSpace(s.PromptVersion) == "" {
		return "v1"
	}
	return s.PromptVersion
}

// docStatusFor maps the check verdict onto the document monitoring status.
func docStatusFor(status CheckStatus) string {
	switch status {
	case StatusFlagged:
		return documents.MonitoringFlagged
	case StatusNonCompliant:
		return documents.MonitoringNonCompliant
	default:
		return documents.MonitoringCompliant
	}
}

func durationMs(startedAt, completedAt time.Time) float64 {
	if startedAt.IsZero() || completedAt.IsZero() {
		return 0
	}
	return float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
