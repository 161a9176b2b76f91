package compliance

import (
	"context"
	"fmt"
	"time"

	"lexguard-backend/internal/llm"
	"lexguard-backend/internal/shared/telemetry"
)

// SectionAnalyzer produces findings for one document section.
type SectionAnalyzer interface {
	Analyze(ctx context.Context, section DocumentSection) ([]Finding, error)
}

// llmAnalyzer reviews a section through an LLM client and validates the
// response against the issues schema.
type llmAnalyzer struct {
	client        llm.Client
	documentName  string
	promptVersion string
	now           func() time.Time
}

func newLLMAnalyzer(client llm.Client, documentName, promptVersion string) llmAnalyzer {
	return llmAnalyzer{
		client:        client,
		documentName:  documentName,
		promptVersion: promptVersion,
		now:           time.Now,
	}
}

func (a llmAnalyzer) Analyze(ctx context.Context, section DocumentSection) ([]Finding, error) {
	raw, err := a.client.ReviewSection(ctx, llm.ReviewInput{
		SectionTitle:   section.Title,
		SectionContent: section.Content,
		SectionLevel:   section.Level,
		DocumentName:   a.documentName,
		PromptVersion:  a.promptVersion,
	})
	if err != nil {
		return nil, err
	}
	return ParseFindings(raw, a.now().UTC())
}

const (
	analyzerMaxAttempts = 3
	analyzerRetryBase   = 500 * time.Millisecond
)

// retryingAnalyzer retries any analyzer failure (network, invalid JSON, schema
// mismatch) with linear backoff: delay = attempt * base. Exhausting the
// attempts is fatal for the current document's monitoring pass.
type retryingAnalyzer struct {
	base       SectionAnalyzer
	documentID string
	attempts   int
	baseDelay  time.Duration
}

func newRetryingAnalyzer(base SectionAnalyzer, documentID string) retryingAnalyzer {
	return retryingAnalyzer{
		base:       base,
		documentID: documentID,
		attempts:   analyzerMaxAttempts,
		baseDelay:  analyzerRetryBase,
	}
}

func (r retryingAnalyzer) Analyze(ctx context.Context, section DocumentSection) ([]Finding, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		findings, err := r.base.Analyze(ctx, section)
		if err == nil {
			return findings, nil
		}
		lastErr = err
		if attempt == r.attempts {
			break
		}
		telemetry.Error("compliance.analyzer.retry", map[string]any{
			"document_id": r.documentID,
			"section":     section.Title,
			"attempt":     attempt,
			"error":       sanitizeError(err),
		})
		select {
		case <-time.After(time.Duration(attempt) * r.baseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("analyze section %q: %w", section.Title, lastErr)
}
