package compliance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Expected analyzer response (JSON mode):
// {
//   "issues": [
//     {
//       "clause": "string",
//       "description": "string",
//       "severity": "CRITICAL | HIGH | MEDIUM | LOW | INFO",
//       "recommendation": "string",
//       "reference": "string (optional)"
//     }
//   ]
// }

// SchemaError marks an analyzer response that was not valid JSON or did not
// match the expected shape. It is retryable at the analyzer level.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "analyzer response schema: " + e.Reason
}

type reviewResponse struct {
	Issues []reviewIssue `json:"issues"`
}

type reviewIssue struct {
	Clause         string `json:"clause"`
	Description    string `json:"description"`
	Severity       string `json:"severity"`
	Recommendation string `json:"recommendation"`
	Reference      string `json:"reference"`
}

// ParseFindings validates a raw analyzer response against the issues schema
// and converts it to findings. A missing "issues" key, an unknown severity, or
// an issue without its required fields all fail as a *SchemaError rather than
// being patched over with fallback values.
func ParseFindings(raw json.RawMessage, createdAt time.Time) ([]Finding, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, &SchemaError{Reason: "empty response"}
	}

	var resp reviewResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, &SchemaError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if resp.Issues == nil {
		return nil, &SchemaError{Reason: `missing "issues" array`}
	}

	findings := make([]Finding, 0, len(resp.Issues))
	for i, issue := range resp.Issues {
		severity, ok := ParseSeverity(issue.Severity)
		if !ok {
			return nil, &SchemaError{Reason: fmt.Sprintf("issue %d: unknown severity %q", i, issue.Severity)}
		}
		if issue.Clause == "" {
			return nil, &SchemaError{Reason: fmt.Sprintf("issue %d: missing clause", i)}
		}
		if issue.Description == "" {
			return nil, &SchemaError{Reason: fmt.Sprintf("issue %d: missing description", i)}
		}
		findings = append(findings, Finding{
			Clause:         issue.Clause,
			Description:    issue.Description,
			Severity:       severity,
			Recommendation: issue.Recommendation,
			Reference:      issue.Reference,
			Status:         FindingOpen,
			CreatedAt:      createdAt,
		})
	}
	return findings, nil
}
