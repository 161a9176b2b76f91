package compliance

import (
	"strings"
	"time"
)

// Severity is the ordinal rating attached to a finding. It drives both the
// numeric risk score and status escalation.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// ParseSeverity maps a raw analyzer severity string to a known Severity.
func ParseSeverity(raw string) (Severity, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CRITICAL":
		return SeverityCritical, true
	case "HIGH":
		return SeverityHigh, true
	case "MEDIUM":
		return SeverityMedium, true
	case "LOW":
		return SeverityLow, true
	case "INFO":
		return SeverityInfo, true
	default:
		return "", false
	}
}

// FindingStatus tracks the lifecycle of a finding.
type FindingStatus string

const (
	FindingOpen     FindingStatus = "OPEN"
	FindingResolved FindingStatus = "RESOLVED"
)

// Finding is a single flagged problem in one document section.
type Finding struct {
	ID             string        `json:"id"`
	DocumentID     string        `json:"documentId"`
	CheckID        string        `json:"checkId"`
	Clause         string        `json:"clause"`
	Description    string        `json:"description"`
	Severity       Severity      `json:"severity"`
	Recommendation string        `json:"recommendation"`
	Reference      string        `json:"reference,omitempty"`
	Status         FindingStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
	ResolvedAt     *time.Time    `json:"resolvedAt,omitempty"`
}

// CheckStatus is the document-level compliance verdict of one monitoring pass.
type CheckStatus string

const (
	StatusCompliant    CheckStatus = "COMPLIANT"
	StatusNonCompliant CheckStatus = "NON_COMPLIANT"
	StatusFlagged      CheckStatus = "FLAGGED"
)

// Check is a persisted monitoring pass for a document.
type Check struct {
	ID             string      `json:"id"`
	DocumentID     string      `json:"documentId"`
	RiskScore      int         `json:"riskScore"`
	Status         CheckStatus `json:"status"`
	SectionCount   int         `json:"sectionCount"`
	FindingCount   int         `json:"findingCount"`
	NextReviewDate time.Time   `json:"nextReviewDate"`
	StartedAt      time.Time   `json:"startedAt"`
	CompletedAt    time.Time   `json:"completedAt"`
}

// CheckResult is the in-memory outcome of one chunk->analyze->aggregate cycle.
// CheckID is empty until the pass has been persisted.
type CheckResult struct {
	CheckID        string      `json:"checkId"`
	Findings       []Finding   `json:"findings"`
	RiskScore      int         `json:"riskScore"`
	Status         CheckStatus `json:"status"`
	NextReviewDate time.Time   `json:"nextReviewDate"`
	SectionCount   int         `json:"sectionCount"`
}
