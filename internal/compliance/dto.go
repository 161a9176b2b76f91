package compliance

import "time"

// FindingResponse is the API shape of a finding.
type FindingResponse struct {
	ID             string     `json:"id"`
	DocumentID     string     `json:"documentId"`
	CheckID        string     `json:"checkId"`
	Clause         string     `json:"clause"`
	Description    string     `json:"description"`
	Severity       string     `json:"severity"`
	Recommendation string     `json:"recommendation"`
	Reference      string     `json:"reference,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
}

// CheckResultResponse is the API shape of a monitoring pass outcome.
type CheckResultResponse struct {
	CheckID        string            `json:"checkId"`
	RiskScore      int               `json:"riskScore"`
	Status         string            `json:"status"`
	NextReviewDate time.Time         `json:"nextReviewDate"`
	SectionCount   int               `json:"sectionCount"`
	Findings       []FindingResponse `json:"findings"`
}

func toFindingResponse(f Finding) FindingResponse {
	return FindingResponse{
		ID:             f.ID,
		DocumentID:     f.DocumentID,
		CheckID:        f.CheckID,
		Clause:         f.Clause,
		Description:    f.Description,
		Severity:       string(f.Severity),
		Recommendation: f.Recommendation,
		Reference:      f.Reference,
		Status:         string(f.Status),
		CreatedAt:      f.CreatedAt,
		ResolvedAt:     f.ResolvedAt,
	}
}

func toFindingResponses(findings []Finding) []FindingResponse {
	out := make([]FindingResponse, 0, len(findings))
	for _, f := range findings {
		out = append(out, toFindingResponse(f))
	}
	return out
}

func toResultResponse(result CheckResult) CheckResultResponse {
	return CheckResultResponse{
		CheckID:        result.CheckID,
		RiskScore:      result.RiskScore,
		Status:         string(result.Status),
		NextReviewDate: result.NextReviewDate,
		SectionCount:   result.SectionCount,
		Findings:       toFindingResponses(result.Findings),
	}
}
