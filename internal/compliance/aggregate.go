package compliance

import (
	"math"
	"time"
)

// Aggregate combines per-section findings into a document-level risk score,
// compliance status and next review date. The score is the rounded per-section
// average of severity scores plus a capped penalty for critical findings,
// clamped to [0,100]. Any critical finding forces FLAGGED regardless of the
// numeric score; the review date tier is keyed on the numeric score only.
//
// A sectionCount of zero yields a benign empty result instead of dividing.
func Aggregate(findings []Finding, sectionCount int, now time.Time, p Policy) CheckResult {
	if sectionCount <= 0 {
		return CheckResult{
			RiskScore:      0,
			Status:         StatusCompliant,
			NextReviewDate: now.AddDate(0, 0, p.ReviewLowDays),
			SectionCount:   0,
		}
	}

	totalScore := 0
	criticalCount := 0
	for _, f := range findings {
		totalScore += p.scoreFor(f.Severity)
		if f.Severity == SeverityCritical {
			criticalCount++
		}
	}

	score := int(math.Round(float64(totalScore) / float64(sectionCount)))
	if criticalCount > 0 {
		bonus := criticalCount * p.CriticalBonus
		if bonus > p.CriticalBonusCap {
			bonus = p.CriticalBonusCap
		}
		score += bonus
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	status := StatusCompliant
	switch {
	case criticalCount > 0:
		status = StatusFlagged
	case score > p.NonCompliantOver:
		status = StatusNonCompliant
	}

	days := p.ReviewLowDays
	switch {
	case score >= p.HighRiskAt:
		days = p.ReviewHighDays
	case score >= p.ModerateRiskAt:
		days = p.ReviewModerateDays
	}

	return CheckResult{
		Findings:       findings,
		RiskScore:      score,
		Status:         status,
		NextReviewDate: now.AddDate(0, 0, days),
		SectionCount:   sectionCount,
	}
}
