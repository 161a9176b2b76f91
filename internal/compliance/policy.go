package compliance

// Policy bundles the tunable constants of the chunk/aggregate heuristic.
// The scoring table and review tiers were drifting apart across the old
// service copies; this is the single authoritative set.
type Policy struct {
	// SectionMaxBytes caps accumulated section content before the chunker
	// flushes and opens a "(continued)" section.
	SectionMaxBytes int

	// SeverityScores maps finding severity to its score contribution.
	SeverityScores map[Severity]int

	// CriticalBonus is added per critical finding, up to CriticalBonusCap.
	CriticalBonus    int
	CriticalBonusCap int

	// NonCompliantOver is the score above which a document without critical
	// findings is reported NON_COMPLIANT.
	NonCompliantOver int

	// Review schedule tiers, keyed on the numeric score.
	HighRiskAt         int // score >= HighRiskAt reviews in ReviewHighDays
	ModerateRiskAt     int // score >= ModerateRiskAt reviews in ReviewModerateDays
	ReviewHighDays     int
	ReviewModerateDays int
	ReviewLowDays      int
}

// DefaultPolicy returns the canonical policy values.
func DefaultPolicy() Policy {
	return Policy{
		SectionMaxBytes: 12000,
		SeverityScores: map[Severity]int{
			SeverityCritical: 10,
			SeverityHigh:     7,
			SeverityMedium:   4,
			SeverityLow:      2,
			SeverityInfo:     1,
		},
		CriticalBonus:      10,
		CriticalBonusCap:   30,
		NonCompliantOver:   70,
		HighRiskAt:         70,
		ModerateRiskAt:     30,
		ReviewHighDays:     1,
		ReviewModerateDays: 3,
		ReviewLowDays:      7,
	}
}

func (p Policy) scoreFor(sev Severity) int {
	if score, ok := p.SeverityScores[sev]; ok {
		return score
	}
	return 0
}
