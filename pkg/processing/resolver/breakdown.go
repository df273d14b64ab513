package resolver

import (
	"github.com/racetagger/raceident/pkg/model"
)

// Bonuses separates the score parts that are not direct evidence
// contributions.
type Bonuses struct {
	Temporal      float64 `json:"temporal"`
	MultiEvidence float64 `json:"multiEvidence"`
}

// Breakdown explains how a candidate's total score came together, for
// UI and debug display.
type Breakdown struct {
	EvidenceBreakdown []model.MatchedEvidence `json:"evidenceBreakdown"`
	Bonuses           Bonuses                 `json:"bonuses"`
	TotalScore        float64                 `json:"totalScore"`
}

// GetScoreBreakdown decomposes a candidate's score. The multi-evidence
// bonus is derived as the remainder after evidence contributions and
// the temporal bonus.
func GetScoreBreakdown(cand *model.MatchCandidate) *Breakdown {
	evidenceSum := 0.0
	for _, me := range cand.MatchedEvidence {
		evidenceSum += me.Score
	}
	multi := cand.Score - evidenceSum - cand.TemporalBonus
	if multi < 0 {
		multi = 0
	}
	return &Breakdown{
		EvidenceBreakdown: cand.MatchedEvidence,
		Bonuses: Bonuses{
			Temporal:      cand.TemporalBonus,
			MultiEvidence: multi,
		},
		TotalScore: cand.Score,
	}
}
