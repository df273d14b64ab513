package model

// MatchCandidate is the evaluation of one participant against one image.
// Created fresh per image per participant, never shared across images.
type MatchCandidate struct {
	Participant           *Participant      `json:"participant"`
	Score                 float64           `json:"score"`
	MatchedEvidence       []MatchedEvidence `json:"matchedEvidence"`
	Confidence            float64           `json:"confidence"`
	Reasoning             []string          `json:"reasoning"`
	TemporalBonus         float64           `json:"temporalBonus"`
	TemporalNeighborCount int               `json:"temporalNeighborCount"`
	IsBurstMode           bool              `json:"isBurstMode"`
	HasUniqueEvidence     bool              `json:"hasUniqueEvidence"`
	GhostVehicleWarning   bool              `json:"ghostVehicleWarning"`
}

// MatchResult is the outcome of resolving one image against the roster.
// BestMatch is nil exactly when no candidate clears the minimum score
// threshold (or restrict-to-roster mode is active and none qualifies).
type MatchResult struct {
	BestMatch          *MatchCandidate    `json:"bestMatch,omitempty"`
	AllCandidates      []*MatchCandidate  `json:"allCandidates"`
	MultipleHighScores bool               `json:"multipleHighScores"`
	ResolvedByOverride bool               `json:"resolvedByOverride"`
	Corrections        []CorrectionRecord `json:"corrections"`
}
