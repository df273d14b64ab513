package model

// EvidenceKind enumerates the types of observations the AI detection may
// produce for an image. The scoring code switches exhaustively over this
// type; adding a kind is a compile-time visible change.
type EvidenceKind int

const (
	EvidenceRaceNumber EvidenceKind = iota
	EvidencePersonName
	EvidenceSponsor
	EvidenceTeam
	EvidenceCategory
	EvidencePlateNumber
)

func (k EvidenceKind) String() string {
	switch k {
	case EvidenceRaceNumber:
		return "raceNumber"
	case EvidencePersonName:
		return "personName"
	case EvidenceSponsor:
		return "sponsor"
	case EvidenceTeam:
		return "team"
	case EvidenceCategory:
		return "category"
	case EvidencePlateNumber:
		return "plateNumber"
	default:
		return "unknown"
	}
}

// Evidence is one typed, confidence-scored observation extracted from the
// AI output. Immutable once extracted.
type Evidence struct {
	Kind       EvidenceKind `json:"kind"`
	Value      string       `json:"value"`
	Confidence float64      `json:"confidence"`
}

// MatchedEvidence annotates an Evidence item with the score it contributed
// during evaluation of one candidate. The annotation lives here and not on
// Evidence itself so that the extracted items stay immutable.
type MatchedEvidence struct {
	Evidence
	Score float64 `json:"score"`
}
