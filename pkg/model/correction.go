package model

// CorrectionKind classifies entries of the correction audit trail.
type CorrectionKind int

const (
	CorrectionOCR CorrectionKind = iota
	CorrectionFuzzy
	CorrectionTemporal
	CorrectionFastTrack
)

func (k CorrectionKind) String() string {
	switch k {
	case CorrectionOCR:
		return "ocr"
	case CorrectionFuzzy:
		return "fuzzy"
	case CorrectionTemporal:
		return "temporal"
	case CorrectionFastTrack:
		return "fastTrack"
	default:
		return "unknown"
	}
}

// CorrectionRecord is one audit entry describing a value the engine
// rewrote or shortcut while resolving an image. Append-only per image;
// the trail resets when the next image starts.
type CorrectionRecord struct {
	Kind           CorrectionKind    `json:"kind"`
	Field          string            `json:"field"`
	OriginalValue  string            `json:"originalValue"`
	CorrectedValue string            `json:"correctedValue"`
	Reason         string            `json:"reason"`
	Confidence     float64           `json:"confidence"`
	Details        map[string]string `json:"details,omitempty"`
}
