package audit

import (
	"time"

	"github.com/racetagger/raceident/pkg/model"
)

// Kind discriminates audit events on the wire.
type Kind string

const (
	KindMatch      Kind = "match"
	KindCorrection Kind = "correction"
)

// Event is one audit trail entry. Match events describe the outcome of
// an image resolution; correction events describe one rewrite the
// engine applied on the way there.
type Event struct {
	Kind       Kind                    `json:"kind"`
	SessionID  string                  `json:"sessionId"`
	ImagePath  string                  `json:"imagePath"`
	Timestamp  time.Time               `json:"timestamp"`
	Match      *MatchData              `json:"match,omitempty"`
	Correction *model.CorrectionRecord `json:"correction,omitempty"`
}

// MatchData is the audit payload of a resolution outcome.
type MatchData struct {
	Matched             bool    `json:"matched"`
	Number              string  `json:"number,omitempty"`
	Score               float64 `json:"score"`
	Confidence          float64 `json:"confidence"`
	MultipleHighScores  bool    `json:"multipleHighScores"`
	ResolvedByOverride  bool    `json:"resolvedByOverride"`
	GhostVehicleWarning bool    `json:"ghostVehicleWarning"`
}

// Sink consumes audit events. Implementations must never block the
// resolve path for long; dropping is preferable to stalling.
type Sink interface {
	Publish(event *Event) error
	Close()
}

// NewMatchEvent builds the audit event for one MatchResult.
func NewMatchEvent(sessionID, imagePath string, result *model.MatchResult) *Event {
	data := &MatchData{
		MultipleHighScores: result.MultipleHighScores,
		ResolvedByOverride: result.ResolvedByOverride,
	}
	if result.BestMatch != nil {
		data.Matched = true
		data.Number = result.BestMatch.Participant.Number
		data.Score = result.BestMatch.Score
		data.Confidence = result.BestMatch.Confidence
		data.GhostVehicleWarning = result.BestMatch.GhostVehicleWarning
	}
	return &Event{
		Kind:      KindMatch,
		SessionID: sessionID,
		ImagePath: imagePath,
		Timestamp: time.Now(),
		Match:     data,
	}
}

// NewCorrectionEvent builds the audit event for one correction record.
func NewCorrectionEvent(sessionID, imagePath string, rec model.CorrectionRecord) *Event {
	return &Event{
		Kind:       KindCorrection,
		SessionID:  sessionID,
		ImagePath:  imagePath,
		Timestamp:  time.Now(),
		Correction: &rec,
	}
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Publish(_ *Event) error { return nil }
func (NopSink) Close()                 {}
