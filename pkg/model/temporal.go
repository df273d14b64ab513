package model

import "time"

// TemporalCacheEntry records a successfully resolved image so that later
// images taken close in time can pick up a temporal bonus. Session scoped.
type TemporalCacheEntry struct {
	ImagePath      string    `json:"imagePath"`
	ResolvedNumber string    `json:"resolvedNumber"`
	Confidence     float64   `json:"confidence"`
	Timestamp      time.Time `json:"timestamp"`
}
