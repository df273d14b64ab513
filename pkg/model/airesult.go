package model

import "time"

// Detection is a detected text value with the confidence the AI assigned
// to it.
type Detection struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// AIResult is the raw per-image detection record as delivered by the AI
// collaborator. Pointer fields distinguish "not detected" (nil) from
// "detected but empty"; neither produces evidence, but downstream
// consumers can tell them apart.
type AIResult struct {
	ImagePath  string     `json:"imagePath"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	RaceNumber *Detection `json:"raceNumber,omitempty"`
	Drivers    []string   `json:"drivers,omitempty"`
	Sponsors   []string   `json:"sponsors,omitempty"`
	Team       *string    `json:"team,omitempty"`
	Category   *string    `json:"category,omitempty"`
	Plate      *Detection `json:"plate,omitempty"`
}
