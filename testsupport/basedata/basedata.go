package basedata

import (
	"time"

	"github.com/racetagger/raceident/pkg/model"
	"github.com/racetagger/raceident/pkg/profile"
)

func TestTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2025-06-14T11:10:12Z")
	return t
}

// SampleRoster is a small rally field with the discriminators the
// engine cares about: a unique driver, a shared sponsor, a unique
// sponsor, numbers prone to OCR confusion (81 vs 18, 45).
func SampleRoster() *model.Roster {
	return &model.Roster{
		ID: "testevent",
		Participants: []model.Participant{
			{
				ID:        "p1",
				Number:    "7",
				Driver:    "Rossi",
				Navigator: "Bianchi",
				Team:      "Scuderia Nord",
				Sponsors:  []string{"Shell, Pirelli"},
				Category:  "RC2",
				Plate:     "TO-123-AB",
			},
			{
				ID:       "p2",
				Number:   "42",
				Team:     "Privateer",
				Sponsors: []string{"Pirelli"},
				Category: "RC2",
			},
			{
				ID:       "p3",
				Number:   "81",
				Driver:   "Kovanen",
				Team:     "Polar Racing",
				Sponsors: []string{"Neste, Pirelli"},
				Category: "RC1",
			},
			{
				ID:       "p4",
				Number:   "18",
				Driver:   "Meier",
				Team:     "Polar Racing",
				Sponsors: []string{"Castrol"},
				Category: "RC1",
				Plate:    "M-456-CD",
			},
			{
				ID:     "p5",
				Number: "45",
				Driver: "Svensson",
				Team:   "Nordlicht",
			},
		},
	}
}

// SampleProfile is the motorsport default profile.
func SampleProfile() *profile.Profile {
	return profile.Motorsport()
}

// NumberResult builds the most common AI output shape: just a race
// number with a confidence.
func NumberResult(imagePath, number string, conf float64) *model.AIResult {
	return &model.AIResult{
		ImagePath:  imagePath,
		RaceNumber: &model.Detection{Value: number, Confidence: conf},
	}
}

// TimedResult attaches a capture timestamp offset to a number result.
func TimedResult(imagePath, number string, conf float64, offset time.Duration) *model.AIResult {
	ret := NumberResult(imagePath, number, conf)
	ts := TestTime().Add(offset)
	ret.Timestamp = &ts
	return ret
}
