package evidence

import (
	"strings"

	"github.com/racetagger/raceident/pkg/model"
)

// Extract converts one raw AI detection record into a flat, typed
// evidence list. A field that is absent or empty produces no evidence
// item at all; no validation or correction happens here. The output
// order follows the input record.
func Extract(res *model.AIResult) []model.Evidence {
	if res == nil {
		return nil
	}
	ret := make([]model.Evidence, 0, 4+len(res.Drivers)+len(res.Sponsors))

	if res.RaceNumber != nil && strings.TrimSpace(res.RaceNumber.Value) != "" {
		ret = append(ret, model.Evidence{
			Kind:       model.EvidenceRaceNumber,
			Value:      strings.TrimSpace(res.RaceNumber.Value),
			Confidence: res.RaceNumber.Confidence,
		})
	}
	for _, name := range res.Drivers {
		if strings.TrimSpace(name) == "" {
			continue
		}
		ret = append(ret, model.Evidence{
			Kind:       model.EvidencePersonName,
			Value:      strings.TrimSpace(name),
			Confidence: 1.0,
		})
	}
	for _, sponsor := range res.Sponsors {
		if strings.TrimSpace(sponsor) == "" {
			continue
		}
		ret = append(ret, model.Evidence{
			Kind:       model.EvidenceSponsor,
			Value:      strings.TrimSpace(sponsor),
			Confidence: 1.0,
		})
	}
	if res.Team != nil && strings.TrimSpace(*res.Team) != "" {
		ret = append(ret, model.Evidence{
			Kind:       model.EvidenceTeam,
			Value:      strings.TrimSpace(*res.Team),
			Confidence: 1.0,
		})
	}
	if res.Category != nil && strings.TrimSpace(*res.Category) != "" {
		ret = append(ret, model.Evidence{
			Kind:       model.EvidenceCategory,
			Value:      strings.TrimSpace(*res.Category),
			Confidence: 1.0,
		})
	}
	if res.Plate != nil && strings.TrimSpace(res.Plate.Value) != "" {
		ret = append(ret, model.Evidence{
			Kind:       model.EvidencePlateNumber,
			Value:      strings.TrimSpace(res.Plate.Value),
			Confidence: res.Plate.Confidence,
		})
	}
	return ret
}
