package resolver

import (
	"sort"

	"github.com/racetagger/raceident/log"
	"github.com/racetagger/raceident/pkg/model"
	"github.com/racetagger/raceident/pkg/profile"
)

// fastTrack tries to settle the image on person names alone, before any
// number correction runs. A driver name on the car door is far harder to
// misread into another roster entry than a two digit number.
//
// Returns nil when names are absent, no candidate reaches the
// threshold, or two candidates tie for the top spot; the caller then
// runs the full pipeline.
func (r *Resolver) fastTrack(req *Request, prof *profile.Profile) *model.MatchResult {
	names := make([]string, 0, len(req.AIResult.Drivers))
	for _, n := range req.AIResult.Drivers {
		if n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil
	}

	candidates := make([]*model.MatchCandidate, 0, len(req.Roster.Participants))
	for i := range req.Roster.Participants {
		p := &req.Roster.Participants[i]
		cand := r.fastTrackScore(p, names, req.AIResult, prof)
		if cand.Score > 0 {
			candidates = append(candidates, cand)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].Score != candidates[b].Score {
			return candidates[a].Score > candidates[b].Score
		}
		return candidates[a].Participant.Number < candidates[b].Participant.Number
	})

	top := candidates[0]
	if top.Score < prof.FastTrackThreshold {
		return nil
	}
	if len(candidates) > 1 && candidates[1].Score == top.Score {
		// two entries share a driver name, names alone cannot decide
		r.l.Debug("fast track tie, falling back to full pipeline",
			log.String("image", req.AIResult.ImagePath))
		return nil
	}

	top.Confidence = 1.0
	detectedNumber := ""
	if req.AIResult.RaceNumber != nil {
		detectedNumber = req.AIResult.RaceNumber.Value
	}
	record := model.CorrectionRecord{
		Kind:           model.CorrectionFastTrack,
		Field:          "resolution",
		OriginalValue:  detectedNumber,
		CorrectedValue: top.Participant.Number,
		Reason:         "high-confidence name identification",
		Confidence:     top.Confidence,
	}
	r.l.Debug("fast track resolution",
		log.String("image", req.AIResult.ImagePath),
		log.String("number", top.Participant.Number),
		log.Float("score", top.Score))
	return &model.MatchResult{
		BestMatch:     top,
		AllCandidates: candidates,
		Corrections:   []model.CorrectionRecord{record},
	}
}

func (r *Resolver) fastTrackScore(
	p *model.Participant,
	names []string,
	res *model.AIResult,
	prof *profile.Profile,
) *model.MatchCandidate {
	cand := &model.MatchCandidate{Participant: p}
	participantNames := p.Names()
	for _, detected := range names {
		m := plainNameMatch(detected, participantNames)
		if m == nil {
			continue
		}
		var score float64
		if m.exact {
			score = prof.Weights.PersonName * prof.NameMatchMultiplier
		} else {
			score = prof.Weights.PersonName * prof.PartialNameFactor
		}
		cand.Score += score
		cand.MatchedEvidence = append(cand.MatchedEvidence, model.MatchedEvidence{
			Evidence: model.Evidence{
				Kind:       model.EvidencePersonName,
				Value:      detected,
				Confidence: 1.0,
			},
			Score: score,
		})
		if m.exact {
			cand.Reasoning = append(cand.Reasoning,
				"fast track: exact name match '"+detected+"'")
		} else {
			cand.Reasoning = append(cand.Reasoning,
				"fast track: partial name match '"+detected+"' ~ '"+m.rosterName+"'")
		}
	}
	if cand.Score == 0 {
		return cand
	}
	if res.RaceNumber != nil && numbersEqual(res.RaceNumber.Value, p.Number) {
		cand.Score += prof.FastTrackNumberBonus
		cand.Reasoning = append(cand.Reasoning,
			"fast track: detected number confirms entry")
	}
	return cand
}
