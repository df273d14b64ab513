package resolver

import (
	"fmt"

	"github.com/racetagger/raceident/pkg/model"
	"github.com/racetagger/raceident/pkg/profile"
)

// applyTemporalBonus rewards candidates whose number was already
// resolved in neighboring images of the same shooting window. Within a
// burst (neighbors shot seconds apart, same car in front of the lens)
// the bonus is multiplied.
func (r *Resolver) applyTemporalBonus(
	candidates []*model.MatchCandidate,
	req *Request,
	prof *profile.Profile,
) {
	if req.AIResult.Timestamp == nil || len(req.Neighbors) == 0 {
		return
	}
	entries := r.temporalIdx.Lookup(req.Neighbors, prof.NeighborMinConfidence)
	if len(entries) == 0 {
		return
	}
	ts := *req.AIResult.Timestamp
	burst := false
	for _, entry := range entries {
		delta := ts.Sub(entry.Timestamp)
		if delta < 0 {
			delta = -delta
		}
		if delta <= prof.BurstWindow {
			burst = true
			break
		}
	}
	multiplier := 1.0
	if burst {
		multiplier = prof.BurstMultiplier
	}

	for _, cand := range candidates {
		count := 0
		confSum := 0.0
		for _, entry := range entries {
			if numbersEqual(entry.ResolvedNumber, cand.Participant.Number) {
				count++
				confSum += entry.Confidence
			}
		}
		if count == 0 {
			continue
		}
		avg := confSum / float64(count)
		bonus := float64(count) * avg * multiplier * prof.TemporalBonusBase
		cand.Score += bonus
		cand.TemporalBonus = bonus
		cand.TemporalNeighborCount = count
		cand.IsBurstMode = burst
		cand.Confidence = confidence(cand.Score, prof)
		cand.Reasoning = append(cand.Reasoning, fmt.Sprintf(
			"temporal bonus: %d neighbor(s) resolved to this entry (+%.1f, burst=%t)",
			count, bonus, burst))
	}
}
