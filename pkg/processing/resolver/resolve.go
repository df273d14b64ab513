package resolver

import (
	"fmt"
	"sort"

	"github.com/racetagger/raceident/pkg/model"
	"github.com/racetagger/raceident/pkg/profile"
)

// finalize turns the scored candidate list into a MatchResult. The list
// is sorted score descending with the race number as tie breaker so the
// outcome is deterministic for identical inputs.
func (r *Resolver) finalize(
	candidates []*model.MatchCandidate,
	restrictToRoster bool,
	prof *profile.Profile,
) *model.MatchResult {
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].Score != candidates[b].Score {
			return candidates[a].Score > candidates[b].Score
		}
		return candidates[a].Participant.Number < candidates[b].Participant.Number
	})
	result := &model.MatchResult{AllCandidates: candidates}
	if len(candidates) == 0 {
		return result
	}
	top := candidates[0]
	if top.Score < prof.MinScore {
		// "no match" is a normal result, not an error
		return result
	}

	gap := top.Score
	if len(candidates) > 1 {
		gap = top.Score - candidates[1].Score
	}
	if gap <= prof.ClearWinnerGap {
		result.MultipleHighScores = true
		if r.overrideQualifies(top, prof) {
			result.ResolvedByOverride = true
			top.Reasoning = append(top.Reasoning,
				"resolved by override: non-number evidence outweighs ambiguous number")
		} else if restrictToRoster {
			// ambiguous and nothing decisive: never guess in restrict mode
			return result
		}
	}
	result.BestMatch = top

	if top.TemporalBonus > 0 && top.Score-top.TemporalBonus < prof.MinScore {
		result.Corrections = append(result.Corrections, model.CorrectionRecord{
			Kind:           model.CorrectionTemporal,
			Field:          "resolution",
			CorrectedValue: top.Participant.Number,
			Reason: fmt.Sprintf("temporal neighbors lifted score above threshold (%d neighbor(s))",
				top.TemporalNeighborCount),
			Confidence: top.Confidence,
		})
	}
	return result
}

// overrideQualifies checks whether non-number evidence alone justifies
// accepting an ambiguous top candidate: the number detection (if any)
// was weak, and at least OverrideMinEvidenceKinds other kinds matched
// with a combined score above OverrideScoreThreshold.
func (r *Resolver) overrideQualifies(cand *model.MatchCandidate, prof *profile.Profile) bool {
	numberConfidence := 0.0
	hasNumber := false
	kinds := map[model.EvidenceKind]bool{}
	nonNumberScore := 0.0
	for _, me := range cand.MatchedEvidence {
		if me.Evidence.Kind == model.EvidenceRaceNumber {
			hasNumber = true
			if me.Evidence.Confidence > numberConfidence {
				numberConfidence = me.Evidence.Confidence
			}
			continue
		}
		if me.Score > 0 {
			kinds[me.Evidence.Kind] = true
			nonNumberScore += me.Score
		}
	}
	if hasNumber && numberConfidence >= prof.OverrideNumberConfidence {
		return false
	}
	return len(kinds) >= prof.OverrideMinEvidenceKinds &&
		nonNumberScore >= prof.OverrideScoreThreshold
}
