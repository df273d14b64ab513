package resolver

import (
	"fmt"
	"strings"

	"github.com/racetagger/raceident/pkg/model"
	"github.com/racetagger/raceident/pkg/processing/ocr"
	"github.com/racetagger/raceident/pkg/processing/roster"
	"github.com/racetagger/raceident/pkg/profile"
)

// scoreEnv is the per-image context shared by all candidate scorings.
type scoreEnv struct {
	prof           *profile.Profile
	idx            *roster.Index
	detectedNumber string
	numberOwned    bool // the detected number is some roster entry's number
	detectedNames  []string
}

func newScoreEnv(items []model.Evidence, idx *roster.Index, prof *profile.Profile) *scoreEnv {
	ret := &scoreEnv{prof: prof, idx: idx}
	for _, ev := range items {
		switch ev.Kind {
		case model.EvidenceRaceNumber:
			ret.detectedNumber = ev.Value
			ret.numberOwned = idx.Occurrences(model.EvidenceRaceNumber, ev.Value) > 0
		case model.EvidencePersonName:
			ret.detectedNames = append(ret.detectedNames, ev.Value)
		case model.EvidenceSponsor, model.EvidenceTeam,
			model.EvidenceCategory, model.EvidencePlateNumber:
		}
	}
	return ret
}

// scoreCandidate computes the evidence score of one participant for one
// image. Pure per candidate; the env is read-only.
func (r *Resolver) scoreCandidate(
	p *model.Participant,
	items []model.Evidence,
	idx *roster.Index,
	prof *profile.Profile,
) *model.MatchCandidate {
	cand := &model.MatchCandidate{Participant: p}
	env := newScoreEnv(items, idx, prof)
	kinds := map[model.EvidenceKind]bool{}
	sponsorItems := []model.Evidence{}

	for _, ev := range items {
		var score float64
		switch ev.Kind {
		case model.EvidenceRaceNumber:
			score = r.scoreNumber(cand, ev, p, env)
		case model.EvidencePersonName:
			score = r.scoreName(cand, ev, p, env)
		case model.EvidenceSponsor:
			sponsorItems = append(sponsorItems, ev)
			continue
		case model.EvidenceTeam:
			score = r.scoreTeam(cand, ev, p, env)
		case model.EvidenceCategory:
			score = r.scoreCategory(cand, ev, p, env)
		case model.EvidencePlateNumber:
			score = r.scorePlate(cand, ev, p, env)
		}
		if score != 0 {
			cand.Score += score
			cand.MatchedEvidence = append(cand.MatchedEvidence,
				model.MatchedEvidence{Evidence: ev, Score: score})
			if score > 0 {
				kinds[ev.Kind] = true
			}
		}
	}
	if r.scoreSponsors(cand, sponsorItems, p, env) {
		kinds[model.EvidenceSponsor] = true
	}

	if len(kinds) >= 2 && cand.Score > 0 {
		bonus := cand.Score * prof.MultiEvidenceBonus
		cand.Score += bonus
		cand.Reasoning = append(cand.Reasoning, fmt.Sprintf(
			"multi-evidence bonus: %d corroborating kinds (+%.1f)", len(kinds), bonus))
	}
	cand.Confidence = confidence(cand.Score, prof)
	return cand
}

func (r *Resolver) scoreNumber(
	cand *model.MatchCandidate,
	ev model.Evidence,
	p *model.Participant,
	env *scoreEnv,
) float64 {
	if numbersEqual(ev.Value, p.Number) {
		if env.idx.IsUnique(model.EvidenceRaceNumber, ev.Value) {
			cand.HasUniqueEvidence = true
		}
		cand.Reasoning = append(cand.Reasoning,
			"race number match '"+ev.Value+"'")
		return env.prof.Weights.RaceNumber * ev.Confidence
	}
	if env.numberOwned {
		// value identifies another entry, no fuzzy credit here
		return 0
	}
	num := strings.TrimSpace(p.Number)
	if num == "" {
		return 0
	}

	var sim float64
	switch {
	case ocr.ConfusionSimilarity(ev.Value, num) >= env.prof.OCRSimilarityThreshold:
		sim = ocr.ConfusionSimilarity(ev.Value, num)
	case ocr.IsTransposition(ev.Value, num):
		sim = env.prof.TranspositionFactor
	default:
		return 0
	}

	coherence := r.nameCoherenceFor(
		env.detectedNames, p.Names(), env.idx, env.prof.NameSimilarityThreshold)
	var factor float64
	switch coherence {
	case coherenceContradict:
		cand.Reasoning = append(cand.Reasoning,
			"fuzzy number '"+ev.Value+"' rejected: detected names identify another entry")
		return 0
	case coherenceMatch, coherenceNone:
		// matching names corroborate; absent names cannot object
		factor = env.prof.FuzzyNumberFactor
	case coherenceNeutral:
		factor = env.prof.FuzzyNumberIncoherentFactor
	}
	cand.Reasoning = append(cand.Reasoning, fmt.Sprintf(
		"fuzzy number match '%s' ~ '%s' (sim %.2f)", ev.Value, num, sim))
	return env.prof.Weights.RaceNumber * ev.Confidence * sim * factor
}

func (r *Resolver) scoreName(
	cand *model.MatchCandidate,
	ev model.Evidence,
	p *model.Participant,
	env *scoreEnv,
) float64 {
	m := bestNameMatch(ev.Value, p.Names(), env.prof.NameSimilarityThreshold)
	if m == nil {
		return 0
	}
	var score float64
	switch {
	case m.exact:
		score = env.prof.Weights.PersonName * env.prof.NameMatchMultiplier * ev.Confidence
		cand.Reasoning = append(cand.Reasoning, "name match '"+ev.Value+"'")
	case m.similarity >= substringSimilarity:
		score = env.prof.Weights.PersonName * env.prof.PartialNameFactor * ev.Confidence
		cand.Reasoning = append(cand.Reasoning,
			"partial name match '"+ev.Value+"' ~ '"+m.rosterName+"'")
	default:
		score = env.prof.Weights.PersonName * m.similarity * ev.Confidence
		cand.Reasoning = append(cand.Reasoning, fmt.Sprintf(
			"fuzzy name match '%s' ~ '%s' (sim %.2f)", ev.Value, m.rosterName, m.similarity))
	}
	return r.applyUniqueBoost(cand, env, model.EvidencePersonName, ev, p.Names(), score)
}

func (r *Resolver) scoreTeam(
	cand *model.MatchCandidate,
	ev model.Evidence,
	p *model.Participant,
	env *scoreEnv,
) float64 {
	if strings.TrimSpace(p.Team) == "" {
		return 0
	}
	m := bestNameMatch(ev.Value, []string{p.Team}, env.prof.NameSimilarityThreshold)
	if m == nil {
		return 0
	}
	score := env.prof.Weights.Team * ev.Confidence * m.similarity
	cand.Reasoning = append(cand.Reasoning, "team match '"+ev.Value+"'")
	return r.applyUniqueBoost(cand, env, model.EvidenceTeam, ev, []string{p.Team}, score)
}

// scoreCategory compares category evidence against the roster entry.
// Empty on either side means no verdict, only two non-empty values that
// disagree are penalized.
func (r *Resolver) scoreCategory(
	cand *model.MatchCandidate,
	ev model.Evidence,
	p *model.Participant,
	env *scoreEnv,
) float64 {
	if strings.TrimSpace(ev.Value) == "" || strings.TrimSpace(p.Category) == "" {
		return 0
	}
	if roster.Normalize(ev.Value) == roster.Normalize(p.Category) {
		cand.Reasoning = append(cand.Reasoning, "category match '"+ev.Value+"'")
		return env.prof.Weights.Category * ev.Confidence
	}
	cand.Reasoning = append(cand.Reasoning,
		"category mismatch '"+ev.Value+"' vs '"+p.Category+"'")
	return -env.prof.CategoryMismatchPenalty
}

func (r *Resolver) scorePlate(
	cand *model.MatchCandidate,
	ev model.Evidence,
	p *model.Participant,
	env *scoreEnv,
) float64 {
	if strings.TrimSpace(ev.Value) == "" || strings.TrimSpace(p.Plate) == "" {
		return 0
	}
	if normalizePlate(ev.Value) == normalizePlate(p.Plate) {
		cand.Reasoning = append(cand.Reasoning, "plate match '"+ev.Value+"'")
		return env.prof.Weights.Plate * ev.Confidence
	}
	cand.Reasoning = append(cand.Reasoning,
		"plate mismatch '"+ev.Value+"' vs '"+p.Plate+"'")
	return -env.prof.PlateMismatchPenalty
}

// normalizePlate uppercases and strips separators so that "AB-123 C"
// and "ab123c" compare equal.
func normalizePlate(arg string) string {
	ret := strings.ToUpper(strings.TrimSpace(arg))
	ret = strings.ReplaceAll(ret, " ", "")
	return strings.ReplaceAll(ret, "-", "")
}

// substringSimilarity is the similarity bestNameMatch assigns to a
// substring relation; anything below is a Jaro-Winkler fuzzy match.
const substringSimilarity = 0.9

// applyUniqueBoost handles evidence whose value occurs exactly once in
// the roster. Such a value is decisive: when this candidate owns it the
// score is replaced (not added to) by nearly the race-number weight;
// when it belongs to another entry and only matched here fuzzily, the
// whole evidence match is invalidated. Silent skipping would hide a
// strong mismatch signal.
func (r *Resolver) applyUniqueBoost(
	cand *model.MatchCandidate,
	env *scoreEnv,
	kind model.EvidenceKind,
	ev model.Evidence,
	owned []string,
	base float64,
) float64 {
	if !env.idx.IsUnique(kind, ev.Value) {
		return base
	}
	if !ownsValue(owned, ev.Value) {
		cand.Reasoning = append(cand.Reasoning,
			"unique "+kind.String()+" '"+ev.Value+"' belongs to another entry, match invalidated")
		return 0
	}
	cand.HasUniqueEvidence = true
	boosted := env.prof.UniqueBoostFactor * env.prof.Weights.RaceNumber * ev.Confidence
	cand.Reasoning = append(cand.Reasoning, fmt.Sprintf(
		"uniqueness boost: %s '%s' occurs once in roster (%.1f -> %.1f)",
		kind, ev.Value, base, boosted))
	return boosted
}

// ownsValue reports whether the detected value is literally one of the
// candidate's own values.
func ownsValue(owned []string, value string) bool {
	v := roster.Normalize(value)
	for _, o := range owned {
		if roster.Normalize(o) == v {
			return true
		}
	}
	return false
}
