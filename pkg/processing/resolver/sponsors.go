package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/racetagger/raceident/pkg/model"
	"github.com/racetagger/raceident/pkg/processing/roster"
)

// sponsorMatch describes how a detected sponsor fragment relates to one
// of the participant's sponsor tokens.
type sponsorMatch struct {
	token      string
	similarity float64
	how        string
}

// scoreSponsors scores all sponsor fragments against one participant.
// Fragments that are unique across the roster are evaluated first so
// that a decisive fragment sets HasUniqueEvidence before common-brand
// noise piles up. Reports whether at least one fragment matched.
//
// Fragments that match nobody's livery are contradictions; enough of
// them mark the candidate as a ghost vehicle (the AI read text from a
// car that is not the photographed one).
func (r *Resolver) scoreSponsors(
	cand *model.MatchCandidate,
	items []model.Evidence,
	p *model.Participant,
	env *scoreEnv,
) bool {
	if len(items) == 0 {
		return false
	}
	tokens := roster.SplitSponsors(p.Sponsors)
	ordered := make([]model.Evidence, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(a, b int) bool {
		ua := env.idx.IsUnique(model.EvidenceSponsor, ordered[a].Value)
		ub := env.idx.IsUnique(model.EvidenceSponsor, ordered[b].Value)
		return ua && !ub
	})

	matched := false
	contradictions := 0
	for _, ev := range ordered {
		m := r.matchSponsor(ev.Value, tokens, env)
		if m == nil {
			penalty := env.prof.CommonContradictionPenalty
			if env.idx.IsUnique(model.EvidenceSponsor, ev.Value) {
				penalty = env.prof.UniqueContradictionPenalty
			}
			contradictions++
			cand.Score -= penalty
			cand.MatchedEvidence = append(cand.MatchedEvidence,
				model.MatchedEvidence{Evidence: ev, Score: -penalty})
			cand.Reasoning = append(cand.Reasoning,
				"sponsor contradiction '"+ev.Value+"' not in livery")
			continue
		}
		score := env.prof.Weights.Sponsor * ev.Confidence * m.similarity
		score = r.applyUniqueBoost(cand, env, model.EvidenceSponsor, ev, tokens, score)
		if score == 0 {
			continue
		}
		matched = true
		cand.Score += score
		cand.MatchedEvidence = append(cand.MatchedEvidence,
			model.MatchedEvidence{Evidence: ev, Score: score})
		cand.Reasoning = append(cand.Reasoning, fmt.Sprintf(
			"sponsor %s '%s' ~ '%s'", m.how, ev.Value, m.token))
	}

	if contradictions >= 2 && contradictions*2 >= len(items) {
		cand.GhostVehicleWarning = true
		cand.Reasoning = append(cand.Reasoning, fmt.Sprintf(
			"ghost vehicle suspicion: %d of %d sponsor fragments contradict",
			contradictions, len(items)))
	}
	return matched
}

// matchSponsor relates one detected fragment to the participant's
// sponsor tokens: exact, substring, abbreviation expansion, then
// word-level Levenshtein.
func (r *Resolver) matchSponsor(detected string, tokens []string, env *scoreEnv) *sponsorMatch {
	d := roster.Normalize(detected)
	if d == "" {
		return nil
	}
	expanded := ""
	if full, ok := env.prof.SponsorAbbreviations[d]; ok {
		expanded = roster.Normalize(full)
	}
	var best *sponsorMatch
	better := func(cand *sponsorMatch) {
		if best == nil || cand.similarity > best.similarity {
			best = cand
		}
	}
	for _, token := range tokens {
		t := roster.Normalize(token)
		if t == "" {
			continue
		}
		switch {
		case t == d:
			better(&sponsorMatch{token: token, similarity: 1.0, how: "match"})
		case containsWord(t, d) || containsWord(d, t):
			better(&sponsorMatch{token: token, similarity: 0.9, how: "partial match"})
		case expanded != "" && (expanded == t || containsWord(t, expanded)):
			better(&sponsorMatch{token: token, similarity: 0.85, how: "abbreviation match"})
		default:
			if sim := wordSimilarity(d, t); sim >= env.prof.NameSimilarityThreshold {
				better(&sponsorMatch{token: token, similarity: sim, how: "fuzzy match"})
			}
		}
	}
	return best
}

// wordSimilarity averages, over the words of a, the best Levenshtein
// ratio against any word of b. "red bull racing" vs "redbull" style
// detections survive tokenization differences this way.
func wordSimilarity(a, b string) float64 {
	aw := strings.Fields(a)
	bw := strings.Fields(b)
	if len(aw) == 0 || len(bw) == 0 {
		return 0
	}
	sum := 0.0
	for _, wa := range aw {
		best := 0.0
		for _, wb := range bw {
			ratio := levenshtein.RatioForStrings(
				[]rune(wa), []rune(wb), levenshtein.DefaultOptions)
			if ratio > best {
				best = ratio
			}
		}
		sum += best
	}
	return sum / float64(len(aw))
}
