package resolver

import (
	"strings"

	"github.com/xrash/smetrics"

	"github.com/racetagger/raceident/pkg/model"
	"github.com/racetagger/raceident/pkg/processing/roster"
)

// nameMatch classifies how a detected name relates to a roster name.
type nameMatch struct {
	rosterName string
	exact      bool
	similarity float64
}

// plainNameMatch compares a detected name against roster names using
// exact and substring relations only. The fast track uses this; fuzzy
// similarity is deliberately left to the general pipeline.
func plainNameMatch(detected string, names []string) *nameMatch {
	d := roster.Normalize(detected)
	if d == "" {
		return nil
	}
	var best *nameMatch
	for _, name := range names {
		n := roster.Normalize(name)
		if n == "" {
			continue
		}
		switch {
		case n == d:
			return &nameMatch{rosterName: name, exact: true, similarity: 1.0}
		case containsWord(n, d) || containsWord(d, n):
			best = &nameMatch{rosterName: name, similarity: substringSimilarity}
		}
	}
	return best
}

// bestNameMatch compares a detected name against all names of one
// participant and returns the strongest relation, or nil. Exact match
// beats substring beats Jaro-Winkler similarity above the threshold.
func bestNameMatch(detected string, names []string, threshold float64) *nameMatch {
	d := roster.Normalize(detected)
	if d == "" {
		return nil
	}
	var best *nameMatch
	better := func(cand *nameMatch) {
		if best == nil || cand.similarity > best.similarity ||
			(cand.exact && !best.exact) {
			best = cand
		}
	}
	for _, name := range names {
		n := roster.Normalize(name)
		if n == "" {
			continue
		}
		switch {
		case n == d:
			better(&nameMatch{rosterName: name, exact: true, similarity: 1.0})
		case containsWord(n, d) || containsWord(d, n):
			better(&nameMatch{rosterName: name, similarity: substringSimilarity})
		default:
			if sim := smetrics.JaroWinkler(d, n, 0.7, 4); sim >= threshold {
				better(&nameMatch{rosterName: name, similarity: sim})
			}
		}
	}
	return best
}

// containsWord reports whether needle appears in haystack as a
// substring. Very short needles would match all over the roster, those
// are ignored.
func containsWord(haystack, needle string) bool {
	if len(needle) < 3 {
		return false
	}
	return strings.Contains(haystack, needle)
}

// nameCoherence relates the detected names to one participant. Used to
// gate fuzzy number matches and the uniqueness boost.
type nameCoherence int

const (
	// no usable name evidence
	coherenceNone nameCoherence = iota
	// at least one name belongs to the participant
	coherenceMatch
	// names are present but belong to nobody in the roster
	coherenceNeutral
	// a name points at a different participant
	coherenceContradict
)

func (r *Resolver) nameCoherenceFor(
	names []string,
	participantNames []string,
	idx *roster.Index,
	threshold float64,
) nameCoherence {
	usable := false
	matched := false
	contradicted := false
	for _, detected := range names {
		if strings.TrimSpace(detected) == "" {
			continue
		}
		usable = true
		if bestNameMatch(detected, participantNames, threshold) != nil {
			matched = true
			continue
		}
		// the name is real roster vocabulary, just not this entry's
		if idx.Occurrences(model.EvidencePersonName, detected) > 0 {
			contradicted = true
		}
	}
	switch {
	case !usable:
		return coherenceNone
	case matched:
		return coherenceMatch
	case contradicted:
		return coherenceContradict
	default:
		return coherenceNeutral
	}
}
