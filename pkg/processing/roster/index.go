package roster

import (
	"strings"

	"github.com/racetagger/raceident/pkg/model"
	"github.com/racetagger/raceident/pkg/utils"
)

// Index holds, per evidence kind, how often each value occurs across the
// roster and which values occur exactly once. Values occurring exactly
// once are strongly discriminative and drive the uniqueness boost.
// Immutable after Build.
type Index struct {
	Hash   string
	counts map[model.EvidenceKind]map[string]int
}

// Build creates the uniqueness index in a single pass over the roster.
func Build(roster *model.Roster) *Index {
	ret := &Index{
		Hash: utils.RosterHash(roster),
		counts: map[model.EvidenceKind]map[string]int{
			model.EvidenceRaceNumber: {},
			model.EvidencePersonName: {},
			model.EvidenceSponsor:    {},
			model.EvidenceTeam:       {},
		},
	}
	bump := func(kind model.EvidenceKind, value string) {
		if v := Normalize(value); v != "" {
			ret.counts[kind][v]++
		}
	}
	for i := range roster.Participants {
		p := &roster.Participants[i]
		bump(model.EvidenceRaceNumber, p.Number)
		for _, name := range p.Names() {
			bump(model.EvidencePersonName, name)
		}
		for _, token := range SplitSponsors(p.Sponsors) {
			bump(model.EvidenceSponsor, token)
		}
		bump(model.EvidenceTeam, p.Team)
	}
	return ret
}

// IsUnique reports whether value occurs exactly once across the roster.
func (i *Index) IsUnique(kind model.EvidenceKind, value string) bool {
	return i.Occurrences(kind, value) == 1
}

// Occurrences returns how often value occurs across the roster.
func (i *Index) Occurrences(kind model.EvidenceKind, value string) int {
	m, ok := i.counts[kind]
	if !ok {
		return 0
	}
	return m[Normalize(value)]
}

// Normalize lowercases and trims a value for comparison.
func Normalize(arg string) string {
	return strings.ToLower(strings.TrimSpace(arg))
}

// SplitSponsors splits possibly comma separated sponsor entries into
// atomic tokens ("Shell, Ferrari" -> "Shell", "Ferrari").
func SplitSponsors(entries []string) []string {
	ret := make([]string, 0, len(entries))
	for _, entry := range entries {
		for _, token := range strings.Split(entry, ",") {
			if t := strings.TrimSpace(token); t != "" {
				ret = append(ret, t)
			}
		}
	}
	return ret
}
