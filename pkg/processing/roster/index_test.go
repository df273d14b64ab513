package roster

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/racetagger/raceident/pkg/model"
	"github.com/racetagger/raceident/testsupport/basedata"
)

func TestBuild(t *testing.T) {
	idx := Build(basedata.SampleRoster())

	// unique values
	assert.True(t, idx.IsUnique(model.EvidenceRaceNumber, "7"))
	assert.True(t, idx.IsUnique(model.EvidencePersonName, "Rossi"))
	assert.True(t, idx.IsUnique(model.EvidenceSponsor, "Shell"))
	assert.True(t, idx.IsUnique(model.EvidenceTeam, "Nordlicht"))

	// Pirelli appears in three sponsor lists, split from composites
	assert.Equal(t, 3, idx.Occurrences(model.EvidenceSponsor, "Pirelli"))
	assert.False(t, idx.IsUnique(model.EvidenceSponsor, "Pirelli"))

	// Polar Racing fields two cars
	assert.Equal(t, 2, idx.Occurrences(model.EvidenceTeam, "Polar Racing"))

	// lookups are normalized
	assert.True(t, idx.IsUnique(model.EvidencePersonName, "  rossi "))
	assert.Equal(t, 0, idx.Occurrences(model.EvidenceSponsor, "unknown"))
}

func TestBuildIdempotent(t *testing.T) {
	roster := basedata.SampleRoster()
	a := Build(roster)
	b := Build(roster)
	assert.Equal(t, a.Hash, b.Hash)
	assert.Empty(t, cmp.Diff(a, b,
		cmp.AllowUnexported(Index{})))
}

func TestSplitSponsors(t *testing.T) {
	got := SplitSponsors([]string{"Shell, Pirelli", " Neste ", "", ",",
		"Red Bull,  Castrol"})
	want := []string{"Shell", "Pirelli", "Neste", "Red Bull", "Castrol"}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestCache(t *testing.T) {
	c := NewCache()
	roster := basedata.SampleRoster()
	first := c.Get(roster)
	assert.Same(t, first, c.Get(roster))

	// roster change: new hash forces a rebuild
	changed := basedata.SampleRoster()
	changed.Participants[0].Driver = "Rossini"
	rebuilt := c.Get(changed)
	assert.NotEqual(t, first.Hash, rebuilt.Hash)

	c.Invalidate()
	assert.NotSame(t, rebuilt, c.Get(changed))
}
