package resolver

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racetagger/raceident/pkg/model"
	"github.com/racetagger/raceident/pkg/processing/roster"
	"github.com/racetagger/raceident/testsupport/basedata"
)

func candidateByNumber(t *testing.T, result *model.MatchResult, number string) *model.MatchCandidate {
	t.Helper()
	for _, cand := range result.AllCandidates {
		if cand.Participant.Number == number {
			return cand
		}
	}
	t.Fatalf("no candidate for number %s", number)
	return nil
}

//nolint:funlen // ok for tests
func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		req    *Request
		checks func(t *testing.T, result *model.MatchResult)
	}{
		{
			name: "exact number match",
			req: &Request{
				AIResult: basedata.NumberResult("a.jpg", "42", 0.95),
				Roster:   basedata.SampleRoster(),
			},
			checks: func(t *testing.T, result *model.MatchResult) {
				t.Helper()
				require.NotNil(t, result.BestMatch)
				assert.Equal(t, "42", result.BestMatch.Participant.Number)
				assert.InDelta(t, 95.0, result.BestMatch.Score, 0.001)
				assert.InDelta(t, 0.95, result.BestMatch.Confidence, 0.001)
				assert.True(t, result.BestMatch.HasUniqueEvidence)
				assert.False(t, result.MultipleHighScores)
				assert.Empty(t, result.Corrections)
			},
		},
		{
			name: "confused character corrected against roster",
			req: &Request{
				AIResult: basedata.NumberResult("b.jpg", "8I", 0.9),
				Roster:   basedata.SampleRoster(),
			},
			checks: func(t *testing.T, result *model.MatchResult) {
				t.Helper()
				require.NotNil(t, result.BestMatch)
				assert.Equal(t, "81", result.BestMatch.Participant.Number)
				assert.InDelta(t, 90.0, result.BestMatch.Score, 0.001)
				require.Len(t, result.Corrections, 1)
				assert.Equal(t, model.CorrectionFuzzy, result.Corrections[0].Kind)
				assert.Equal(t, "8I", result.Corrections[0].OriginalValue)
				assert.Equal(t, "81", result.Corrections[0].CorrectedValue)
				// the entry owning "18" gets no fuzzy credit for a number
				// that identifies somebody else
				assert.Zero(t, candidateByNumber(t, result, "18").Score)
			},
		},
		{
			name: "name fast track overrules the detected number",
			req: &Request{
				AIResult: &model.AIResult{
					ImagePath:  "c.jpg",
					RaceNumber: &model.Detection{Value: "77", Confidence: 0.9},
					Drivers:    []string{"Rossi"},
				},
				Roster: basedata.SampleRoster(),
			},
			checks: func(t *testing.T, result *model.MatchResult) {
				t.Helper()
				require.NotNil(t, result.BestMatch)
				assert.Equal(t, "7", result.BestMatch.Participant.Number)
				assert.InDelta(t, 1.0, result.BestMatch.Confidence, 0.001)
				require.Len(t, result.Corrections, 1)
				assert.Equal(t, model.CorrectionFastTrack, result.Corrections[0].Kind)
				assert.Equal(t, "77", result.Corrections[0].OriginalValue)
				assert.Equal(t, "7", result.Corrections[0].CorrectedValue)
			},
		},
		{
			name: "foreign sponsor fragments raise ghost vehicle warning",
			req: &Request{
				AIResult: &model.AIResult{
					ImagePath:  "d.jpg",
					RaceNumber: &model.Detection{Value: "18", Confidence: 0.95},
					Sponsors:   []string{"Redwing", "Bluebird"},
				},
				Roster: basedata.SampleRoster(),
			},
			checks: func(t *testing.T, result *model.MatchResult) {
				t.Helper()
				require.NotNil(t, result.BestMatch)
				assert.Equal(t, "18", result.BestMatch.Participant.Number)
				assert.True(t, result.BestMatch.GhostVehicleWarning)
				// number 95 minus two common contradictions
				assert.InDelta(t, 65.0, result.BestMatch.Score, 0.001)
				negatives := 0
				for _, me := range result.BestMatch.MatchedEvidence {
					if me.Score < 0 {
						negatives++
					}
				}
				assert.Equal(t, 2, negatives)
			},
		},
		{
			name: "unique sponsor outweighs a number read off the wrong car",
			req: &Request{
				AIResult: &model.AIResult{
					ImagePath:  "e.jpg",
					RaceNumber: &model.Detection{Value: "18", Confidence: 0.9},
					Sponsors:   []string{"Neste"},
				},
				Roster: basedata.SampleRoster(),
			},
			checks: func(t *testing.T, result *model.MatchResult) {
				t.Helper()
				// Neste occurs once in the roster and belongs to #81; the
				// boost replaces the plain sponsor score
				cand := candidateByNumber(t, result, "81")
				assert.True(t, cand.HasUniqueEvidence)
				assert.InDelta(t, 95.0, cand.Score, 0.001)
			},
		},
		{
			name: "number unknown to the roster yields no match",
			req: &Request{
				AIResult: basedata.NumberResult("f.jpg", "99", 0.9),
				Roster:   basedata.SampleRoster(),
			},
			checks: func(t *testing.T, result *model.MatchResult) {
				t.Helper()
				assert.Nil(t, result.BestMatch)
				assert.Empty(t, result.Corrections)
				assert.Len(t, result.AllCandidates, 5)
			},
		},
		{
			name: "empty result yields no match",
			req: &Request{
				AIResult: &model.AIResult{ImagePath: "g.jpg"},
				Roster:   basedata.SampleRoster(),
			},
			checks: func(t *testing.T, result *model.MatchResult) {
				t.Helper()
				assert.Nil(t, result.BestMatch)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New(basedata.SampleProfile())
			tt.checks(t, res.Resolve(tt.req))
		})
	}
}

// An ambiguous correction ("71" is one confusion away from both "11" and
// "77") must not rewrite the number; the per-candidate fuzzy scoring with
// the name coherence gate decides instead.
func TestResolve_CoherenceGate(t *testing.T) {
	roster := &model.Roster{
		ID: "coherence",
		Participants: []model.Participant{
			{ID: "a", Number: "11", Driver: "Nilsson"},
			{ID: "b", Number: "77", Driver: "Weber"},
		},
	}
	res := New(basedata.SampleProfile())
	result := res.Resolve(&Request{
		AIResult: &model.AIResult{
			ImagePath:  "h.jpg",
			RaceNumber: &model.Detection{Value: "71", Confidence: 0.9},
			Drivers:    []string{"Nils"},
		},
		Roster: roster,
	})

	assert.Empty(t, result.Corrections)
	require.NotNil(t, result.BestMatch)
	assert.Equal(t, "11", result.BestMatch.Participant.Number)

	// "11": fuzzy number 100*0.9*0.85*0.7 plus partial name 80*0.8,
	// lifted by the multi-evidence bonus
	assert.InDelta(t, (53.55+64)*1.15, result.BestMatch.Score, 0.01)

	// "77": same fuzzy similarity, but the detected name belongs to
	// nobody it knows, so only the incoherent factor applies
	other := candidateByNumber(t, result, "77")
	assert.InDelta(t, 100*0.9*0.85*0.3, other.Score, 0.01)
}

// Without any name evidence nothing can object to a fuzzy number match,
// so the full fuzzy factor applies instead of the incoherent one.
func TestResolve_FuzzyNumberWithoutNames(t *testing.T) {
	rost := &model.Roster{
		ID: "fuzzy",
		Participants: []model.Participant{
			{ID: "a", Number: "11"},
			{ID: "b", Number: "77"},
		},
	}
	res := New(basedata.SampleProfile())
	result := res.Resolve(&Request{
		AIResult: basedata.NumberResult("m.jpg", "71", 0.9),
		Roster:   rost,
	})

	// the ambiguous correction leaves the audit trail empty
	assert.Empty(t, result.Corrections)
	// both entries are one confusion away: 100*0.9*0.85*0.7 each
	assert.InDelta(t, 53.55, candidateByNumber(t, result, "11").Score, 0.01)
	assert.InDelta(t, 53.55, candidateByNumber(t, result, "77").Score, 0.01)
	assert.True(t, result.MultipleHighScores)
	require.NotNil(t, result.BestMatch)
	assert.Equal(t, "11", result.BestMatch.Participant.Number)
}

// A sponsor fragment that exists exactly once in the roster but on a
// different car weighs heavier against the candidate than a fragment
// nobody carries.
func TestResolve_UniqueSponsorContradictionPenalty(t *testing.T) {
	rost := &model.Roster{
		ID: "sponsors",
		Participants: []model.Participant{
			{ID: "a", Number: "10", Sponsors: []string{"Alpha", "Beta"}},
			{ID: "b", Number: "20", Sponsors: []string{"Cobra"}},
		},
	}
	res := New(basedata.SampleProfile())
	result := res.Resolve(&Request{
		AIResult: &model.AIResult{
			ImagePath:  "l.jpg",
			RaceNumber: &model.Detection{Value: "10", Confidence: 0.95},
			Sponsors:   []string{"Cobra", "Delta", "Echo"},
		},
		Roster: rost,
	})

	// number 95, minus one unique (-30) and two common (-15) contradictions
	cand := candidateByNumber(t, result, "10")
	assert.InDelta(t, 35.0, cand.Score, 0.001)
	assert.True(t, cand.GhostVehicleWarning)
	unique, common := 0, 0
	for _, me := range cand.MatchedEvidence {
		switch {
		case me.Score == -30.0:
			unique++
		case me.Score == -15.0:
			common++
		}
	}
	assert.Equal(t, 1, unique)
	assert.Equal(t, 2, common)

	// the unique fragment pins the car that owns it despite the number read
	require.NotNil(t, result.BestMatch)
	assert.Equal(t, "20", result.BestMatch.Participant.Number)
	assert.InDelta(t, 95.0-15.0-15.0, result.BestMatch.Score, 0.001)
}

// A value occurring exactly once in the roster pins its owner; a partial
// match by any other entry is invalidated entirely, not just left
// without the boost.
func TestResolve_UniqueValueInvalidatesForeignMatch(t *testing.T) {
	rost := &model.Roster{
		ID: "unique",
		Participants: []model.Participant{
			{ID: "a", Number: "1", Driver: "Rossi", Team: "Koala Motors"},
			{ID: "b", Number: "2", Driver: "Rossini", Team: "Koala Motorsport"},
		},
	}
	res := New(basedata.SampleProfile())

	// "Rossi" is a substring of "Rossini" but belongs to #1 alone
	cand := res.scoreCandidate(&rost.Participants[1],
		[]model.Evidence{{Kind: model.EvidencePersonName, Value: "Rossi", Confidence: 1.0}},
		roster.Build(rost), res.Profile())
	assert.Zero(t, cand.Score)
	assert.Empty(t, cand.MatchedEvidence)
	assert.Contains(t, strings.Join(cand.Reasoning, "; "), "match invalidated")

	// same rule end to end for the team kind
	result := res.Resolve(&Request{
		AIResult: &model.AIResult{ImagePath: "n.jpg", Team: teamPtr("Koala Motors")},
		Roster:   rost,
	})
	require.NotNil(t, result.BestMatch)
	assert.Equal(t, "1", result.BestMatch.Participant.Number)
	assert.True(t, result.BestMatch.HasUniqueEvidence)
	assert.InDelta(t, 95.0, result.BestMatch.Score, 0.001)
	assert.Zero(t, candidateByNumber(t, result, "2").Score)
}

// An empty category or plate reading carries no verdict either way,
// even against an entry that has the field filled.
func TestScoreCandidate_EmptyValueIsNeutral(t *testing.T) {
	rost := &model.Roster{
		ID: "empty",
		Participants: []model.Participant{
			{ID: "a", Number: "1", Category: "RC2", Plate: "X-1"},
		},
	}
	res := New(basedata.SampleProfile())
	cand := res.scoreCandidate(&rost.Participants[0], []model.Evidence{
		{Kind: model.EvidenceCategory, Value: " ", Confidence: 1.0},
		{Kind: model.EvidencePlateNumber, Value: "", Confidence: 1.0},
	}, roster.Build(rost), res.Profile())
	assert.Zero(t, cand.Score)
	assert.Empty(t, cand.MatchedEvidence)
}

func TestResolve_BurstMode(t *testing.T) {
	roster := &model.Roster{
		ID: "burst",
		Participants: []model.Participant{
			{ID: "a", Number: "12"},
			{ID: "b", Number: "21"},
		},
	}
	res := New(basedata.SampleProfile())

	first := basedata.TimedResult("img1.jpg", "12", 0.95, 0)
	second := basedata.TimedResult("img2.jpg", "12", 0.95, time.Second)
	weak := basedata.TimedResult("img3.jpg", "12", 0.5, 2*time.Second)

	require.NotNil(t, res.Resolve(&Request{AIResult: first, Roster: roster}).BestMatch)
	require.NotNil(t, res.Resolve(&Request{AIResult: second, Roster: roster}).BestMatch)

	result := res.Resolve(&Request{
		AIResult:  weak,
		Roster:    roster,
		Neighbors: []string{"img1.jpg", "img2.jpg"},
	})
	require.NotNil(t, result.BestMatch)
	assert.Equal(t, "12", result.BestMatch.Participant.Number)
	assert.True(t, result.BestMatch.IsBurstMode)
	assert.Equal(t, 2, result.BestMatch.TemporalNeighborCount)
	// 2 neighbors * avg confidence 0.95 * burst 1.5 * base 10
	assert.InDelta(t, 28.5, result.BestMatch.TemporalBonus, 0.001)
	assert.InDelta(t, 50+28.5, result.BestMatch.Score, 0.001)
	// the weak detection clears the threshold on its own, no audit entry
	assert.Empty(t, result.Corrections)
}

func TestResolve_TemporalRescueIsAudited(t *testing.T) {
	roster := &model.Roster{
		ID: "rescue",
		Participants: []model.Participant{
			{ID: "a", Number: "12"},
			{ID: "b", Number: "21"},
		},
	}
	res := New(basedata.SampleProfile())

	first := basedata.TimedResult("img1.jpg", "12", 0.95, 0)
	require.NotNil(t, res.Resolve(&Request{AIResult: first, Roster: roster}).BestMatch)

	// 0.3 alone scores 30, below the minimum; the neighbor lifts it
	weak := basedata.TimedResult("img2.jpg", "12", 0.3, time.Second)
	result := res.Resolve(&Request{
		AIResult:  weak,
		Roster:    roster,
		Neighbors: []string{"img1.jpg"},
	})
	require.NotNil(t, result.BestMatch)
	require.Len(t, result.Corrections, 1)
	assert.Equal(t, model.CorrectionTemporal, result.Corrections[0].Kind)
	assert.Equal(t, "12", result.Corrections[0].CorrectedValue)
}

func TestResolve_FastTrackTieFallsThrough(t *testing.T) {
	roster := &model.Roster{
		ID: "tie",
		Participants: []model.Participant{
			{ID: "a", Number: "5", Driver: "Virtanen"},
			{ID: "b", Number: "6", Driver: "Virtanen"},
		},
	}
	res := New(basedata.SampleProfile())
	result := res.Resolve(&Request{
		AIResult: &model.AIResult{ImagePath: "i.jpg", Drivers: []string{"Virtanen"}},
		Roster:   roster,
	})

	// no fast track shortcut, the full pipeline sees the ambiguity
	for _, rec := range result.Corrections {
		assert.NotEqual(t, model.CorrectionFastTrack, rec.Kind)
	}
	assert.True(t, result.MultipleHighScores)
}

func TestResolve_Deterministic(t *testing.T) {
	res := New(basedata.SampleProfile())
	req := &Request{
		AIResult: &model.AIResult{
			ImagePath:  "j.jpg",
			RaceNumber: &model.Detection{Value: "18", Confidence: 0.8},
			Sponsors:   []string{"Pirelli", "Castrol"},
			Team:       teamPtr("Polar Racing"),
		},
		Roster: basedata.SampleRoster(),
	}
	a := res.Resolve(req)
	b := res.Resolve(req)
	assert.Empty(t, cmp.Diff(a, b))
}

func teamPtr(arg string) *string { return &arg }

func TestFinalize_Override(t *testing.T) {
	res := New(basedata.SampleProfile())
	p1 := &model.Participant{ID: "a", Number: "1"}
	p2 := &model.Participant{ID: "b", Number: "2"}

	top := &model.MatchCandidate{
		Participant: p1,
		Score:       100,
		MatchedEvidence: []model.MatchedEvidence{
			{Evidence: model.Evidence{Kind: model.EvidenceRaceNumber, Value: "1", Confidence: 0.3}, Score: 20},
			{Evidence: model.Evidence{Kind: model.EvidencePersonName, Value: "Rossi", Confidence: 1.0}, Score: 50},
			{Evidence: model.Evidence{Kind: model.EvidenceTeam, Value: "Scuderia", Confidence: 1.0}, Score: 40},
		},
	}
	runnerUp := &model.MatchCandidate{Participant: p2, Score: 85}

	result := res.finalize([]*model.MatchCandidate{runnerUp, top}, true, res.Profile())
	assert.True(t, result.MultipleHighScores)
	assert.True(t, result.ResolvedByOverride)
	require.NotNil(t, result.BestMatch)
	assert.Equal(t, "1", result.BestMatch.Participant.Number)
}

func TestFinalize_AmbiguousRestrictMode(t *testing.T) {
	res := New(basedata.SampleProfile())
	p1 := &model.Participant{ID: "a", Number: "1"}
	p2 := &model.Participant{ID: "b", Number: "2"}

	build := func() []*model.MatchCandidate {
		return []*model.MatchCandidate{
			{Participant: p1, Score: 100, MatchedEvidence: []model.MatchedEvidence{
				{Evidence: model.Evidence{Kind: model.EvidenceRaceNumber, Value: "1", Confidence: 0.9}, Score: 90},
			}},
			{Participant: p2, Score: 85},
		}
	}

	restricted := res.finalize(build(), true, res.Profile())
	assert.True(t, restricted.MultipleHighScores)
	assert.Nil(t, restricted.BestMatch)

	open := res.finalize(build(), false, res.Profile())
	assert.True(t, open.MultipleHighScores)
	require.NotNil(t, open.BestMatch)
	assert.Equal(t, "1", open.BestMatch.Participant.Number)
}
