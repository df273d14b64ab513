package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racetagger/raceident/pkg/audit"
	"github.com/racetagger/raceident/pkg/model"
	"github.com/racetagger/raceident/pkg/processing/resolver"
	"github.com/racetagger/raceident/testsupport/basedata"
)

// recordingSink collects published events for assertions.
type recordingSink struct {
	mutex  sync.Mutex
	events []*audit.Event
}

func (s *recordingSink) Publish(event *audit.Event) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Close() {}

func (s *recordingSink) byKind(kind audit.Kind) []*audit.Event {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	ret := []*audit.Event{}
	for _, ev := range s.events {
		if ev.Kind == kind {
			ret = append(ret, ev)
		}
	}
	return ret
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	defer m.Close()

	sess, err := m.Start(context.Background(), "rally")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "rally", sess.Sport)

	got, err := m.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	_, err = m.Get("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, m.End(sess.ID))
	_, err = m.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.End(sess.ID), ErrSessionNotFound)
}

func TestManagerUnknownSport(t *testing.T) {
	m := NewManager()
	defer m.Close()

	_, err := m.Start(context.Background(), "chess")
	assert.Error(t, err)
}

func TestManagerSessionsOrdered(t *testing.T) {
	m := NewManager()
	defer m.Close()

	first := m.StartWithProfile(basedata.SampleProfile())
	second := m.StartWithProfile(basedata.SampleProfile())
	second.Started = first.Started.Add(time.Second)

	sessions := m.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, first.ID, sessions[0].ID)
	assert.Equal(t, second.ID, sessions[1].ID)

	m.Close()
	assert.Empty(t, m.Sessions())
}

func TestSessionResolvePublishesAudit(t *testing.T) {
	sink := &recordingSink{}
	m := NewManager(WithAuditSink(sink))
	defer m.Close()

	sess := m.StartWithProfile(basedata.SampleProfile())
	result := sess.Resolve(&resolver.Request{
		AIResult: basedata.NumberResult("a.jpg", "8I", 0.9),
		Roster:   basedata.SampleRoster(),
	})
	require.NotNil(t, result.BestMatch)

	matches := sink.byKind(audit.KindMatch)
	require.Len(t, matches, 1)
	assert.Equal(t, sess.ID, matches[0].SessionID)
	assert.Equal(t, "a.jpg", matches[0].ImagePath)
	assert.True(t, matches[0].Match.Matched)
	assert.Equal(t, "81", matches[0].Match.Number)

	corrections := sink.byKind(audit.KindCorrection)
	require.Len(t, corrections, 1)
	assert.Equal(t, model.CorrectionFuzzy, corrections[0].Correction.Kind)

	// the trail of the last image is queryable
	got := sess.Corrections()
	require.Len(t, got, 1)
	assert.Equal(t, "81", got[0].CorrectedValue)

	// a clean follow-up image replaces the trail
	sess.Resolve(&resolver.Request{
		AIResult: basedata.NumberResult("b.jpg", "42", 0.95),
		Roster:   basedata.SampleRoster(),
	})
	assert.Empty(t, sess.Corrections())
}

func TestEndClearsTemporalIndex(t *testing.T) {
	m := NewManager()
	sess := m.StartWithProfile(basedata.SampleProfile())

	sess.Resolve(&resolver.Request{
		AIResult: basedata.TimedResult("a.jpg", "42", 0.95, 0),
		Roster:   basedata.SampleRoster(),
	})
	idx := sess.Resolver().TemporalIndex()
	assert.Equal(t, 1, idx.Len())

	require.NoError(t, m.End(sess.ID))
	assert.Equal(t, 0, idx.Len())
}
