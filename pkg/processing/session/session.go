package session

import (
	"sync"
	"time"

	"github.com/racetagger/raceident/log"
	"github.com/racetagger/raceident/pkg/audit"
	"github.com/racetagger/raceident/pkg/model"
	"github.com/racetagger/raceident/pkg/processing/resolver"
	"github.com/racetagger/raceident/pkg/profile"
)

// Session owns the per-shooting state: the resolver with its two
// caches, the audit trail of the last resolved image, and the audit
// sink. Sessions are independent; two rosters processed concurrently
// never share cache state.
type Session struct {
	ID      string
	Sport   string
	Started time.Time

	mutex           sync.Mutex
	res             *resolver.Resolver
	lastCorrections []model.CorrectionRecord
	sink            audit.Sink
	l               *log.Logger
}

func newSession(id string, prof *profile.Profile, sink audit.Sink, l *log.Logger) *Session {
	return &Session{
		ID:      id,
		Sport:   prof.Sport,
		Started: time.Now(),
		res:     resolver.New(prof, resolver.WithLogger(l)),
		sink:    sink,
		l:       l,
	}
}

// Resolve runs one image through the engine and records the audit
// trail. Corrections of the previous image are replaced.
func (s *Session) Resolve(req *resolver.Request) *model.MatchResult {
	result := s.res.Resolve(req)

	s.mutex.Lock()
	s.lastCorrections = result.Corrections
	s.mutex.Unlock()

	//nolint:errcheck // audit delivery must not affect the resolution
	s.sink.Publish(audit.NewMatchEvent(s.ID, req.AIResult.ImagePath, result))
	for _, rec := range result.Corrections {
		//nolint:errcheck // see above
		s.sink.Publish(audit.NewCorrectionEvent(s.ID, req.AIResult.ImagePath, rec))
	}
	return result
}

// Corrections returns the audit records of the most recently resolved
// image.
func (s *Session) Corrections() []model.CorrectionRecord {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	ret := make([]model.CorrectionRecord, len(s.lastCorrections))
	copy(ret, s.lastCorrections)
	return ret
}

// Resolver exposes the session's engine (profile access, breakdown).
func (s *Session) Resolver() *resolver.Resolver {
	return s.res
}

// RosterChanged invalidates the uniqueness index; the next resolve
// rebuilds it from the snapshot it receives.
func (s *Session) RosterChanged() {
	s.res.RosterChanged()
}

func (s *Session) start() {
	s.res.TemporalIndex().StartSession()
	s.l.Info("session started",
		log.String("session", s.ID), log.String("sport", s.Sport))
}

func (s *Session) end() {
	s.res.TemporalIndex().EndSession()
	s.l.Info("session ended", log.String("session", s.ID))
}
