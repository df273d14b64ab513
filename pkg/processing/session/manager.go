package session

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/racetagger/raceident/log"
	"github.com/racetagger/raceident/pkg/audit"
	"github.com/racetagger/raceident/pkg/profile"
	"github.com/racetagger/raceident/pkg/utils/cache"
	"github.com/racetagger/raceident/pkg/utils/cache/loadercache"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager is the registry of active sessions. Sport profiles are
// loaded once per sport and shared between sessions of that sport.
type Manager struct {
	mutex    sync.RWMutex
	sessions map[string]*Session
	profiles cache.Cache[string, profile.Profile]
	sink     audit.Sink
	l        *log.Logger
}

type ManagerOption func(*Manager)

func WithAuditSink(arg audit.Sink) ManagerOption {
	return func(m *Manager) {
		m.sink = arg
	}
}

func WithProfileCache(arg cache.Cache[string, profile.Profile]) ManagerOption {
	return func(m *Manager) {
		m.profiles = arg
	}
}

func WithManagerLogger(arg *log.Logger) ManagerOption {
	return func(m *Manager) {
		m.l = arg
	}
}

func NewManager(opts ...ManagerOption) *Manager {
	ret := &Manager{
		sessions: make(map[string]*Session),
		sink:     audit.NopSink{},
		l:        log.Default().Named("session"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.profiles == nil {
		ret.profiles = loadercache.New(
			loadercache.WithLoader[string, profile.Profile](profile.ForSport),
			loadercache.WithoutExpiration[string, profile.Profile](),
			loadercache.WithLogger[string, profile.Profile](ret.l))
	}
	return ret
}

// Start creates a session for the given sport using the cached sport
// profile.
func (m *Manager) Start(ctx context.Context, sport string) (*Session, error) {
	prof, err := m.profiles.Get(ctx, sport)
	if err != nil {
		return nil, err
	}
	return m.StartWithProfile(prof), nil
}

// StartWithProfile creates a session with an explicitly provided
// profile (custom profile file, tests).
func (m *Manager) StartWithProfile(prof *profile.Profile) *Session {
	sess := newSession(uuid.NewString(), prof, m.sink, m.l)
	sess.start()
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[sess.ID] = sess
	return sess
}

// Get looks up an active session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if sess, ok := m.sessions[id]; ok {
		return sess, nil
	}
	return nil, ErrSessionNotFound
}

// End terminates a session and removes it from the registry.
func (m *Manager) End(id string) error {
	m.mutex.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mutex.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	sess.end()
	return nil
}

// Sessions returns the active sessions ordered by start time.
func (m *Manager) Sessions() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	ret := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		ret = append(ret, sess)
	}
	sort.Slice(ret, func(a, b int) bool {
		return ret[a].Started.Before(ret[b].Started)
	})
	return ret
}

// Close ends all sessions.
func (m *Manager) Close() {
	m.mutex.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mutex.Unlock()
	for _, sess := range sessions {
		sess.end()
	}
}
