package temporal

import (
	"sync"

	"github.com/racetagger/raceident/log"
	"github.com/racetagger/raceident/pkg/model"
)

// Index is the session-scoped store of resolved images used for the
// temporal (burst mode) bonus. Keyed by image path; one entry per image,
// bounded to the most recent entries with the oldest evicted first.
//
// Clearing is gated by the session lifecycle: a clear request while a
// session is active is a no-op so that concurrent resolves never observe
// a cache that vanishes mid-flight.
type Index struct {
	mutex    sync.Mutex
	entries  map[string]model.TemporalCacheEntry
	order    []string
	capacity int
	active   bool
	l        *log.Logger
}

type Option func(*Index)

func WithCapacity(arg int) Option {
	return func(i *Index) {
		if arg > 0 {
			i.capacity = arg
		}
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(i *Index) {
		i.l = arg
	}
}

const defaultCapacity = 1000

func NewIndex(opts ...Option) *Index {
	ret := &Index{
		entries:  make(map[string]model.TemporalCacheEntry),
		capacity: defaultCapacity,
		l:        log.Default().Named("engine.temporal"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// StartSession clears the store and marks the session active.
func (i *Index) StartSession() {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.clearLocked()
	i.active = true
}

// EndSession clears the store and marks the session inactive.
func (i *Index) EndSession() {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.clearLocked()
	i.active = false
}

// Clear empties the store unless a session is active.
func (i *Index) Clear() {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	if i.active {
		i.l.Debug("clear requested during active session, ignored")
		return
	}
	i.clearLocked()
}

func (i *Index) clearLocked() {
	i.entries = make(map[string]model.TemporalCacheEntry)
	i.order = i.order[:0]
}

// Record stores the resolution of one image. Each image path is written
// at most once; later writes for the same path are ignored.
func (i *Index) Record(entry model.TemporalCacheEntry) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	if _, ok := i.entries[entry.ImagePath]; ok {
		return
	}
	i.entries[entry.ImagePath] = entry
	i.order = append(i.order, entry.ImagePath)
	for len(i.order) > i.capacity {
		oldest := i.order[0]
		i.order = i.order[1:]
		delete(i.entries, oldest)
	}
}

// Lookup returns the cached entries for the given neighbor image paths
// whose confidence is at least minConfidence.
func (i *Index) Lookup(paths []string, minConfidence float64) []model.TemporalCacheEntry {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	ret := make([]model.TemporalCacheEntry, 0, len(paths))
	for _, p := range paths {
		if entry, ok := i.entries[p]; ok && entry.Confidence >= minConfidence {
			ret = append(ret, entry)
		}
	}
	return ret
}

// Len returns the number of stored entries.
func (i *Index) Len() int {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return len(i.entries)
}
