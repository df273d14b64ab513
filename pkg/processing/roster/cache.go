package roster

import (
	"sync"

	"github.com/racetagger/raceident/log"
	"github.com/racetagger/raceident/pkg/model"
	"github.com/racetagger/raceident/pkg/utils"
)

// Cache keeps the uniqueness index of the current roster. The index is
// rebuilt only when the roster identity hash changes; readers of a valid
// index never block each other.
type Cache struct {
	mutex sync.RWMutex
	idx   *Index
	l     *log.Logger
}

type CacheOption func(*Cache)

func WithLogger(arg *log.Logger) CacheOption {
	return func(c *Cache) {
		c.l = arg
	}
}

func NewCache(opts ...CacheOption) *Cache {
	ret := &Cache{l: log.Default().Named("engine.roster")}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Get returns the index for the given roster snapshot, rebuilding it if
// the snapshot hash differs from the cached one.
func (c *Cache) Get(roster *model.Roster) *Index {
	hash := utils.RosterHash(roster)
	c.mutex.RLock()
	if c.idx != nil && c.idx.Hash == hash {
		defer c.mutex.RUnlock()
		return c.idx
	}
	c.mutex.RUnlock()

	c.mutex.Lock()
	defer c.mutex.Unlock()
	// another writer may have rebuilt it in the meantime
	if c.idx == nil || c.idx.Hash != hash {
		c.l.Debug("rebuilding uniqueness index",
			log.Int("participants", len(roster.Participants)),
			log.String("hash", hash[:8]))
		c.idx = Build(roster)
	}
	return c.idx
}

// Invalidate drops the cached index. Called on roster-change
// notification; the next Get rebuilds.
func (c *Cache) Invalidate() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.idx = nil
}
