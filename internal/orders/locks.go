package orders

import (
	"sync"
)

// clientLocks hands out one mutex per client so an admission check and the
// order insert that follows it run as a critical section. Without this, two
// concurrent attempts by the same client could both observe an empty history
// and both be admitted past the rate limits.
type clientLocks struct {
	mu    sync.Mutex
	locks map[string]*clientLock
}

type clientLock struct {
	sync.Mutex
	refs int
}

func newClientLocks() *clientLocks {
	return &clientLocks{locks: make(map[string]*clientLock)}
}

// acquire locks the mutex for clientID, creating it on first use.
func (c *clientLocks) acquire(clientID string) {
	c.mu.Lock()
	l := c.locks[clientID]
	if l == nil {
		l = &clientLock{}
		c.locks[clientID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.Lock()
}

// release unlocks the client's mutex and discards it once no one is waiting.
func (c *clientLocks) release(clientID string) {
	c.mu.Lock()
	l := c.locks[clientID]
	if l == nil {
		c.mu.Unlock()
		return
	}
	l.refs--
	if l.refs == 0 {
		delete(c.locks, clientID)
	}
	c.mu.Unlock()

	l.Unlock()
}
