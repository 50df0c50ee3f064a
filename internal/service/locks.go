package service

import "sync"

// playerLocks serializes syncs per player. Acquisition never blocks: a
// second sync for a player already in flight is rejected, not queued.
type playerLocks struct {
	mu   sync.Mutex
	busy map[string]bool
}

func newPlayerLocks() *playerLocks {
	return &playerLocks{busy: make(map[string]bool)}
}

func (l *playerLocks) tryAcquire(playerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy[playerID] {
		return false
	}
	l.busy[playerID] = true
	return true
}

func (l *playerLocks) release(playerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.busy, playerID)
}
