package memory

import (
	"context"
	"sync"
	"time"

	"github.com/feedgod/arena/internal/domain"
)

// LockManager implements domain.LockManager with process-local mutexes.
// Used by tests and the single-process dev mode; production uses the Redis
// lock manager.
type LockManager struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLockManager creates an empty LockManager.
func NewLockManager() *LockManager {
	return &LockManager{held: make(map[string]bool)}
}

// Acquire takes the named lock, returning domain.ErrLockHeld when it is
// already held. The TTL is ignored; a process-local lock dies with its
// process.
func (lm *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if lm.held[key] {
		return nil, domain.ErrLockHeld
	}
	lm.held[key] = true

	released := false
	unlock := func() {
		lm.mu.Lock()
		defer lm.mu.Unlock()
		if released {
			return
		}
		released = true
		delete(lm.held, key)
	}
	return unlock, nil
}

// Compile-time interface check.
var _ domain.LockManager = (*LockManager)(nil)
