package guardsvc

import (
	"context"
	"sync"
	"time"

	"github.com/checkkid/checkkid/core/attendance"
)

// memoryGuard is a process-local check-in dedup guard. Good enough for a
// single API instance; multi-instance deployments use the redis guard.
type memoryGuard struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

var _ attendance.Guard = (*memoryGuard)(nil)

func NewMemoryGuard(ttl time.Duration) *memoryGuard {
	return &memoryGuard{
		seen: make(map[string]time.Time),
		ttl:  ttl,
	}
}

func (g *memoryGuard) Reserve(ctx context.Context, key string) (bool, error) {
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if exp, ok := g.seen[key]; ok && now.Before(exp) {
		return false, nil
	}
	g.seen[key] = now.Add(g.ttl)
	g.prune(now)
	return true, nil
}

// prune drops expired reservations; called under the lock.
func (g *memoryGuard) prune(now time.Time) {
	for key, exp := range g.seen {
		if now.After(exp) {
			delete(g.seen, key)
		}
	}
}
