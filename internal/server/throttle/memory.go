package throttle

import (
	"context"
	"sync"
	"time"
)

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// MemoryLimiter keeps attempt state in process memory. It is the default
// backend for a single server instance.
type MemoryLimiter struct {
	policy Policy
	now    func() time.Time

	lock     sync.Mutex
	attempts map[string]*attemptState
}

func NewMemoryLimiter(p Policy) *MemoryLimiter {
	return &MemoryLimiter{
		policy:   p,
		now:      time.Now,
		attempts: make(map[string]*attemptState),
	}
}

func (m *MemoryLimiter) Check(_ context.Context, key string) (time.Duration, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	state, ok := m.attempts[key]
	if !ok {
		return 0, nil
	}
	now := m.now()
	if !now.Before(state.lockedUntil) {
		return 0, nil
	}
	return state.lockedUntil.Sub(now), nil
}

func (m *MemoryLimiter) RecordFailure(_ context.Context, key string) (int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := m.now()
	m.evictExpired(now)

	state, ok := m.attempts[key]
	if !ok {
		state = &attemptState{}
		m.attempts[key] = state
	}
	if state.count == 0 || now.Sub(state.firstAttempt) > m.policy.Window {
		state.count = 0
		state.firstAttempt = now
	}

	state.count++
	left := max(m.policy.MaxAttempts-state.count, 0)
	if left == 0 {
		// the lock replaces the count; attempts after it start a new window
		state.lockedUntil = now.Add(m.policy.LockFor)
		state.count = 0
	}

	return left, nil
}

func (m *MemoryLimiter) Reset(_ context.Context, key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.attempts, key)
	return nil
}

// evictExpired drops states whose window and lock have both passed, so the
// map does not grow with every address ever seen.
func (m *MemoryLimiter) evictExpired(now time.Time) {
	for k, s := range m.attempts {
		if now.Sub(s.firstAttempt) > m.policy.Window && !now.Before(s.lockedUntil) {
			delete(m.attempts, k)
		}
	}
}
