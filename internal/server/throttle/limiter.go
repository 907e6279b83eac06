// Package throttle counts failed logins per client and locks a client out
// once it fails too often inside a window.
package throttle

import (
	"context"
	"time"
)

// Policy is the lockout rule shared by every backend.
type Policy struct {
	// MaxAttempts failures within Window lock the key. Zero disables limiting.
	MaxAttempts int
	Window      time.Duration
	LockFor     time.Duration
}

// Enabled reports whether the policy limits anything.
func (p Policy) Enabled() bool {
	return p.MaxAttempts > 0
}

// Limiter tracks failures per key (the client IP).
type Limiter interface {
	// Check returns how long key must wait before trying again, zero when it
	// is not locked.
	Check(ctx context.Context, key string) (time.Duration, error)

	// RecordFailure counts one failure and returns the attempts left before
	// the key is locked.
	RecordFailure(ctx context.Context, key string) (int, error)

	// Reset forgets key after a successful login.
	Reset(ctx context.Context, key string) error
}

// Nop never limits.
type Nop struct{}

func (Nop) Check(context.Context, string) (time.Duration, error) { return 0, nil }
func (Nop) RecordFailure(context.Context, string) (int, error)   { return 0, nil }
func (Nop) Reset(context.Context, string) error                  { return nil }
