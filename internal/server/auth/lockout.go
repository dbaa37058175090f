package auth

import (
	"time"

	"github.com/dmitrijs2005/alumnae/internal/server/models"
)

const (
	DefaultMaxLoginAttempts = 5
	DefaultLockDuration     = 30 * time.Minute
)

// LockoutPolicy decides when repeated password failures lock an account.
// It only mutates the user value; persisting the result is the caller's job.
type LockoutPolicy struct {
	maxAttempts  int
	lockDuration time.Duration
	clock        Clock
}

// NewLockoutPolicy builds a policy. Non-positive arguments fall back to the defaults.
func NewLockoutPolicy(maxAttempts int, lockDuration time.Duration, clock Clock) *LockoutPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxLoginAttempts
	}
	if lockDuration <= 0 {
		lockDuration = DefaultLockDuration
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &LockoutPolicy{maxAttempts: maxAttempts, lockDuration: lockDuration, clock: clock}
}

// RecordFailure counts a failed password check and locks the account once
// the threshold is reached. It reports whether the account is now locked.
func (p *LockoutPolicy) RecordFailure(u *models.User) bool {
	u.LoginAttempts++
	if u.LoginAttempts >= p.maxAttempts {
		until := p.clock.Now().Add(p.lockDuration)
		u.LockUntil = &until
		return true
	}
	return false
}

// RecordSuccess resets the failure counter, clears any lock and stamps the login time.
func (p *LockoutPolicy) RecordSuccess(u *models.User) {
	now := p.clock.Now()
	u.LoginAttempts = 0
	u.LockUntil = nil
	u.LastLogin = &now
}

// IsLocked reports whether u has a lock that has not yet expired.
// An expired lock is left in place.
func (p *LockoutPolicy) IsLocked(u *models.User) bool {
	return u.LockUntil != nil && u.LockUntil.After(p.clock.Now())
}
