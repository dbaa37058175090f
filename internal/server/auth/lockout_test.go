package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/alumnae/internal/server/models"
)

func TestLockoutPolicy_RecordFailure(t *testing.T) {
	clock := NewManualClock(epoch)
	p := NewLockoutPolicy(5, 30*time.Minute, clock)
	u := &models.User{}

	for i := 1; i <= 4; i++ {
		assert.False(t, p.RecordFailure(u))
		assert.Equal(t, i, u.LoginAttempts)
		assert.Nil(t, u.LockUntil)
	}

	assert.True(t, p.RecordFailure(u))
	assert.Equal(t, 5, u.LoginAttempts)
	require.NotNil(t, u.LockUntil)
	assert.True(t, u.LockUntil.Equal(epoch.Add(30*time.Minute)))
	assert.True(t, p.IsLocked(u))
}

func TestLockoutPolicy_StartingAtFourLocks(t *testing.T) {
	p := NewLockoutPolicy(0, 0, NewManualClock(epoch))
	u := &models.User{LoginAttempts: 4}

	assert.True(t, p.RecordFailure(u))
	assert.True(t, p.IsLocked(u))
}

func TestLockoutPolicy_RecordSuccess(t *testing.T) {
	clock := NewManualClock(epoch)
	p := NewLockoutPolicy(5, 30*time.Minute, clock)
	lock := epoch.Add(time.Minute)
	u := &models.User{LoginAttempts: 3, LockUntil: &lock}

	p.RecordSuccess(u)

	assert.Zero(t, u.LoginAttempts)
	assert.Nil(t, u.LockUntil)
	require.NotNil(t, u.LastLogin)
	assert.True(t, u.LastLogin.Equal(epoch))
}

func TestLockoutPolicy_IsLocked(t *testing.T) {
	clock := NewManualClock(epoch)
	p := NewLockoutPolicy(5, 30*time.Minute, clock)

	past := epoch.Add(-time.Second)
	future := epoch.Add(time.Second)

	tests := []struct {
		name string
		user *models.User
		want bool
	}{
		{name: "never locked", user: &models.User{}, want: false},
		{name: "lock in future", user: &models.User{LockUntil: &future}, want: true},
		{name: "lock expired", user: &models.User{LoginAttempts: 5, LockUntil: &past}, want: false},
		{name: "lock ends now", user: &models.User{LockUntil: &epoch}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.IsLocked(tt.user))
		})
	}

	u := &models.User{LockUntil: &past}
	p.IsLocked(u)
	assert.NotNil(t, u.LockUntil, "an expired lock is not cleared by the check")
}
