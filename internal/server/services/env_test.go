package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/alumnae/internal/server/auth"
	"github.com/dmitrijs2005/alumnae/internal/server/metrics"
	"github.com/dmitrijs2005/alumnae/internal/server/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	clock       *auth.ManualClock
	repos       *fakeRepoManager
	tokens      *auth.TokenIssuer
	users       *UserService
	guard       *Guard
	revocations *RevocationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := auth.NewManualClock(testNow)
	repos := newFakeRepoManager()
	tokens := auth.NewTokenIssuer([]byte("test-secret"), "ssa-alumnae-app", "ssa-alumnae-users", auth.DefaultTokenValidity, clock)

	ac := AuthComponents{
		Hasher:  auth.NewBcryptHasher(auth.MinBcryptCost),
		Lockout: auth.NewLockoutPolicy(auth.DefaultMaxLoginAttempts, auth.DefaultLockDuration, clock),
		Tokens:  tokens,
		Clock:   clock,
		Metrics: metrics.New(),
	}

	revocations := NewRevocationService(nil, repos, ac)
	return &testEnv{
		clock:       clock,
		repos:       repos,
		tokens:      tokens,
		users:       NewUserService(nil, repos, ac, revocations),
		guard:       NewGuard(nil, repos, ac, revocations),
		revocations: revocations,
	}
}

// register creates an account through the service and returns the stored user.
func (e *testEnv) register(t *testing.T, username, email, password string) *models.User {
	t.Helper()
	s, err := e.users.Register(context.Background(), username, email, password)
	require.NoError(t, err)
	u, err := e.repos.users.GetByID(context.Background(), s.User.ID)
	require.NoError(t, err)
	return u
}
