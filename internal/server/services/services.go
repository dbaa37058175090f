// Package services contains server-side business logic: the login flow,
// the session guard, the token revocation list and the alumni directory.
package services

import (
	"github.com/google/uuid"

	"github.com/dmitrijs2005/alumnae/internal/logging"
	"github.com/dmitrijs2005/alumnae/internal/server/auth"
	"github.com/dmitrijs2005/alumnae/internal/server/metrics"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
	VerifyDummy(plaintext string)
}

// TokenCodec issues and decodes session tokens.
type TokenCodec interface {
	Issue(userID string) (string, error)
	Decode(token string) (*auth.TokenClaims, error)
}

// AuthComponents bundles the collaborators shared by the authentication services.
type AuthComponents struct {
	Hasher  PasswordHasher
	Lockout *auth.LockoutPolicy
	Tokens  TokenCodec
	Clock   auth.Clock
	Metrics *metrics.Metrics
	Logger  logging.Logger
}

func (a AuthComponents) clock() auth.Clock {
	if a.Clock == nil {
		return auth.SystemClock{}
	}
	return a.Clock
}

func (a AuthComponents) logger() logging.Logger {
	if a.Logger == nil {
		return logging.Nop{}
	}
	return a.Logger
}

// validID reports whether id can be a primary key. Malformed ids are
// treated as missing rows instead of reaching the database.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
