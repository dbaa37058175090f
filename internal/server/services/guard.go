package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/alumnae/internal/common"
	"github.com/dmitrijs2005/alumnae/internal/logging"
	"github.com/dmitrijs2005/alumnae/internal/server/auth"
	"github.com/dmitrijs2005/alumnae/internal/server/metrics"
	"github.com/dmitrijs2005/alumnae/internal/server/models"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/repomanager"
)

// Guard authenticates the bearer token of a protected request.
type Guard struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      TokenCodec
	lockout     *auth.LockoutPolicy
	revocations *RevocationService
	metrics     *metrics.Metrics
	logger      logging.Logger
}

func NewGuard(db *sql.DB, m repomanager.RepositoryManager, ac AuthComponents, revocations *RevocationService) *Guard {
	return &Guard{
		db:          db,
		repomanager: m,
		tokens:      ac.Tokens,
		lockout:     ac.Lockout,
		revocations: revocations,
		metrics:     ac.Metrics,
		logger:      ac.logger().With("module", "guard"),
	}
}

// Authenticate resolves token to its user. Checks run in a fixed order and
// the first failure wins: missing token, undecodable token, revoked token,
// unknown user, locked account.
func (g *Guard) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, g.reject("missing", common.ErrUnauthenticated)
	}

	claims, err := g.tokens.Decode(token)
	if err != nil {
		return nil, g.reject("invalid", common.ErrInvalidToken)
	}

	revoked, err := g.revocations.IsRevoked(ctx, token)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, g.reject("revoked", common.ErrTokenRevoked)
	}

	if !validID(claims.UserID) {
		return nil, g.reject("unknown_user", common.ErrUnknownUser)
	}

	user, err := g.repomanager.Users(g.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, g.reject("unknown_user", common.ErrUnknownUser)
		}
		g.logger.Error(ctx, "load user", "user_id", claims.UserID, "error", err)
		return nil, common.ErrorInternal
	}

	if g.lockout.IsLocked(user) {
		return nil, g.reject("locked", common.ErrAccountLocked)
	}

	return user, nil
}

func (g *Guard) reject(reason string, err error) error {
	g.metrics.GuardRejection(reason)
	return err
}
