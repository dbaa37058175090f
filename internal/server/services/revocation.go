package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/alumnae/internal/common"
	"github.com/dmitrijs2005/alumnae/internal/logging"
	"github.com/dmitrijs2005/alumnae/internal/server/auth"
	"github.com/dmitrijs2005/alumnae/internal/server/metrics"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/repomanager"
)

// RevocationService is the token revocation list. Entries live until the
// token's own expiry; lookups ignore expired entries and the sweeper
// removes them.
type RevocationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      TokenCodec
	clock       auth.Clock
	metrics     *metrics.Metrics
	logger      logging.Logger
}

func NewRevocationService(db *sql.DB, m repomanager.RepositoryManager, ac AuthComponents) *RevocationService {
	return &RevocationService{
		db:          db,
		repomanager: m,
		tokens:      ac.Tokens,
		clock:       ac.clock(),
		metrics:     ac.Metrics,
		logger:      ac.logger().With("module", "revocation"),
	}
}

// Revoke invalidates token until its expiry. userID defaults to the token
// subject. Revoking an already revoked token succeeds.
func (s *RevocationService) Revoke(ctx context.Context, token, userID string) error {
	claims, err := s.tokens.Decode(token)
	if err != nil {
		return common.ErrInvalidToken
	}
	if userID == "" {
		userID = claims.UserID
	}

	if err := s.repomanager.RevokedTokens(s.db).Insert(ctx, token, userID, claims.ExpiresAt); err != nil {
		s.logger.Error(ctx, "revoke failed", "user_id", userID, "error", err)
		return common.ErrorInternal
	}

	s.metrics.Revocation()
	s.logger.Info(ctx, "token revoked", "user_id", userID)
	return nil
}

// IsRevoked reports whether token has a revocation entry that has not expired.
func (s *RevocationService) IsRevoked(ctx context.Context, token string) (bool, error) {
	revoked, err := s.repomanager.RevokedTokens(s.db).IsRevoked(ctx, token, s.clock.Now())
	if err != nil {
		s.logger.Error(ctx, "revocation lookup failed", "error", err)
		return false, common.ErrorInternal
	}
	return revoked, nil
}

// Prune deletes entries that expired at or before now.
func (s *RevocationService) Prune(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repomanager.RevokedTokens(s.db).DeleteExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	s.metrics.Pruned(n)
	return n, nil
}

// RunSweeper prunes expired entries every interval until ctx is cancelled.
func (s *RevocationService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Prune(ctx, s.clock.Now())
			if err != nil {
				s.logger.Error(ctx, "prune revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info(ctx, "pruned revoked tokens", "count", n)
			}
		}
	}
}
