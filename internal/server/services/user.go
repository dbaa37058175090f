package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/alumnae/internal/common"
	"github.com/dmitrijs2005/alumnae/internal/logging"
	"github.com/dmitrijs2005/alumnae/internal/server/auth"
	"github.com/dmitrijs2005/alumnae/internal/server/metrics"
	"github.com/dmitrijs2005/alumnae/internal/server/models"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/repomanager"
)

// Session is the result of a successful registration or login.
type Session struct {
	User  *models.User
	Token string
}

// UserService provides account operations:
// - Register / Login: create accounts and sign in, with lockout
// - Logout: revoke the presented token
// - ChangePassword, CreateAdmin, Promote
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	lockout     *auth.LockoutPolicy
	tokens      TokenCodec
	revocations *RevocationService
	metrics     *metrics.Metrics
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, ac AuthComponents, revocations *RevocationService) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      ac.Hasher,
		lockout:     ac.Lockout,
		tokens:      ac.Tokens,
		revocations: revocations,
		metrics:     ac.Metrics,
		logger:      ac.logger().With("module", "users"),
	}
}

// Register creates a regular account and signs it in.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*Session, error) {
	user, err := s.createUser(ctx, username, email, password, false)
	if err != nil {
		return nil, err
	}

	// registering counts as the first sign-in
	s.lockout.RecordSuccess(user)
	if err := s.repomanager.Users(s.db).SaveLoginState(ctx, user); err != nil {
		s.logger.Warn(ctx, "save login state", "user_id", user.ID, "error", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error(ctx, "issue token", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return &Session{User: user, Token: token}, nil
}

// CreateAdmin creates an administrator account without signing it in.
func (s *UserService) CreateAdmin(ctx context.Context, username, email, password string) (*models.User, error) {
	return s.createUser(ctx, username, email, password, true)
}

func (s *UserService) createUser(ctx context.Context, username, email, password string, isAdmin bool) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: please provide username, email and password", common.ErrValidation)
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	exists, err := repo.Exists(ctx, username, email)
	if err != nil {
		s.logger.Error(ctx, "user lookup", "error", err)
		return nil, common.ErrorInternal
	}
	if exists {
		return nil, fmt.Errorf("%w: user already exists", common.ErrorAlreadyExists)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error(ctx, "hash password", "error", err)
		return nil, common.ErrorInternal
	}

	user, err := repo.Create(ctx, &models.User{Username: username, Email: email, PasswordHash: hash, IsAdmin: isAdmin})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: user already exists", common.ErrorAlreadyExists)
		}
		s.logger.Error(ctx, "create user", "error", err)
		return nil, common.ErrorInternal
	}
	return user, nil
}

// Login checks login (username or email, any case) and password.
//
// Unknown accounts and wrong passwords both yield ErrInvalidCredentials.
// A locked account yields ErrAccountLocked before the password is looked at.
// Every wrong password counts toward the lockout threshold.
func (s *UserService) Login(ctx context.Context, login, password string) (*Session, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, fmt.Errorf("%w: please provide login and password", common.ErrValidation)
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.VerifyDummy(password)
			s.metrics.LoginAttempt(metrics.LoginInvalidCredentials)
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "user lookup", "error", err)
		s.metrics.LoginAttempt(metrics.LoginError)
		return nil, common.ErrorInternal
	}

	if s.lockout.IsLocked(user) {
		s.metrics.LoginAttempt(metrics.LoginLocked)
		s.logger.Warn(ctx, "login to locked account", "user_id", user.ID)
		return nil, common.ErrAccountLocked
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		locked := s.lockout.RecordFailure(user)
		if err := repo.SaveLoginState(ctx, user); err != nil {
			s.logger.Error(ctx, "save login state", "user_id", user.ID, "error", err)
			s.metrics.LoginAttempt(metrics.LoginError)
			return nil, common.ErrorInternal
		}
		if locked {
			s.metrics.Lockout()
			s.logger.Warn(ctx, "account locked", "user_id", user.ID, "attempts", user.LoginAttempts)
		}
		s.metrics.LoginAttempt(metrics.LoginInvalidCredentials)
		return nil, common.ErrInvalidCredentials
	}

	s.lockout.RecordSuccess(user)
	if err := repo.SaveLoginState(ctx, user); err != nil {
		s.logger.Error(ctx, "save login state", "user_id", user.ID, "error", err)
		s.metrics.LoginAttempt(metrics.LoginError)
		return nil, common.ErrorInternal
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error(ctx, "issue token", "user_id", user.ID, "error", err)
		s.metrics.LoginAttempt(metrics.LoginError)
		return nil, common.ErrorInternal
	}

	s.metrics.LoginAttempt(metrics.LoginSuccess)
	s.logger.Info(ctx, "login succeeded", "user_id", user.ID)
	return &Session{User: user, Token: token}, nil
}

// Logout revokes token for the rest of its lifetime.
func (s *UserService) Logout(ctx context.Context, token, userID string) error {
	return s.revocations.Revoke(ctx, token, userID)
}

// ChangePassword replaces the password of user after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, user *models.User, current, next string) error {
	if current == "" || next == "" {
		return fmt.Errorf("%w: please provide current and new password", common.ErrValidation)
	}
	if err := checkPassword(next); err != nil {
		return err
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return common.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return common.ErrorInternal
	}
	if err := s.repomanager.Users(s.db).UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.logger.Error(ctx, "update password", "user_id", user.ID, "error", err)
		return common.ErrorInternal
	}

	user.PasswordHash = hash
	s.logger.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

// Promote grants admin rights to the account identified by login.
func (s *UserService) Promote(ctx context.Context, login string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	if err := repo.SetAdmin(ctx, user.ID, true); err != nil {
		return nil, common.ErrorInternal
	}
	user.IsAdmin = true
	return user, nil
}

func checkPassword(p string) error {
	if utf8.RuneCountInString(p) < common.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", common.ErrValidation, common.MinPasswordLength)
	}
	return nil
}
