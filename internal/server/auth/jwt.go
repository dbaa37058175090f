package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/alumnae/internal/common"
)

// DefaultTokenValidity is how long a session token stays valid.
const DefaultTokenValidity = 30 * 24 * time.Hour

// TokenClaims is what a decoded session token carries.
type TokenClaims struct {
	UserID    string
	ExpiresAt time.Time
}

// TokenIssuer creates and verifies HS256 session tokens.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	validity time.Duration
	clock    Clock
}

func NewTokenIssuer(secret []byte, issuer, audience string, validity time.Duration, clock Clock) *TokenIssuer {
	if validity <= 0 {
		validity = DefaultTokenValidity
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &TokenIssuer{secret: secret, issuer: issuer, audience: audience, validity: validity, clock: clock}
}

// Issue signs a token for userID that expires after the configured validity.
func (t *TokenIssuer) Issue(userID string) (string, error) {
	now := t.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		Issuer:    t.issuer,
		Audience:  jwt.ClaimStrings{t.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.validity)),
	})

	s, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Decode verifies signature, algorithm, expiry, issuer and audience.
// Every failure is reported as common.ErrInvalidToken.
func (t *TokenIssuer) Decode(tokenString string) (*TokenClaims, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.clock.Now),
	)
	if err != nil {
		return nil, errors.Join(common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, common.ErrInvalidToken
	}

	return &TokenClaims{UserID: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}
