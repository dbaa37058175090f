// Package common defines shared constants and sentinel errors used across
// the repository, service and transport layers. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Validation errors are wrapped with a field-level message:
	//
	//	fmt.Errorf("%w: password must be at least 6 characters", common.ErrValidation)
	ErrValidation = errors.New("validation error")

	// Login errors. Unknown identifier and wrong password share ErrInvalidCredentials.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is locked due to too many failed login attempts")

	// Session guard rejections.
	ErrUnauthenticated = errors.New("no token, authorization denied")
	ErrInvalidToken    = errors.New("token is not valid")
	ErrTokenRevoked    = errors.New("token has been invalidated, please log in again")
	ErrUnknownUser     = errors.New("token is not valid - user not found")

	// Role errors.
	ErrForbidden = errors.New("access denied, admin rights required")
)
