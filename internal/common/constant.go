// Package common contains shared constants and sentinel errors used across
// the alumnae API components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer session token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the auth scheme prefix expected in the Authorization header.
const BearerScheme = "Bearer"

// MinPasswordLength is the shortest plaintext password accepted for hashing.
const MinPasswordLength = 6
