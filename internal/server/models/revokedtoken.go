package models

import "time"

// RevokedToken is a session token that was invalidated before its expiry.
type RevokedToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
