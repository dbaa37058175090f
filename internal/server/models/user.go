package models

import "time"

// User is an account that can sign in to the API.
type User struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	IsAdmin       bool
	LoginAttempts int
	LockUntil     *time.Time
	LastLogin     *time.Time
	CreatedAt     time.Time
}
