package domain

import "time"

// User is the account record. Empty SessionToken and VerificationToken mean
// "no value": no active session, and no outstanding verification.
type User struct {
	ID                string
	Email             string
	PasswordHash      string
	SessionToken      string
	Verified          bool
	VerificationToken string
	Subscription      Subscription
	AvatarURL         string
	CreatedAt         time.Time
}

// HasSession reports whether the account currently has an active bearer token.
func (u User) HasSession() bool {
	return u.SessionToken != ""
}
