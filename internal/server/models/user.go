// Package models holds the persistent server-side records.
package models

import "time"

// User is a registered identity. PasswordHash never leaves the server: it is
// not serialized by any transport and must not be logged.
type User struct {
	ID             string
	Email          string
	PasswordHash   string
	EmailConfirmed bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastLoginAt    *time.Time

	FailedLoginCount int
	LockoutUntil     *time.Time

	// ConfirmationConsumedAt is the issued-at time of the last redeemed
	// confirm-email token. Tokens issued at or before it are spent.
	ConfirmationConsumedAt *time.Time
}

// IsLockedOut reports whether login attempts are suspended at now.
func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockoutUntil != nil && now.Before(*u.LockoutUntil)
}

// Clone returns a deep copy, so in-memory stores never share pointers with
// callers.
func (u *User) Clone() *User {
	c := *u
	c.LastLoginAt = cloneTime(u.LastLoginAt)
	c.LockoutUntil = cloneTime(u.LockoutUntil)
	c.ConfirmationConsumedAt = cloneTime(u.ConfirmationConsumedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
