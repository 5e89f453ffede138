package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_IsLockedOut(t *testing.T) {
	now := time.Date(2024, 5, 18, 12, 0, 0, 0, time.UTC)
	until := now.Add(5 * time.Minute)

	assert.False(t, (&User{}).IsLockedOut(now))
	assert.True(t, (&User{LockoutUntil: &until}).IsLockedOut(now))
	assert.True(t, (&User{LockoutUntil: &until}).IsLockedOut(until.Add(-time.Second)))
	assert.False(t, (&User{LockoutUntil: &until}).IsLockedOut(until))
}

func TestUser_CloneIsDeep(t *testing.T) {
	ts := time.Now()
	u := &User{ID: "u1", LastLoginAt: &ts, LockoutUntil: &ts, ConfirmationConsumedAt: &ts}

	c := u.Clone()
	*c.LastLoginAt = ts.Add(time.Hour)
	*c.LockoutUntil = ts.Add(time.Hour)
	*c.ConfirmationConsumedAt = ts.Add(time.Hour)
	c.ID = "u2"

	assert.Equal(t, "u1", u.ID)
	assert.True(t, u.LastLoginAt.Equal(ts))
	assert.True(t, u.LockoutUntil.Equal(ts))
	assert.True(t, u.ConfirmationConsumedAt.Equal(ts))
}
