package portal

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewUser(t *testing.T) {
	u := NewUser("alice", "a@x.com", "$2a$hash", RoleUser)

	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, "$2a$hash", u.PasswordHash)
	assert.Equal(t, RoleUser, u.Role)
	assert.False(t, u.CreatedAt.IsZero())
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)

	other := NewUser("alice", "a@x.com", "$2a$hash", RoleUser)
	assert.NotEqual(t, u.ID, other.ID)
}

func TestUserIdentity(t *testing.T) {
	u := NewUser("gursidh", "g@x.com", "hash", RoleAdmin)

	identity := u.Identity()
	assert.Equal(t, u.ID.String(), identity.ID())
	assert.Equal(t, "gursidh", identity.Username())
	assert.Equal(t, "g@x.com", identity.Email())
	assert.Equal(t, RoleAdmin, identity.Role())

	assert.Nil(t, NewIdentityFromUser(nil))
}

func TestSessionRecordExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		expiresAt int64
		expected  bool
	}{
		{name: "never expires", expiresAt: 0, expected: false},
		{name: "future", expiresAt: now.Add(time.Minute).UnixNano(), expected: false},
		{name: "later within the same second", expiresAt: now.Add(500 * time.Millisecond).UnixNano(), expected: false},
		{name: "exactly now", expiresAt: now.UnixNano(), expected: true},
		{name: "past", expiresAt: now.Add(-time.Minute).UnixNano(), expected: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &SessionRecord{ID: "k", ExpiresAt: tc.expiresAt}
			assert.Equal(t, tc.expected, rec.Expired(now))
		})
	}
}
