package portal

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Username      string    `bun:"username,notnull" json:"username"`
	Email         string    `bun:"email,notnull,unique" json:"email"`
	PasswordHash  string    `bun:"password_hash,notnull" json:"-"`
	Role          UserRole  `bun:"user_role,notnull,default:'user'" json:"user_role"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// NewUser builds a record ready to insert. The password must already be
// hashed.
func NewUser(username, email, passwordHash string, role UserRole) *User {
	now := time.Now()
	return &User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Identity returns the session snapshot view of the record
func (u *User) Identity() Identity {
	return NewIdentityFromUser(u)
}

// SessionRecord is a persisted session blob keyed by the cookie token
type SessionRecord struct {
	bun.BaseModel `bun:"table:sessions,alias:ses"`
	ID            string `bun:"id,pk" json:"id"`
	Data          []byte `bun:"data" json:"-"`
	// ExpiresAt is a unix timestamp in nanoseconds, zero means the record
	// never expires
	ExpiresAt int64 `bun:"expires_at,notnull,default:0" json:"expires_at"`
}

// Expired reports whether the record is past its expiration at now
func (s *SessionRecord) Expired(now time.Time) bool {
	return s.ExpiresAt > 0 && now.UnixNano() >= s.ExpiresAt
}
