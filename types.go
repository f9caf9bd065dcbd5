package portal

import (
	"context"
	"log/slog"
	"time"
)

// Logger is the logging contract used across the package. Args are
// key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity is the subset of a user record copied into a session
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() UserRole
}

// CredentialStore is the persistent user record set
type CredentialStore interface {
	// FindByEmail returns every record matching email. Callers decide
	// what more than one match means.
	FindByEmail(ctx context.Context, email string) ([]*User, error)
	Exists(ctx context.Context, email string) (bool, error)
	Insert(ctx context.Context, user *User) error
	// SetRole returns the role held before the update
	SetRole(ctx context.Context, username string, role UserRole) (UserRole, error)
	List(ctx context.Context) ([]*User, error)
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) error
}

// Clock returns the current time. Tests swap it to move sessions past
// their expiration.
type Clock func() time.Time

// SlogLogger adapts a *slog.Logger to Logger
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l. A nil logger falls back to slog.Default.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{l: l}
}

// Debug logs msg at debug level
func (s *SlogLogger) Debug(msg string, args ...any) {
	s.l.Debug(msg, args...)
}

// Info logs msg at info level
func (s *SlogLogger) Info(msg string, args ...any) {
	s.l.Info(msg, args...)
}

// Warn logs msg at warn level
func (s *SlogLogger) Warn(msg string, args ...any) {
	s.l.Warn(msg, args...)
}

// Error logs msg at error level
func (s *SlogLogger) Error(msg string, args ...any) {
	s.l.Error(msg, args...)
}

// With returns a child logger that always includes args
func (s *SlogLogger) With(args ...any) *SlogLogger {
	return &SlogLogger{l: s.l.With(args...)}
}

type defLogger struct{}

func (defLogger) Debug(msg string, args ...any) {
	slog.Default().Debug(msg, append([]any{"component", "portal"}, args...)...)
}

func (defLogger) Info(msg string, args ...any) {
	slog.Default().Info(msg, append([]any{"component", "portal"}, args...)...)
}

func (defLogger) Warn(msg string, args ...any) {
	slog.Default().Warn(msg, append([]any{"component", "portal"}, args...)...)
}

func (defLogger) Error(msg string, args ...any) {
	slog.Default().Error(msg, append([]any{"component", "portal"}, args...)...)
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
