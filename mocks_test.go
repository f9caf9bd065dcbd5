package portal_test

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-portal"
	"github.com/stretchr/testify/mock"
)

// MockCredentialStore implements portal.CredentialStore
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) FindByEmail(ctx context.Context, email string) ([]*portal.User, error) {
	args := m.Called(ctx, email)
	users, _ := args.Get(0).([]*portal.User)
	return users, args.Error(1)
}

func (m *MockCredentialStore) Exists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockCredentialStore) Insert(ctx context.Context, user *portal.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockCredentialStore) SetRole(ctx context.Context, username string, role portal.UserRole) (portal.UserRole, error) {
	args := m.Called(ctx, username, role)
	previous, _ := args.Get(0).(portal.UserRole)
	return previous, args.Error(1)
}

func (m *MockCredentialStore) List(ctx context.Context) ([]*portal.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*portal.User)
	return users, args.Error(1)
}

// MockLogger implements portal.Logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Info(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Warn(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Error(msg string, args ...any) {
	m.Called(msg, args)
}

// recordingSink keeps every event it receives
type recordingSink struct {
	mu     sync.Mutex
	events []portal.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event portal.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Types() []portal.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]portal.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

func (s *recordingSink) Events() []portal.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]portal.ActivityEvent(nil), s.events...)
}

// fakeClock is a movable clock for session expiry tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
