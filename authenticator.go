package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// DefaultAdminUsername is the username promoted to admin at signup
const DefaultAdminUsername = "gursidh"

// Auther runs the signup, login and role management flows against a
// CredentialStore.
type Auther struct {
	store         CredentialStore
	hasher        PasswordHasher
	adminUsername string
	logger        Logger
	activitySink  ActivitySink
	now           Clock
}

// NewAuther returns a new Auther
func NewAuther(store CredentialStore) *Auther {
	return &Auther{
		store:         store,
		hasher:        NewBcryptHasher(DefaultHashCost),
		adminUsername: DefaultAdminUsername,
		logger:        defLogger{},
		activitySink:  noopActivitySink{},
		now:           time.Now,
	}
}

// WithLogger sets the logger
func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = normalizeLogger(logger)
	return s
}

// WithHasher replaces the password hasher
func (s *Auther) WithHasher(hasher PasswordHasher) *Auther {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// WithAdminUsername sets the username that signs up as admin
func (s *Auther) WithAdminUsername(username string) *Auther {
	if username != "" {
		s.adminUsername = username
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithClock replaces the clock used to check the actor session
func (s *Auther) WithClock(clock Clock) *Auther {
	if clock != nil {
		s.now = clock
	}
	return s
}

// AdminUsername returns the configured admin username
func (s *Auther) AdminUsername() string {
	return s.adminUsername
}

// Signup validates payload, rejects known emails and stores a new user.
// The returned identity is ready to be placed in a session.
func (s *Auther) Signup(ctx context.Context, payload SignupPayload) (Identity, error) {
	if err := payload.Validate(); err != nil {
		s.logger.Debug("signup payload rejected", "error", err)
		return nil, NewValidationError(ErrInvalidPayload, err)
	}

	exists, err := s.store.Exists(ctx, payload.Email)
	if err != nil {
		return nil, WrapStoreError(err, "signup exists check")
	}

	if exists {
		s.logger.Info("signup for existing email", "email", payload.Email)
		return nil, ErrDuplicateAccount
	}

	hash, err := s.hasher.Hash(payload.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "signup hash password")
	}

	role := RoleForUsername(payload.Username, s.adminUsername)
	user := NewUser(payload.Username, payload.Email, hash, role)

	if err := s.store.Insert(ctx, user); err != nil {
		return nil, WrapStoreError(err, "signup insert")
	}

	s.emitAuthEvent(ctx, ActivityEvent{
		EventType: ActivityEventSignup,
		Actor:     user.Username,
		Subject:   user.Email,
		ToRole:    user.Role,
	})

	return user.Identity(), nil
}

// Login checks the email shape, requires exactly one matching record and
// verifies the password against its hash.
func (s *Auther) Login(ctx context.Context, payload LoginPayload) (Identity, error) {
	if err := payload.Validate(); err != nil {
		s.emitLoginFailure(ctx, payload.Email, ErrInvalidEmail)
		return nil, NewValidationError(ErrInvalidEmail, err)
	}

	users, err := s.store.FindByEmail(ctx, payload.Email)
	if err != nil {
		return nil, WrapStoreError(err, "login find by email")
	}

	if len(users) != 1 {
		s.logger.Debug("login lookup did not match a single account", "matches", len(users))
		s.emitLoginFailure(ctx, payload.Email, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	user := users[0]
	if err := s.hasher.Compare(payload.Password, user.PasswordHash); err != nil {
		if !errors.Is(err, ErrMismatchedHashAndPassword) {
			s.logger.Error("login compare password", "error", err)
		}
		s.emitLoginFailure(ctx, payload.Email, ErrIncorrectPassword)
		return nil, ErrIncorrectPassword
	}

	s.emitAuthEvent(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Actor:     user.Username,
		Subject:   user.Email,
	})

	return user.Identity(), nil
}

// Logout records the end of a session
func (s *Auther) Logout(ctx context.Context, state SessionState) {
	if !state.Authenticated {
		return
	}

	s.emitAuthEvent(ctx, ActivityEvent{
		EventType: ActivityEventLogout,
		Actor:     state.Username,
		Subject:   state.Email,
	})
}

// ChangeRole sets the role of username on behalf of actor, who must be
// an authenticated admin.
func (s *Auther) ChangeRole(ctx context.Context, actor SessionState, username, roleStr string) error {
	if !actor.IsAdmin(s.now()) {
		s.emitAuthEvent(ctx, ActivityEvent{
			EventType: ActivityEventAccessDenied,
			Actor:     actor.Username,
			Subject:   username,
			Metadata: map[string]any{
				"operation": "change_role",
			},
		})
		return ErrForbidden
	}

	return s.assignRole(ctx, actor.Username, username, roleStr)
}

// AssignRole sets the role of username without an actor check. Meant
// for operator tooling.
func (s *Auther) AssignRole(ctx context.Context, username, roleStr string) error {
	return s.assignRole(ctx, "operator", username, roleStr)
}

func (s *Auther) assignRole(ctx context.Context, actor, username, roleStr string) error {
	role, err := ParseRole(roleStr)
	if err != nil {
		return err
	}

	if strings.TrimSpace(username) == "" {
		return ErrIdentityNotFound
	}

	previous, err := s.store.SetRole(ctx, username, role)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return err
		}
		return WrapStoreError(err, "change role")
	}

	s.emitAuthEvent(ctx, ActivityEvent{
		EventType: ActivityEventRoleChanged,
		Actor:     actor,
		Subject:   username,
		FromRole:  previous,
		ToRole:    role,
	})

	return nil
}

// ListUsers returns every stored user
func (s *Auther) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, WrapStoreError(err, "list users")
	}
	return users, nil
}

// LookupByEmail finds records by an untrusted query value. Values that
// are not a single string are rejected before the store is queried.
func (s *Auther) LookupByEmail(ctx context.Context, raw any) ([]*User, error) {
	if err := ValidateScalarEmail(raw); err != nil {
		if errors.Is(err, ErrInjectionDetected) {
			s.emitAuthEvent(ctx, ActivityEvent{
				EventType: ActivityEventInjectionDetected,
				Metadata: map[string]any{
					"value": fmt.Sprintf("%v", raw),
				},
			})
		}
		return nil, err
	}

	email, _ := raw.(string)
	users, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, WrapStoreError(err, "lookup by email")
	}
	return users, nil
}

func (s *Auther) emitLoginFailure(ctx context.Context, email string, reason error) {
	s.emitAuthEvent(ctx, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Subject:   email,
		Metadata: map[string]any{
			"error": ErrorMessage(reason),
		},
	})
}

func (s *Auther) emitAuthEvent(ctx context.Context, event ActivityEvent) {
	sink := normalizeActivitySink(s.activitySink)

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error", "error", err)
	}
}
