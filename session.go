package portal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an authenticated session stays valid
const DefaultSessionTTL = time.Hour

// DefaultSessionCookie is the cookie carrying the session token
const DefaultSessionCookie = "portal_session"

const (
	sessionKeyAuthenticated = "authenticated"
	sessionKeyUsername      = "username"
	sessionKeyEmail         = "email"
	sessionKeyRole          = "role"
	sessionKeyExpiresAt     = "expires_at"
)

// SessionState is the per client session as seen by handlers. A state
// is either fully authenticated or treated as anonymous.
type SessionState struct {
	Authenticated bool      `json:"authenticated"`
	Username      string    `json:"username,omitempty"`
	Email         string    `json:"email,omitempty"`
	Role          UserRole  `json:"role,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
}

// AnonymousSession is the state of a client that has not logged in
func AnonymousSession() SessionState {
	return SessionState{}
}

// NewAuthenticatedSession snapshots identity into a session valid for ttl
func NewAuthenticatedSession(identity Identity, now time.Time, ttl time.Duration) SessionState {
	return SessionState{
		Authenticated: true,
		Username:      identity.Username(),
		Email:         identity.Email(),
		Role:          identity.Role(),
		ExpiresAt:     now.Add(ttl),
	}
}

// IsAuthenticated reports whether the state is complete and unexpired
func (s SessionState) IsAuthenticated(now time.Time) bool {
	if !s.Authenticated {
		return false
	}

	if s.Username == "" || s.Email == "" || !s.Role.IsValid() {
		return false
	}

	if s.ExpiresAt.IsZero() {
		return false
	}

	return now.Before(s.ExpiresAt)
}

// IsAdmin reports whether the state is an authenticated admin
func (s SessionState) IsAdmin(now time.Time) bool {
	return s.IsAuthenticated(now) && s.Role.IsAdmin()
}

// ViewData exposes the state to templates. State that is not
// authenticated at now renders as anonymous.
func (s SessionState) ViewData(now time.Time) ViewContext {
	if !s.IsAuthenticated(now) {
		s = AnonymousSession()
	}

	return ViewContext{
		"authenticated": s.Authenticated,
		"username":      s.Username,
		"email":         s.Email,
		"role":          s.Role.String(),
	}
}

// SessionManager issues and reads server side sessions
type SessionManager struct {
	store        *session.Store
	storage      fiber.Storage
	ttl          time.Duration
	cookieName   string
	cookieSecure bool
	now          Clock
	logger       Logger
}

// SessionOption configures a SessionManager
type SessionOption func(*SessionManager) *SessionManager

// WithSessionStorage persists sessions in storage. Without it sessions
// are kept in memory.
func WithSessionStorage(storage fiber.Storage) SessionOption {
	return func(m *SessionManager) *SessionManager {
		m.storage = storage
		return m
	}
}

// WithSessionTTL sets the lifetime of an authenticated session
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(m *SessionManager) *SessionManager {
		if ttl > 0 {
			m.ttl = ttl
		}
		return m
	}
}

// WithSessionClock replaces the clock used for expiration checks
func WithSessionClock(clock Clock) SessionOption {
	return func(m *SessionManager) *SessionManager {
		if clock != nil {
			m.now = clock
		}
		return m
	}
}

// WithSessionCookieSecure marks the session cookie as secure
func WithSessionCookieSecure(secure bool) SessionOption {
	return func(m *SessionManager) *SessionManager {
		m.cookieSecure = secure
		return m
	}
}

// WithSessionCookieName renames the session cookie
func WithSessionCookieName(name string) SessionOption {
	return func(m *SessionManager) *SessionManager {
		if name != "" {
			m.cookieName = name
		}
		return m
	}
}

// WithSessionLogger sets the logger
func WithSessionLogger(logger Logger) SessionOption {
	return func(m *SessionManager) *SessionManager {
		m.logger = normalizeLogger(logger)
		return m
	}
}

// NewSessionManager returns a manager backed by a fiber session store
func NewSessionManager(opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		ttl:        DefaultSessionTTL,
		cookieName: DefaultSessionCookie,
		now:        time.Now,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		m = opt(m)
	}

	m.store = session.New(session.Config{
		Expiration:     m.ttl,
		Storage:        m.storage,
		KeyLookup:      "cookie:" + m.cookieName,
		CookieSecure:   m.cookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		KeyGenerator:   uuid.NewString,
	})

	return m
}

// TTL returns the lifetime given to new sessions
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// CookieName returns the name of the session cookie
func (m *SessionManager) CookieName() string {
	return m.cookieName
}

// Now returns the manager's notion of the current time
func (m *SessionManager) Now() time.Time {
	return m.now()
}

// Load reads the session for every request and attaches its state to
// the request. Expired or partial sessions are removed and the request
// continues as anonymous.
func (m *SessionManager) Load() fiber.Handler {
	return func(c *fiber.Ctx) error {
		state, err := m.load(c)
		if err != nil {
			return err
		}
		setSessionLocals(c, state)
		return c.Next()
	}
}

func (m *SessionManager) load(c *fiber.Ctx) (SessionState, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return AnonymousSession(), WrapStoreError(err, "session load")
	}

	if sess.Fresh() {
		return AnonymousSession(), nil
	}

	state := stateFromSession(sess)
	if state.IsAuthenticated(m.now()) {
		return state, nil
	}

	m.logger.Debug("discarding session", "session", sess.ID(), "expires_at", state.ExpiresAt)
	if err := sess.Destroy(); err != nil {
		return AnonymousSession(), WrapStoreError(err, "session destroy")
	}
	return AnonymousSession(), nil
}

// Read returns the state attached by Load, loading it when the loader
// did not run for this request.
func (m *SessionManager) Read(c *fiber.Ctx) (SessionState, error) {
	if state, ok := SessionFromFiber(c); ok {
		return state, nil
	}

	state, err := m.load(c)
	if err != nil {
		return AnonymousSession(), err
	}
	setSessionLocals(c, state)
	return state, nil
}

// Authenticate regenerates the session id and stores identity in it
func (m *SessionManager) Authenticate(c *fiber.Ctx, identity Identity) (SessionState, error) {
	if identity == nil {
		return AnonymousSession(), ErrIdentityNotFound
	}

	sess, err := m.store.Get(c)
	if err != nil {
		return AnonymousSession(), WrapStoreError(err, "session get")
	}

	if err := sess.Regenerate(); err != nil {
		return AnonymousSession(), WrapStoreError(err, "session regenerate")
	}

	state := NewAuthenticatedSession(identity, m.now(), m.ttl)

	sess.Set(sessionKeyAuthenticated, true)
	sess.Set(sessionKeyUsername, state.Username)
	sess.Set(sessionKeyEmail, state.Email)
	sess.Set(sessionKeyRole, string(state.Role))
	sess.Set(sessionKeyExpiresAt, state.ExpiresAt.UnixNano())
	sess.SetExpiry(m.ttl)

	if err := sess.Save(); err != nil {
		return AnonymousSession(), WrapStoreError(err, "session save")
	}

	setSessionLocals(c, state)
	return state, nil
}

// Destroy removes the session and expires the cookie
func (m *SessionManager) Destroy(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return WrapStoreError(err, "session get")
	}

	if err := sess.Destroy(); err != nil {
		return WrapStoreError(err, "session destroy")
	}

	setSessionLocals(c, AnonymousSession())
	return nil
}

// RequireSession lets the request through only with an authenticated,
// unexpired session. Anything else is redirected to redirect.
func (m *SessionManager) RequireSession(redirect string) fiber.Handler {
	if redirect == "" {
		redirect = "/"
	}

	return func(c *fiber.Ctx) error {
		state, err := m.Read(c)
		if err != nil {
			return err
		}

		if !state.IsAuthenticated(m.now()) {
			m.logger.Debug("session gate rejected request", "path", c.Path())
			return c.Redirect(redirect, fiber.StatusFound)
		}

		return c.Next()
	}
}

func stateFromSession(sess *session.Session) SessionState {
	authenticated, _ := sess.Get(sessionKeyAuthenticated).(bool)
	username, _ := sess.Get(sessionKeyUsername).(string)
	email, _ := sess.Get(sessionKeyEmail).(string)
	role, _ := sess.Get(sessionKeyRole).(string)
	expiresAt, _ := sess.Get(sessionKeyExpiresAt).(int64)

	state := SessionState{
		Authenticated: authenticated,
		Username:      username,
		Email:         email,
		Role:          UserRole(role),
	}

	if expiresAt > 0 {
		state.ExpiresAt = time.Unix(0, expiresAt).UTC()
	}

	return state
}
