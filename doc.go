// Package portal provides the authentication core of a small members portal:
// signup and login over a persistent credential store, server-side sessions,
// and route gates for authenticated and admin-only pages.
//
// Users:
//   - Users are persisted through a CredentialStore. UsersRepository is the
//     Bun implementation; repository.Open connects to SQLite or PostgreSQL.
//   - Exactly two roles exist, RoleUser and RoleAdmin. A single configured
//     username is granted RoleAdmin at signup; everyone else starts as
//     RoleUser. Roles change through ChangeRole (admin pages) or AssignRole
//     (operator CLI).
//
// Sessions:
//   - SessionManager wraps fiber's session middleware. A SessionState is
//     either fully authenticated or anonymous, carries a snapshot of the
//     user's identity and expires a fixed TTL after login.
//   - The loader attaches the SessionState to every request context; use
//     SessionFromContext in handlers instead of reading the store directly.
//
// Activity sinks:
//   - ActivitySink receives signup, login, logout, role change and
//     injection events. Sink errors are logged and never fail the request.
//     The activitymap package writes them as normalized JSON lines.
package portal
