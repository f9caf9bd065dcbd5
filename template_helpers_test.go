package portal_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateHelpers(t *testing.T) {
	helpers := portal.TemplateHelpers()

	isAuthenticated, ok := helpers["is_authenticated"].(func(any) bool)
	require.True(t, ok)
	hasRole, ok := helpers["has_role"].(func(any, string) bool)
	require.True(t, ok)

	roles, ok := helpers["roles"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "admin", roles["admin"])
	assert.Equal(t, "user", roles["user"])
	assert.Equal(t, []string{"user", "admin"}, helpers["role_names"])

	now := time.Now()
	admin := portal.NewAuthenticatedSession(staticIdentity{
		username: "gursidh",
		email:    "g@x.com",
		role:     portal.RoleAdmin,
	}, now, time.Hour)

	t.Run("session view data", func(t *testing.T) {
		data := admin.ViewData(now)
		assert.True(t, isAuthenticated(data))
		assert.True(t, hasRole(data, "admin"))
		assert.False(t, hasRole(data, "user"))
		assert.Equal(t, "gursidh", data["username"])
	})

	t.Run("expired session renders as anonymous", func(t *testing.T) {
		data := admin.ViewData(now.Add(time.Hour))
		assert.False(t, isAuthenticated(data))
		assert.False(t, hasRole(data, "admin"))
		assert.Equal(t, "", data["username"])
		assert.Equal(t, "", data["email"])

		assert.True(t, isAuthenticated(admin))
		expired := admin
		expired.ExpiresAt = now.Add(-time.Second)
		assert.False(t, isAuthenticated(expired))
		assert.False(t, isAuthenticated(&expired))
	})

	t.Run("anonymous", func(t *testing.T) {
		data := portal.AnonymousSession().ViewData(now)
		assert.False(t, isAuthenticated(data))
		assert.False(t, hasRole(data, "admin"))
		assert.False(t, isAuthenticated(nil))
	})

	t.Run("user rows", func(t *testing.T) {
		row := portal.ViewContext{"username": "alice", "role": "user"}
		assert.True(t, hasRole(row, "user"))
		assert.False(t, hasRole(row, "admin"))
		assert.True(t, hasRole(&portal.User{Role: portal.RoleAdmin}, "admin"))
	})

	t.Run("unknown role never matches", func(t *testing.T) {
		assert.False(t, hasRole(portal.ViewContext{"role": "owner"}, "owner"))
		assert.False(t, hasRole(admin, "root"))
	})
}
