package portal_test

import (
	"testing"

	"github.com/goliatone/go-portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRole_IsValid(t *testing.T) {
	assert.True(t, portal.RoleUser.IsValid())
	assert.True(t, portal.RoleAdmin.IsValid())
	assert.False(t, portal.UserRole("").IsValid())
	assert.False(t, portal.UserRole("owner").IsValid())
	assert.False(t, portal.UserRole("Admin").IsValid())
}

func TestUserRole_Allows(t *testing.T) {
	tests := []struct {
		role     portal.UserRole
		required portal.UserRole
		expected bool
	}{
		{portal.RoleAdmin, portal.RoleAdmin, true},
		{portal.RoleAdmin, portal.RoleUser, true},
		{portal.RoleUser, portal.RoleUser, true},
		{portal.RoleUser, portal.RoleAdmin, false},
		{portal.UserRole("guest"), portal.RoleUser, false},
		{portal.RoleAdmin, portal.UserRole("guest"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"->"+string(tt.required), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.Allows(tt.required))
		})
	}
}

func TestParseRole(t *testing.T) {
	role, err := portal.ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, portal.RoleAdmin, role)

	role, err = portal.ParseRole("user")
	require.NoError(t, err)
	assert.Equal(t, portal.RoleUser, role)

	_, err = portal.ParseRole("superuser")
	assert.ErrorIs(t, err, portal.ErrInvalidRole)

	_, err = portal.ParseRole("")
	assert.ErrorIs(t, err, portal.ErrInvalidRole)
}

func TestRoleForUsername(t *testing.T) {
	assert.Equal(t, portal.RoleAdmin, portal.RoleForUsername("gursidh", portal.DefaultAdminUsername))
	assert.Equal(t, portal.RoleUser, portal.RoleForUsername("alice", portal.DefaultAdminUsername))
	assert.Equal(t, portal.RoleUser, portal.RoleForUsername("Gursidh", portal.DefaultAdminUsername))
	assert.Equal(t, portal.RoleUser, portal.RoleForUsername("", ""))
}

func TestGetAllRoles(t *testing.T) {
	assert.Equal(t, []portal.UserRole{portal.RoleUser, portal.RoleAdmin}, portal.GetAllRoles())
}
