package portal_test

import (
	"context"
	"testing"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-portal"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := portal.NewUsersRepository(db)

	alice := portal.NewUser("alice", "a@x.com", "hash-a", portal.RoleUser)
	bob := portal.NewUser("bob", "b@x.com", "hash-b", portal.RoleUser)

	require.NoError(t, repo.Insert(ctx, bob))
	require.NoError(t, repo.Insert(ctx, alice))

	t.Run("exists", func(t *testing.T) {
		ok, err := repo.Exists(ctx, "a@x.com")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Exists(ctx, "none@x.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("find by email", func(t *testing.T) {
		users, err := repo.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, alice.ID, users[0].ID)
		assert.Equal(t, "alice", users[0].Username)
		assert.Equal(t, "hash-a", users[0].PasswordHash)
		assert.Equal(t, portal.RoleUser, users[0].Role)

		users, err = repo.FindByEmail(ctx, "none@x.com")
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("duplicate email is rejected by the store", func(t *testing.T) {
		dup := portal.NewUser("alice2", "a@x.com", "hash", portal.RoleUser)
		err := repo.Insert(ctx, dup)
		require.Error(t, err)
		assert.True(t, goerrors.IsInternal(err))
		assert.Equal(t, fiber.StatusInternalServerError, portal.HTTPStatus(err))

		users, err := repo.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("insert assigns missing id", func(t *testing.T) {
		carol := &portal.User{Username: "carol", Email: "c@x.com", PasswordHash: "hash-c", Role: portal.RoleUser}
		require.NoError(t, repo.Insert(ctx, carol))
		assert.NotEqual(t, uuid.Nil, carol.ID)
		assert.False(t, carol.CreatedAt.IsZero())
	})

	t.Run("list is ordered by username", func(t *testing.T) {
		users, err := repo.List(ctx)
		require.NoError(t, err)

		names := make([]string, 0, len(users))
		for _, u := range users {
			names = append(names, u.Username)
		}
		assert.Equal(t, []string{"alice", "bob", "carol"}, names)
	})

	t.Run("set role", func(t *testing.T) {
		previous, err := repo.SetRole(ctx, "bob", portal.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, portal.RoleUser, previous)

		users, err := repo.FindByEmail(ctx, "b@x.com")
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, portal.RoleAdmin, users[0].Role)

		previous, err = repo.SetRole(ctx, "bob", portal.RoleUser)
		require.NoError(t, err)
		assert.Equal(t, portal.RoleAdmin, previous)

		_, err = repo.SetRole(ctx, "ghost", portal.RoleAdmin)
		assert.ErrorIs(t, err, portal.ErrIdentityNotFound)
		assert.True(t, goerrors.IsNotFound(err))
	})
}
