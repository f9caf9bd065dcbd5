package portal

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var _ CredentialStore = &UsersRepository{}

// UsersRepository is the bun backed CredentialStore
type UsersRepository struct {
	db bun.IDB
}

// NewUsersRepository returns a repository over db
func NewUsersRepository(db bun.IDB) *UsersRepository {
	return &UsersRepository{db: db}
}

// FindByEmail returns every record with email
func (r *UsersRepository) FindByEmail(ctx context.Context, email string) ([]*User, error) {
	users := []*User{}
	err := r.db.NewSelect().
		Model(&users).
		Where("?TableAlias.email = ?", email).
		Scan(ctx)
	if err != nil {
		return nil, WrapStoreError(err, "users find by email")
	}
	return users, nil
}

// Exists reports whether a record with email is stored
func (r *UsersRepository) Exists(ctx context.Context, email string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", email).
		Exists(ctx)
	if err != nil {
		return false, WrapStoreError(err, "users exists")
	}
	return exists, nil
}

// Insert stores user. Constraint violations, such as a duplicated email,
// are returned as reported by the driver.
func (r *UsersRepository) Insert(ctx context.Context, user *User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := r.db.NewInsert().Model(user).Exec(ctx); err != nil {
		return WrapStoreError(err, "users insert")
	}
	return nil
}

// SetRole updates every record named username and returns the role the
// oldest of them held before the update.
func (r *UsersRepository) SetRole(ctx context.Context, username string, role UserRole) (UserRole, error) {
	var previous string
	err := r.db.NewSelect().
		Model((*User)(nil)).
		Column("user_role").
		Where("?TableAlias.username = ?", username).
		Order("created_at ASC").
		Limit(1).
		Scan(ctx, &previous)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrIdentityNotFound
		}
		return "", WrapStoreError(err, "users set role lookup")
	}

	res, err := r.db.NewUpdate().
		Model((*User)(nil)).
		Set("user_role = ?", role).
		Set("updated_at = ?", time.Now()).
		Where("username = ?", username).
		Exec(ctx)
	if err != nil {
		return "", WrapStoreError(err, "users set role")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return "", WrapStoreError(err, "users set role")
	}

	if n == 0 {
		return "", ErrIdentityNotFound
	}
	return UserRole(previous), nil
}

// List returns every record ordered by username
func (r *UsersRepository) List(ctx context.Context) ([]*User, error) {
	users := []*User{}
	err := r.db.NewSelect().
		Model(&users).
		Order("username ASC", "email ASC").
		Scan(ctx)
	if err != nil {
		return nil, WrapStoreError(err, "users list")
	}
	return users, nil
}
