package portal_test

import (
	"testing"

	"github.com/goliatone/go-portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_Hash(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Short password",
			password: "pw1",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true,
		},
	}

	hasher := portal.NewBcryptHasher(bcrypt.MinCost)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hasher.Hash(tt.password)

			if tt.wantErr {
				assert.ErrorIs(t, err, portal.ErrNoEmptyString)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)

			assert.NoError(t, hasher.Compare(tt.password, hash))
		})
	}
}

func TestBcryptHasher_Salted(t *testing.T) {
	hasher := portal.NewBcryptHasher(bcrypt.MinCost)

	first, err := hasher.Hash("pw2")
	require.NoError(t, err)

	second, err := hasher.Hash("pw2")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NoError(t, hasher.Compare("pw2", first))
	assert.NoError(t, hasher.Compare("pw2", second))
}

func TestComparePasswordAndHash(t *testing.T) {
	hasher := portal.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("correct")
	require.NoError(t, err)

	err = portal.ComparePasswordAndHash("wrong", hash)
	assert.ErrorIs(t, err, portal.ErrMismatchedHashAndPassword)

	err = portal.ComparePasswordAndHash("correct", "not-a-bcrypt-hash")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, portal.ErrMismatchedHashAndPassword)
}

func TestNewBcryptHasher_Cost(t *testing.T) {
	assert.Equal(t, bcrypt.MinCost, portal.NewBcryptHasher(bcrypt.MinCost).Cost)
	assert.Equal(t, 12, portal.DefaultHashCost)

	// out of range falls back to the package cost
	h := portal.NewBcryptHasher(bcrypt.MaxCost + 1)
	assert.GreaterOrEqual(t, h.Cost, bcrypt.MinCost)
	assert.LessOrEqual(t, h.Cost, bcrypt.MaxCost)
}
