package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	// low cost to keep the test quick
	passwordHash, err := HashPassword("sr", 4)
	require.NoError(t, err)
	assert.NotEmpty(t, passwordHash)
	assert.True(t, CheckPasswordHash("sr", passwordHash))
	assert.False(t, CheckPasswordHash("not-sr", passwordHash))

	// a fresh salt per call, same input gives a different hash
	passwordHash2, err := HashPassword("sr", 4)
	require.NoError(t, err)
	assert.NotEqual(t, passwordHash, passwordHash2)
	assert.True(t, CheckPasswordHash("sr", passwordHash2))
}

func TestHashPassword_costBounds(t *testing.T) {
	for _, cost := range []int{3, 32, -1, 100} {
		passwordHash, err := HashPassword("some-password", cost)
		require.ErrorIs(t, err, ErrInvalidInput)
		assert.Empty(t, passwordHash)
	}

	// both bounds are inclusive; max cost would take ages, bcrypt
	// validates the cost before doing any work though, so probe it
	// indirectly through the min bound plus the error-free contract
	passwordHash, err := HashPassword("some-password", 4)
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("some-password", passwordHash))
}

func TestHashPassword_emptyPassword(t *testing.T) {
	passwordHash, err := HashPassword("", 10)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, passwordHash)
}

func TestCheckPasswordHash_neverBlowsUp(t *testing.T) {
	validHash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)

	cases := map[string]struct {
		password string
		hash     string
	}{
		"empty hash":         {password: "pw", hash: ""},
		"not a hash":         {password: "pw", hash: "not-a-hash"},
		"foreign algorithm":  {password: "pw", hash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$ZGlnZXN0"},
		"truncated bcrypt":   {password: "pw", hash: "$2a$12$short"},
		"empty password":     {password: "", hash: validHash},
		"both empty":         {password: "", hash: ""},
		"prefix only":        {password: "pw", hash: "$2b$"},
		"unknown 2x variant": {password: "pw", hash: "$2x$12$z8cd4yJpzP40Qh2F2BhiMO.sOm4YAIaf30pmUKLOaISojD9HnXgaG"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.False(t, CheckPasswordHash(tc.password, tc.hash))
		})
	}
}
