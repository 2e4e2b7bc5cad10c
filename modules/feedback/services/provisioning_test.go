package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordGeneratorIsDeterministic(t *testing.T) {
	gen := NewPasswordGenerator("salt")
	first := gen.Generate("alice@acme.test")
	require.Equal(t, first, gen.Generate("alice@acme.test"))
	require.Equal(t, first, gen.Generate("  ALICE@acme.test "))
	require.Len(t, first, 12)
	require.NotEqual(t, first, gen.Generate("bob@acme.test"))
	require.NotEqual(t, first, NewPasswordGenerator("pepper").Generate("alice@acme.test"))
}

func TestHashDefaultPassword(t *testing.T) {
	hash, err := hashDefaultPassword("s3cret")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}
