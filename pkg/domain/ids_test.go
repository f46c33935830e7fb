package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDs(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseCredentialID("not-a-uuid")
		require.Error(t, err)
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		userID, err := ParseUserID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(valid), userID)
		assert.Equal(t, valid.String(), userID.String())
		assert.False(t, userID.IsNil())
	})

	t.Run("nil UUID parses but reports IsNil", func(t *testing.T) {
		firmID, err := ParseFirmID(uuid.Nil.String())
		require.NoError(t, err)
		assert.True(t, firmID.IsNil())
	})
}

// TestTypeDistinction documents the compile-time invariant: the typed IDs
// are not interchangeable even though they share an underlying UUID.
func TestTypeDistinction(t *testing.T) {
	userID := UserID(uuid.New())
	credentialID := CredentialID(uuid.New())

	// var _ UserID = credentialID   // compile error
	// var _ CredentialID = userID   // compile error

	assert.NotEqual(t, uuid.UUID(userID), uuid.UUID(credentialID))
}
