package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(token, "pb_"))
	assert.Len(t, token, 47) // "pb_" + 44 base64url chars
	assert.NotContains(t, token[3:], "=")
	assert.NotContains(t, token[3:], "+")
	assert.NotContains(t, token[3:], "/")

	other, err := GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestHashToken(t *testing.T) {
	hash := HashToken("pb_example")

	assert.Len(t, hash, 64)
	assert.Equal(t, hash, HashToken("pb_example"))
	assert.NotEqual(t, hash, HashToken("pb_other"))
}

func TestNewMember(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)

	member := NewMember(NewMemberID(), "alice", token, true)

	assert.Equal(t, "alice", member.Name)
	assert.Equal(t, HashToken(token), member.TokenHash)
	assert.Equal(t, token[:8], member.Prefix)
	assert.True(t, member.IsAdmin)
	assert.True(t, member.Enabled)
	assert.False(t, member.CreatedAt.IsZero())
	assert.Equal(t, member.CreatedAt, member.UpdatedAt)

	// The raw token must never appear on the stored record.
	assert.NotEqual(t, token, member.TokenHash)
	assert.NotContains(t, member.TokenHash, token)
}

func TestNewMemberShortToken(t *testing.T) {
	member := NewMember(NewMemberID(), "bob", "tiny", false)
	assert.Equal(t, "tiny", member.Prefix)
}

func TestNewMemberID(t *testing.T) {
	id := NewMemberID()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, NewMemberID())
}
