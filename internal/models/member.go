package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Member represents an identity permitted to call the API. The raw bearer
// token is never persisted; only its SHA-256 hex hash and an 8-character
// display prefix are stored.
type Member struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TokenHash string    `json:"token_hash"`
	Prefix    string    `json:"prefix"`
	IsAdmin   bool      `json:"is_admin"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMember creates a new Member from a raw bearer token.
func NewMember(id, name, rawToken string, isAdmin bool) *Member {
	now := time.Now().UTC()
	prefix := rawToken
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return &Member{
		ID:        id,
		Name:      name,
		TokenHash: HashToken(rawToken),
		Prefix:    prefix,
		IsAdmin:   isAdmin,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GenerateToken produces a new random bearer token in the format pb_<44 url-safe base64 chars>.
func GenerateToken() (string, error) {
	b := make([]byte, 33) // 33 bytes → 44 base64url chars
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return "pb_" + base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken computes the SHA-256 hex digest of a raw bearer token.
func HashToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

// NewMemberID generates a new UUID v4 for use as a Member ID.
func NewMemberID() string {
	return uuid.New().String()
}
