package admission

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"postboard/internal/models"
	"postboard/internal/storage"
)

// Resolver authenticates bearer tokens against the member store.
type Resolver struct {
	store storage.Storage
}

// NewResolver creates a token resolver backed by the given storage.
func NewResolver(store storage.Storage) *Resolver {
	return &Resolver{store: store}
}

// ExtractToken pulls the bearer token out of the Authorization header.
// Returns ErrUnauthenticated when the header is missing or malformed.
func ExtractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrUnauthenticated
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrUnauthenticated
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrUnauthenticated
	}
	return token, nil
}

// Resolve maps a raw bearer token to its member. The token hash is compared
// in constant time. Unknown tokens and disabled members both resolve to
// ErrUnauthenticated so callers cannot distinguish the two.
func (tr *Resolver) Resolve(ctx context.Context, rawToken string) (*models.Member, error) {
	hash := models.HashToken(rawToken)

	member, err := tr.store.GetMemberByTokenHash(ctx, hash)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(hash), []byte(member.TokenHash)) != 1 {
		return nil, ErrUnauthenticated
	}

	if !member.Enabled {
		return nil, ErrUnauthenticated
	}

	return member, nil
}
