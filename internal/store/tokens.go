package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/lostfound/internal/kv"
)

const revokedPrefix = "revoked/"

// RevokeToken adds a token's JTI to the revocation list until it expires.
func RevokeToken(ctx context.Context, s kv.Store, jti string, expiresAt time.Time) error {
	value := []byte(expiresAt.UTC().Format(time.RFC3339))
	if err := kv.PutWithExpiry(ctx, s, revokedPrefix+jti, value, expiresAt); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// IsTokenRevoked checks if a token's JTI has been revoked.
func IsTokenRevoked(ctx context.Context, s kv.Store, jti string) (bool, error) {
	value, err := s.Get(ctx, revokedPrefix+jti)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	// Backends without native expiry keep the entry; the token itself has
	// expired by then, so the entry no longer matters.
	if exp, err := time.Parse(time.RFC3339, string(value)); err == nil && time.Now().After(exp) {
		return false, nil
	}
	return true, nil
}
