package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/erazemk/lostfound/internal/kv"
)

const jwtSecretKey = "settings/jwt_secret"

// GetJWTSecret retrieves the JWT secret from the store.
// If no secret exists, it generates one, stores it, and returns it.
func GetJWTSecret(ctx context.Context, s kv.Store) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	secret, err := s.PutIfAbsent(ctx, jwtSecretKey, []byte(candidate))
	if err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}
	return string(secret), nil
}
