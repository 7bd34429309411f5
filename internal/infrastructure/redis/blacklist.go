package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const blacklistPrefix = "jwt:blacklist:"

// TokenBlacklist tokens cerrados con logout. Se guarda el hash, nunca el token, y la
// clave vence junto con el token.
type TokenBlacklist struct {
	client goredis.Cmdable
}

// NewTokenBlacklist lista negra sobre client.
func NewTokenBlacklist(client goredis.Cmdable) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

// Revoke marca el token como revocado durante ttl.
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, key(token), "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist: set: %w", err)
	}
	return nil
}

// IsRevoked true si el token pasó por logout y todavía no venció.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist: exists: %w", err)
	}
	return n > 0, nil
}

func key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return blacklistPrefix + hex.EncodeToString(sum[:])
}
