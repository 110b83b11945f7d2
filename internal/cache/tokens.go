package cache

import (
	"context"
	"time"
)

const revokedPrefix = "revoked:"

// RevokeToken records a JWT ID as revoked until the token would have
// expired anyway. Logout relies on this; without Redis revocation is a
// no-op and tokens simply age out.
func RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if Client == nil || jti == "" {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	return Client.Set(ctx, revokedPrefix+jti, "1", ttl).Err()
}

// IsTokenRevoked reports whether a JWT ID has been revoked. Fails open when
// Redis is unavailable.
func IsTokenRevoked(ctx context.Context, jti string) bool {
	if Client == nil || jti == "" {
		return false
	}
	n, err := Client.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false
	}
	return n > 0
}
