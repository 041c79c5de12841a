package auth

import (
	"context"
	"time"
)

// TokenBlacklist stores revoked token IDs until their original expiry.
type TokenBlacklist interface {
	// Add blacklists a jti, expiring the entry at the token's original
	// expiry time.
	Add(ctx context.Context, jti string, originalTokenExpTime time.Time) error
	// IsBlacklisted reports whether a jti has been revoked.
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}
