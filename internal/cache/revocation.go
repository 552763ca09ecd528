package cache

import (
	"context"
	"time"
)

const revokedTokenPrefix = "auth:revoked:"

// Revocations records signed-out tokens until they would have expired anyway.
type Revocations struct {
	cache CacheService
}

func NewRevocations(cache CacheService) *Revocations {
	return &Revocations{cache: cache}
}

// Revoke marks tokenID as revoked until expiresAt. Tokens already expired are
// not stored.
func (r *Revocations) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.cache.Set(ctx, revokedTokenPrefix+tokenID, true, ttl)
}

func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return r.cache.Exists(ctx, revokedTokenPrefix+tokenID)
}
