// AngelaMos | 2026
// denylist.go

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist records access tokens revoked before their natural expiry.
type Denylist interface {
	Deny(ctx context.Context, tokenID string, until time.Time) error
	IsDenied(ctx context.Context, tokenID string) (bool, error)
}

type redisDenylist struct {
	client *redis.Client
}

func NewRedisDenylist(client *redis.Client) Denylist {
	return &redisDenylist{client: client}
}

func denylistKey(tokenID string) string {
	return "blacklist:" + tokenID
}

func (d *redisDenylist) Deny(
	ctx context.Context,
	tokenID string,
	until time.Time,
) error {
	ttl := time.Until(until)
	if tokenID == "" || ttl <= 0 {
		return nil
	}

	if err := d.client.Set(ctx, denylistKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (d *redisDenylist) IsDenied(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}

	exists, err := d.client.Exists(ctx, denylistKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}
