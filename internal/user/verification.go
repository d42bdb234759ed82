// AngelaMos | 2026
// verification.go

package user

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	codePurpose   = "signup"
	fieldCode     = "code"
	fieldAttempts = "attempts"
)

// CodeStore keeps outstanding sign-up verification codes keyed by username.
type CodeStore interface {
	Save(ctx context.Context, username, code string) error
	Load(ctx context.Context, username string) (*PendingCode, error)
	IncrementAttempts(ctx context.Context, username string) (int, error)
	Delete(ctx context.Context, username string) error
}

type redisCodeStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCodeStore(
	client *redis.Client,
	prefix string,
	ttl time.Duration,
) CodeStore {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "verify"
	}

	return &redisCodeStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *redisCodeStore) key(username string) string {
	return s.prefix + ":" + codePurpose + ":" + username
}

// Save replaces any previous code for the username and resets its attempts.
func (s *redisCodeStore) Save(ctx context.Context, username, code string) error {
	key := s.key(username)

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		fieldCode:     code,
		fieldAttempts: "0",
	})
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}

	return nil
}

func (s *redisCodeStore) Load(
	ctx context.Context,
	username string,
) (*PendingCode, error) {
	values, err := s.client.HGetAll(ctx, s.key(username)).Result()
	if err != nil {
		return nil, fmt.Errorf("load verification code: %w", err)
	}

	code := strings.TrimSpace(values[fieldCode])
	if code == "" {
		return nil, ErrCodeExpired
	}

	attempts := 0
	if raw := values[fieldAttempts]; raw != "" {
		if v, convErr := strconv.Atoi(raw); convErr == nil {
			attempts = v
		}
	}

	return &PendingCode{Code: code, Attempts: attempts}, nil
}

// incrementIfPresent bumps the attempt counter only while the code exists,
// so a guess racing expiry cannot recreate the hash without a TTL. The
// remaining TTL is left untouched.
var incrementIfPresent = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
return redis.call("HINCRBY", KEYS[1], ARGV[1], 1)
`)

func (s *redisCodeStore) IncrementAttempts(
	ctx context.Context,
	username string,
) (int, error) {
	count, err := incrementIfPresent.Run(
		ctx, s.client, []string{s.key(username)}, fieldAttempts,
	).Int()
	if err != nil {
		return 0, fmt.Errorf("increment verification attempts: %w", err)
	}

	if count < 0 {
		return 0, ErrCodeExpired
	}

	return count, nil
}

func (s *redisCodeStore) Delete(ctx context.Context, username string) error {
	if err := s.client.Del(ctx, s.key(username)).Err(); err != nil {
		return fmt.Errorf("delete verification code: %w", err)
	}
	return nil
}
