// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/mystery-message/internal/config"
)

// Redis holds verification codes and the access token deny list. Nothing
// stored here is durable: losing it expires pending codes early and lets
// signed-out access tokens live until their natural expiry.
type Redis struct {
	Client *redis.Client
}

func NewRedis(
	ctx context.Context,
	cfg config.RedisConfig,
	logger *slog.Logger,
) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.PoolTimeout = 30 * time.Second
	opts.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opts)
	if cfg.SlowThreshold > 0 {
		client.AddHook(NewSlowCommandHook(cfg.SlowThreshold, logger))
	}

	r := &Redis{Client: client}
	if err := r.Ping(ctx); err != nil {
		//nolint:errcheck // already failing
		_ = client.Close()
		return nil, err
	}

	return r, nil
}

func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.Client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}

// SlowCommandHook logs commands and pipelines that take longer than the
// threshold and marks them on the active span.
type SlowCommandHook struct {
	threshold time.Duration
	logger    *slog.Logger
}

func NewSlowCommandHook(threshold time.Duration, logger *slog.Logger) *SlowCommandHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlowCommandHook{threshold: threshold, logger: logger}
}

func (h *SlowCommandHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *SlowCommandHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observe(ctx, cmd.Name(), 1, time.Since(start))
		return err
	}
}

func (h *SlowCommandHook) ProcessPipelineHook(
	next redis.ProcessPipelineHook,
) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)

		name := "pipeline"
		if len(cmds) > 0 {
			name = "pipeline:" + cmds[0].Name()
		}
		h.observe(ctx, name, len(cmds), time.Since(start))
		return err
	}
}

func (h *SlowCommandHook) observe(
	ctx context.Context,
	name string,
	count int,
	elapsed time.Duration,
) {
	if elapsed < h.threshold {
		return
	}

	AddSpanEvent(ctx, "redis.slow_command",
		attribute.String("command", name),
		attribute.Int("commands", count),
		attribute.Int64("duration_ms", elapsed.Milliseconds()),
	)
	h.logger.WarnContext(ctx, "slow redis command",
		"command", name,
		"commands", count,
		"duration", elapsed,
	)
}
