// AngelaMos | 2026
// cleanup.go

package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/carterperez-dev/mystery-message/internal/metrics"
)

const (
	JobUnverifiedUsers = "unverified_users"
	JobRefreshTokens   = "refresh_tokens"

	refreshTokenGrace = 24 * time.Hour
)

// UserPruner is satisfied by user.Repository.
type UserPruner interface {
	DeleteStaleUnverified(ctx context.Context, idleSince time.Time) (int64, error)
}

// TokenPruner is satisfied by auth.Repository.
type TokenPruner interface {
	DeleteExpired(ctx context.Context, expiredBefore time.Time) (int64, error)
}

type CleanupConfig struct {
	Schedule      string
	UnverifiedTTL time.Duration
	RunTimeout    time.Duration
}

// Cleanup periodically removes sign-ups that were never verified, freeing
// their usernames, and refresh tokens that expired more than a day ago.
type Cleanup struct {
	users   UserPruner
	tokens  TokenPruner
	cfg     CleanupConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
	cron    *cron.Cron
}

func NewCleanup(
	users UserPruner,
	tokens TokenPruner,
	cfg CleanupConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Cleanup {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 5 * time.Minute
	}

	return &Cleanup{
		users:   users,
		tokens:  tokens,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Start schedules the job. It returns an error for an unparsable schedule.
func (c *Cleanup) Start() error {
	cronLogger := slogCronLogger{logger: c.logger}

	c.cron = cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		),
	)

	if _, err := c.cron.AddFunc(c.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.RunTimeout)
		defer cancel()
		c.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("schedule cleanup %q: %w", c.cfg.Schedule, err)
	}

	c.cron.Start()
	c.logger.Info("cleanup scheduled", "schedule", c.cfg.Schedule)
	return nil
}

// Stop prevents new runs and waits for a running one to finish or for ctx
// to expire.
func (c *Cleanup) Stop(ctx context.Context) {
	if c.cron == nil {
		return
	}

	done := c.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		c.logger.Warn("cleanup still running at shutdown")
	}
}

// RunOnce executes both sweeps. Failures are logged and do not stop the
// other sweep.
func (c *Cleanup) RunOnce(ctx context.Context) {
	now := c.now()

	c.sweep(ctx, JobUnverifiedUsers, func() (int64, error) {
		return c.users.DeleteStaleUnverified(ctx, now.Add(-c.cfg.UnverifiedTTL))
	})

	c.sweep(ctx, JobRefreshTokens, func() (int64, error) {
		return c.tokens.DeleteExpired(ctx, now.Add(-refreshTokenGrace))
	})
}

func (c *Cleanup) sweep(ctx context.Context, job string, fn func() (int64, error)) {
	start := time.Now()

	rows, err := fn()
	if err != nil {
		c.logger.ErrorContext(ctx, "cleanup failed",
			"job", job,
			"error", err,
		)
		return
	}

	c.metrics.RecordCleanup(job, rows)
	c.logger.InfoContext(ctx, "cleanup finished",
		"job", job,
		"deleted", rows,
		"duration", time.Since(start),
	)
}

type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
