// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/mystery-message/internal/core"
	"github.com/carterperez-dev/mystery-message/internal/user"
)

type Handler struct {
	dbStats      func() sql.DBStats
	redisStats   func() *redis.PoolStats
	redisPing    func(ctx context.Context) error
	dbPing       func(ctx context.Context) error
	userStats    func(ctx context.Context) (*user.Stats, error)
	messageCount func(ctx context.Context) (int64, error)
}

type HandlerConfig struct {
	DBStats      func() sql.DBStats
	RedisStats   func() *redis.PoolStats
	RedisPing    func(ctx context.Context) error
	DBPing       func(ctx context.Context) error
	UserStats    func(ctx context.Context) (*user.Stats, error)
	MessageCount func(ctx context.Context) (int64, error)
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		dbStats:      cfg.DBStats,
		redisStats:   cfg.RedisStats,
		redisPing:    cfg.RedisPing,
		dbPing:       cfg.DBPing,
		userStats:    cfg.UserStats,
		messageCount: cfg.MessageCount,
	}
}

// RegisterRoutes mounts the operator endpoints behind guard, which is
// expected to be middleware.RequireStaticToken.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	guard func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(guard)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/app", h.GetAppStats)
		r.Get("/stats/db", h.GetDatabaseStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var dbHealthy, redisHealthy bool
	var g errgroup.Group
	g.Go(func() error {
		dbHealthy = ping(ctx, h.dbPing)
		return nil
	})
	g.Go(func() error {
		redisHealthy = ping(ctx, h.redisPing)
		return nil
	})
	//nolint:errcheck // pings report through the flags
	_ = g.Wait()

	app, err := h.appStats(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, SystemStatsResponse{
		App: app,
		Database: DatabaseStatus{
			Healthy: dbHealthy,
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: redisHealthy,
			Stats:   h.getRedisStats(),
		},
		Runtime: readRuntimeStats(),
	})
}

func (h *Handler) GetAppStats(w http.ResponseWriter, r *http.Request) {
	app, err := h.appStats(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, app)
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.getDBStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.getRedisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, readRuntimeStats())
}

func (h *Handler) appStats(ctx context.Context) (AppStats, error) {
	var app AppStats

	if h.userStats != nil {
		stats, err := h.userStats(ctx)
		if err != nil {
			return app, err
		}
		app.Users = stats.Total
		app.VerifiedUsers = stats.Verified
		app.AcceptingUsers = stats.Accepting
	}

	if h.messageCount != nil {
		n, err := h.messageCount(ctx)
		if err != nil {
			return app, err
		}
		app.Messages = n
	}

	return app, nil
}

func ping(ctx context.Context, fn func(ctx context.Context) error) bool {
	if fn == nil {
		return false
	}
	return fn(ctx) == nil
}

func readRuntimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	}
}
