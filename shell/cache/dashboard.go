package cache

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/shell"
)

const (
	dashboardKey = "liber:dashboard:stats"

	logMsgCacheReadFailed  = "dashboard cache read failed"
	logMsgCacheWriteFailed = "dashboard cache write failed"
	logMsgCacheDropFailed  = "dashboard cache invalidation failed"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DashboardLoader aggregates the dashboard statistics.
type DashboardLoader interface {
	LoadDashboardStats(ctx context.Context, now time.Time) (core.DashboardStats, error)
}

// CachedDashboard serves dashboard statistics from the cache while they are younger than the TTL.
// Within the TTL the numbers are those of the first request, including its overdue cut-off.
type CachedDashboard struct {
	loader DashboardLoader
	cache  Cache
	ttl    time.Duration
	logger shell.ContextualLogger
}

// DashboardOption configures a CachedDashboard.
type DashboardOption func(*CachedDashboard)

// WithContextualLogger logs cache failures, which are otherwise swallowed.
func WithContextualLogger(logger shell.ContextualLogger) DashboardOption {
	return func(d *CachedDashboard) {
		d.logger = logger
	}
}

// NewCachedDashboard wraps loader with cache.
func NewCachedDashboard(loader DashboardLoader, cache Cache, ttl time.Duration, opts ...DashboardOption) *CachedDashboard {
	dashboard := &CachedDashboard{loader: loader, cache: cache, ttl: ttl}

	for _, opt := range opts {
		opt(dashboard)
	}

	return dashboard
}

// LoadDashboardStats returns cached statistics or loads and caches fresh ones.
func (d *CachedDashboard) LoadDashboardStats(ctx context.Context, now time.Time) (core.DashboardStats, error) {
	if stats, ok := d.fromCache(ctx); ok {
		return stats, nil
	}

	stats, err := d.loader.LoadDashboardStats(ctx, now)
	if err != nil {
		return core.DashboardStats{}, err
	}

	encoded, err := json.Marshal(stats)
	if err != nil {
		d.logFailure(ctx, logMsgCacheWriteFailed, err)
		return stats, nil
	}

	if err = d.cache.Set(ctx, dashboardKey, encoded, d.ttl); err != nil {
		d.logFailure(ctx, logMsgCacheWriteFailed, err)
	}

	return stats, nil
}

// Invalidate drops the cached statistics so the next request loads fresh ones.
// A failure is logged; the entry then expires with its TTL.
func (d *CachedDashboard) Invalidate(ctx context.Context) {
	if err := d.cache.Delete(ctx, dashboardKey); err != nil {
		d.logFailure(ctx, logMsgCacheDropFailed, err)
	}
}

func (d *CachedDashboard) fromCache(ctx context.Context) (core.DashboardStats, bool) {
	cached, err := d.cache.Get(ctx, dashboardKey)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			d.logFailure(ctx, logMsgCacheReadFailed, err)
		}

		return core.DashboardStats{}, false
	}

	var stats core.DashboardStats
	if err = json.Unmarshal(cached, &stats); err != nil {
		d.logFailure(ctx, logMsgCacheReadFailed, err)
		return core.DashboardStats{}, false
	}

	return stats, true
}

func (d *CachedDashboard) logFailure(ctx context.Context, msg string, err error) {
	if d.logger == nil {
		return
	}

	d.logger.WarnContext(ctx, msg, shell.LogAttrError, err.Error())
}
