package dashboard

import (
	"context"
	"time"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/store"
)

// Store defines the storage operations needed by the QueryHandler.
// shell/cache.CachedDashboard satisfies it as well as the stores.
type Store interface {
	LoadDashboardStats(ctx context.Context, now time.Time) (core.DashboardStats, error)
}

// QueryHandler loads the dashboard statistics.
type QueryHandler struct {
	store Store
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(store Store) QueryHandler {
	return QueryHandler{store: store}
}

// Handle runs the aggregation on the replica when one is configured.
func (h QueryHandler) Handle(ctx context.Context, query Query) (core.DashboardStats, error) {
	return h.store.LoadDashboardStats(store.WithEventualConsistency(ctx), query.Now)
}
