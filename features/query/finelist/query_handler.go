package finelist

import (
	"context"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/store"
)

// Store defines the storage operations needed by the QueryHandler.
type Store interface {
	ListFines(ctx context.Context, filter store.FineFilter) ([]core.Fine, error)
}

// QueryHandler lists fines.
type QueryHandler struct {
	store Store
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(store Store) QueryHandler {
	return QueryHandler{store: store}
}

// Handle runs the query on the replica when one is configured.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Fines, error) {
	ctx = store.WithEventualConsistency(ctx)

	fines, err := h.store.ListFines(ctx, store.FineFilter{ReaderID: query.ReaderID, Status: query.Status})
	if err != nil {
		return Fines{}, err
	}

	return Fines{
		Fines:            fines,
		Count:            len(fines),
		TotalOutstanding: core.TotalOutstanding(fines),
	}, nil
}
