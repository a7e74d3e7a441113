package readerprofile

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/store"
)

// Store defines the storage operations needed by the QueryHandler.
type Store interface {
	FindReader(ctx context.Context, readerID uuid.UUID) (core.Reader, error)
	CountActiveLoans(ctx context.Context, readerID uuid.UUID) (int, error)
	ListFines(ctx context.Context, filter store.FineFilter) ([]core.Fine, error)
}

// Profile is the query result. RemainingLoans is how many more books the reader may borrow right now.
type Profile struct {
	Reader           core.Reader
	ActiveLoans      int
	RemainingLoans   int
	OutstandingFines decimal.Decimal
}

// QueryHandler loads a reader profile.
type QueryHandler struct {
	store Store
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(store Store) QueryHandler {
	return QueryHandler{store: store}
}

// Handle returns store.ErrNotFound for an unknown reader.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Profile, error) {
	ctx = store.WithEventualConsistency(ctx)

	reader, err := h.store.FindReader(ctx, query.ReaderID)
	if err != nil {
		return Profile{}, err
	}

	activeLoans, err := h.store.CountActiveLoans(ctx, reader.ID)
	if err != nil {
		return Profile{}, err
	}

	unpaid, err := h.store.ListFines(ctx, store.FineFilter{ReaderID: reader.ID, Status: core.FineUnpaid})
	if err != nil {
		return Profile{}, err
	}

	return Profile{
		Reader:           reader,
		ActiveLoans:      activeLoans,
		RemainingLoans:   max(reader.MaxBooks-activeLoans, 0),
		OutstandingFines: core.TotalOutstanding(unpaid),
	}, nil
}
