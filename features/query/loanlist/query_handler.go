package loanlist

import (
	"context"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/store"
)

// Store defines the storage operations needed by the QueryHandler.
type Store interface {
	ListLoans(ctx context.Context, filter store.LoanFilter) ([]core.Loan, error)
}

// QueryHandler loads loans and projects them with ProjectLoans.
type QueryHandler struct {
	store Store
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(store Store) QueryHandler {
	return QueryHandler{store: store}
}

// Handle runs the query on the replica when one is configured.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Loans, error) {
	ctx = store.WithEventualConsistency(ctx)

	loans, err := h.store.ListLoans(ctx, storeFilterFor(query))
	if err != nil {
		return Loans{}, err
	}

	return ProjectLoans(loans, query), nil
}

// storeFilterFor narrows the stored status: Active and Overdue loans are both stored as Active.
func storeFilterFor(query Query) store.LoanFilter {
	filter := store.LoanFilter{ReaderID: query.ReaderID}

	switch query.Status {
	case core.LoanActive, core.LoanOverdue:
		filter.Status = core.LoanActive
	case core.LoanReturned:
		filter.Status = core.LoanReturned
	}

	return filter
}
