package readerlist

import (
	"context"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/store"
)

// Store defines the storage operations needed by the QueryHandler.
type Store interface {
	ListReaders(ctx context.Context, filter store.ReaderFilter) ([]core.Reader, error)
}

// Readers is the query result. The counts are taken over the listed readers.
type Readers struct {
	Readers        []core.Reader
	Count          int
	ActiveCount    int
	SuspendedCount int
}

// QueryHandler lists readers.
type QueryHandler struct {
	store Store
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(store Store) QueryHandler {
	return QueryHandler{store: store}
}

// Handle runs the query on the replica when one is configured.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Readers, error) {
	readers, err := h.store.ListReaders(store.WithEventualConsistency(ctx), store.ReaderFilter{Status: query.Status})
	if err != nil {
		return Readers{}, err
	}

	result := Readers{Readers: readers, Count: len(readers)}
	for _, reader := range readers {
		switch reader.Status {
		case core.ReaderActive:
			result.ActiveCount++
		case core.ReaderSuspended:
			result.SuspendedCount++
		}
	}

	return result, nil
}
