package booklist

import (
	"context"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/store"
)

// Store defines the storage operations needed by the QueryHandler.
type Store interface {
	ListBooks(ctx context.Context) ([]core.Book, error)
}

// Books is the query result.
type Books struct {
	Books          []core.Book
	Count          int
	AvailableCount int
}

// QueryHandler lists the catalog.
type QueryHandler struct {
	store Store
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(store Store) QueryHandler {
	return QueryHandler{store: store}
}

// Handle runs the query on the replica when one is configured.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Books, error) {
	books, err := h.store.ListBooks(store.WithEventualConsistency(ctx))
	if err != nil {
		return Books{}, err
	}

	result := Books{Books: make([]core.Book, 0, len(books))}
	for _, book := range books {
		if book.AvailableCopies > 0 {
			result.AvailableCount++
		} else if query.AvailableOnly {
			continue
		}

		result.Books = append(result.Books, book)
	}

	result.Count = len(result.Books)

	return result, nil
}
