package addbook

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/shell"
	"github.com/Jehd061990/liber/store"
)

// Store defines the storage operations needed by the CommandHandler.
type Store interface {
	FindBook(ctx context.Context, bookID uuid.UUID) (core.Book, error)
	InsertBook(ctx context.Context, book core.Book) error
}

// CommandHandler adds catalog entries: BuildBook -> Find -> Insert.
type CommandHandler struct {
	store        Store
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store Store, opts ...Option) CommandHandler {
	handler := CommandHandler{store: store}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle adds the book. A book id that is already in the catalog is an idempotent success.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	var isIdempotent bool

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		idempotent, execErr := h.executeCommand(retryCtx, command)
		isIdempotent = idempotent

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(retryMetrics), err
	}

	if isIdempotent {
		return shell.NewIdempotentResult(retryMetrics), nil
	}

	return shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (bool, error) {
	ctx = store.WithStrongConsistency(ctx)

	book, err := core.BuildBook(
		command.BookID,
		command.ISBN,
		command.Title,
		command.Author,
		command.Publisher,
		command.Tags,
		command.ShelfLocation,
		command.TotalCopies,
	)
	if err != nil {
		return false, err
	}

	existing, err := h.store.FindBook(ctx, command.BookID)
	switch {
	case err == nil:
		if existing.SameCatalogEntry(book) {
			return true, nil
		}

		return false, &core.InvalidRecordError{Record: "book", Field: "id", Reason: "is already in use"}
	case !errors.Is(err, store.ErrNotFound):
		return false, err
	}

	return false, h.store.InsertBook(ctx, book)
}
