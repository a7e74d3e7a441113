package updatebook

import (
	"context"

	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/shell"
	"github.com/Jehd061990/liber/store"
)

// Store defines the storage operations needed by the CommandHandler.
type Store interface {
	FindBook(ctx context.Context, bookID uuid.UUID) (core.Book, error)
	CommitBookUpdate(ctx context.Context, book core.Book, expectedAvailableCopies int) error
}

// CommandHandler orchestrates Load -> ReviseBook -> CommitBookUpdate with retry.
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

// Handle revises the book. A borrow or return that lands in between is retried against the new copy count.
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

	book, err := h.store.FindBook(ctx, command.BookID)
	if err != nil {
		return false, err
	}

	revised, err := core.ReviseBook(
		book,
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

	if book.SameCatalogEntry(revised) {
		return true, nil
	}

	return false, h.store.CommitBookUpdate(ctx, revised, book.AvailableCopies)
}
