package lendbook

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
	FindLoan(ctx context.Context, loanID uuid.UUID) (core.Loan, error)
	FindBook(ctx context.Context, bookID uuid.UUID) (core.Book, error)
	FindReader(ctx context.Context, readerID uuid.UUID) (core.Reader, error)
	CountActiveLoans(ctx context.Context, readerID uuid.UUID) (int, error)
	CommitBorrow(
		ctx context.Context,
		loan core.Loan,
		book core.Book,
		expectedAvailableCopies int,
		expectedActiveLoans int,
	) error
}

// CommandHandler orchestrates Load -> RequestBorrow -> CommitBorrow with retry.
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

// Handle executes the borrow with retry on concurrency conflicts.
// Policy rejections are returned as they are and never retried.
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

	existing, err := h.store.FindLoan(ctx, command.LoanID)
	switch {
	case err == nil:
		if existing.BookID == command.BookID && existing.ReaderID == command.ReaderID {
			return true, nil
		}

		return false, &core.InvalidRecordError{Record: "loan", Field: "id", Reason: "is already in use"}
	case !errors.Is(err, store.ErrNotFound):
		return false, err
	}

	book, err := h.store.FindBook(ctx, command.BookID)
	if err != nil {
		return false, err
	}

	var reader *core.Reader
	activeLoans := 0

	if command.ReaderID != uuid.Nil {
		found, findErr := h.store.FindReader(ctx, command.ReaderID)
		if findErr != nil {
			return false, findErr
		}

		reader = &found

		activeLoans, err = h.store.CountActiveLoans(ctx, command.ReaderID)
		if err != nil {
			return false, err
		}
	}

	outcome, err := core.RequestBorrow(command.LoanID, book, reader, activeLoans, command.OccurredAt)
	if err != nil {
		return false, err
	}

	lentBook, err := book.WithCopiesDelta(outcome.CopiesDelta)
	if err != nil {
		return false, err
	}

	return false, h.store.CommitBorrow(ctx, outcome.Loan, lentBook, book.AvailableCopies, activeLoans)
}
