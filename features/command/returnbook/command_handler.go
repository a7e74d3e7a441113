package returnbook

import (
	"context"

	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/shell"
	"github.com/Jehd061990/liber/store"
)

// Store defines the storage operations needed by the CommandHandler.
type Store interface {
	FindLoan(ctx context.Context, loanID uuid.UUID) (core.Loan, error)
	FindBook(ctx context.Context, bookID uuid.UUID) (core.Book, error)
	CommitReturn(
		ctx context.Context,
		loan core.Loan,
		book core.Book,
		expectedAvailableCopies int,
		fine *core.Fine,
	) error
}

// CommandHandler orchestrates Load -> RequestReturn -> CommitReturn with retry.
type CommandHandler struct {
	store        Store
	schedule     core.FineSchedule
	newID        func() (uuid.UUID, error)
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

// WithFineSchedule replaces the default schedule of 1.00 per day without a cap.
func WithFineSchedule(schedule core.FineSchedule) Option {
	return func(h *CommandHandler) {
		h.schedule = schedule
	}
}

// WithIDGenerator sets the generator for overdue fine ids.
func WithIDGenerator(newID func() (uuid.UUID, error)) Option {
	return func(h *CommandHandler) {
		h.newID = newID
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store Store, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store:    store,
		schedule: core.DefaultFineSchedule(),
		newID:    uuid.NewV7,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the return with retry on concurrency conflicts.
// Returning a loan that is already Returned fails with *core.LoanNotActiveError.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	// one id for all attempts, so a retried return cannot leave two fines behind
	fineID, err := h.newID()
	if err != nil {
		return shell.NewErrorResult(shell.RetryMetrics{}), err
	}

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		return h.executeCommand(retryCtx, command, fineID)
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(retryMetrics), err
	}

	return shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command, fineID uuid.UUID) error {
	ctx = store.WithStrongConsistency(ctx)

	loan, err := h.store.FindLoan(ctx, command.LoanID)
	if err != nil {
		return err
	}

	outcome, err := core.RequestReturn(loan, fineID, command.OccurredAt, h.schedule)
	if err != nil {
		return err
	}

	book, err := h.store.FindBook(ctx, loan.BookID)
	if err != nil {
		return err
	}

	returnedBook, err := book.WithCopiesDelta(outcome.CopiesDelta)
	if err != nil {
		return err
	}

	return h.store.CommitReturn(ctx, outcome.Loan, returnedBook, book.AvailableCopies, outcome.Fine)
}
