package payfine

import (
	"context"

	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/shell"
	"github.com/Jehd061990/liber/store"
)

// Store defines the storage operations needed by the CommandHandler.
type Store interface {
	FindFine(ctx context.Context, fineID uuid.UUID) (core.Fine, error)
	CommitFinePayment(ctx context.Context, fine core.Fine) error
}

// CommandHandler orchestrates Load -> MarkPaid -> CommitFinePayment with retry.
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

// Handle marks the fine Paid. A fine that is already Paid fails with *core.FineAlreadyPaidError.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		return h.executeCommand(retryCtx, command)
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(retryMetrics), err
	}

	return shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) error {
	ctx = store.WithStrongConsistency(ctx)

	fine, err := h.store.FindFine(ctx, command.FineID)
	if err != nil {
		return err
	}

	paid, err := core.MarkPaid(fine, command.OccurredAt)
	if err != nil {
		return err
	}

	return h.store.CommitFinePayment(ctx, paid)
}
