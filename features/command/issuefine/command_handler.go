package issuefine

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
	FindFine(ctx context.Context, fineID uuid.UUID) (core.Fine, error)
	FindReader(ctx context.Context, readerID uuid.UUID) (core.Reader, error)
	InsertFine(ctx context.Context, fine core.Fine) error
}

// CommandHandler orchestrates Load -> IssueManualFine -> InsertFine with retry.
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

// Handle issues the fine. Replaying the same charge under the same fine id is idempotent.
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

	fine, err := core.IssueManualFine(command.FineID, command.ReaderID, command.Amount, command.Reason, command.OccurredAt)
	if err != nil {
		return false, err
	}

	existing, err := h.store.FindFine(ctx, command.FineID)
	switch {
	case err == nil:
		if existing.SameCharge(fine) {
			return true, nil
		}

		return false, &core.InvalidRecordError{Record: "fine", Field: "id", Reason: "is already in use"}
	case !errors.Is(err, store.ErrNotFound):
		return false, err
	}

	if _, err = h.store.FindReader(ctx, command.ReaderID); err != nil {
		return false, err
	}

	return false, h.store.InsertFine(ctx, fine)
}
