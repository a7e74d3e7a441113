package changereaderstatus

import (
	"context"

	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/shell"
	"github.com/Jehd061990/liber/store"
)

// Store defines the storage operations needed by the CommandHandler.
type Store interface {
	FindReader(ctx context.Context, readerID uuid.UUID) (core.Reader, error)
	CommitReaderStatus(ctx context.Context, reader core.Reader, expectedStatus core.ReaderStatus) error
}

// CommandHandler orchestrates Load -> ChangeReaderStatus -> CommitReaderStatus with retry.
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

// Handle changes the status. A reader that already has the requested status is an idempotent success.
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

	reader, err := h.store.FindReader(ctx, command.ReaderID)
	if err != nil {
		return false, err
	}

	changed, err := core.ChangeReaderStatus(reader, command.Status)
	if err != nil {
		return false, err
	}

	if changed.Status == reader.Status {
		return true, nil
	}

	return false, h.store.CommitReaderStatus(ctx, changed, reader.Status)
}
