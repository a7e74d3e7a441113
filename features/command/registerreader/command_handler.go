package registerreader

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
	FindReader(ctx context.Context, readerID uuid.UUID) (core.Reader, error)
	InsertReader(ctx context.Context, reader core.Reader) error
}

// CommandHandler registers readers: RegisterReader -> Find -> Insert.
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

// Handle registers the reader. Registering the same reader again is idempotent; reusing the id
// for different data is rejected. An insert that lost a race against the same id is retried.
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

	reader, err := core.RegisterReader(
		command.ReaderID,
		command.ReaderCode,
		command.StudentCode,
		command.Name,
		command.Email,
		command.Phone,
		command.Tier,
		command.OccurredAt,
	)
	if err != nil {
		return false, err
	}

	existing, err := h.store.FindReader(ctx, command.ReaderID)
	switch {
	case err == nil:
		if existing.SameRegistration(reader) {
			return true, nil
		}

		return false, &core.InvalidRecordError{Record: "reader", Field: "id", Reason: "is already in use"}
	case !errors.Is(err, store.ErrNotFound):
		return false, err
	}

	return false, h.store.InsertReader(ctx, reader)
}
