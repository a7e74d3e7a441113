package cancelreservation

import (
	"context"

	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/shell"
	"github.com/Jehd061990/liber/store"
)

// Store defines the storage operations needed by the CommandHandler.
type Store interface {
	FindReservation(ctx context.Context, reservationID uuid.UUID) (core.Reservation, error)
	CommitReservationCancel(ctx context.Context, reservation core.Reservation) error
}

// CommandHandler orchestrates Load -> CancelReservation -> CommitReservationCancel with retry.
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

// Handle cancels the reservation. Cancelling twice is idempotent; a fulfilled reservation cannot be cancelled.
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

	reservation, err := h.store.FindReservation(ctx, command.ReservationID)
	if err != nil {
		return false, err
	}

	if reservation.Status == core.ReservationCancelled {
		return true, nil
	}

	cancelled, err := core.CancelReservation(reservation)
	if err != nil {
		return false, err
	}

	return false, h.store.CommitReservationCancel(ctx, cancelled)
}
