package placereservation

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
	FindReservation(ctx context.Context, reservationID uuid.UUID) (core.Reservation, error)
	FindBook(ctx context.Context, bookID uuid.UUID) (core.Book, error)
	FindReader(ctx context.Context, readerID uuid.UUID) (core.Reader, error)
	CountPendingReservations(ctx context.Context, bookID uuid.UUID) (int, error)
	CommitReservation(ctx context.Context, reservation core.Reservation, expectedPending int) error
}

// CommandHandler orchestrates Load -> PlaceReservation -> CommitReservation with retry.
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

// Handle queues the reservation. Two readers reserving at the same time cannot get the same position:
// the loser is retried against the longer queue.
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

	existing, err := h.store.FindReservation(ctx, command.ReservationID)
	switch {
	case err == nil:
		if existing.BookID == command.BookID && existing.ReaderID == command.ReaderID {
			return true, nil
		}

		return false, &core.InvalidRecordError{Record: "reservation", Field: "id", Reason: "is already in use"}
	case !errors.Is(err, store.ErrNotFound):
		return false, err
	}

	book, err := h.store.FindBook(ctx, command.BookID)
	if err != nil {
		return false, err
	}

	var reader *core.Reader

	if command.ReaderID != uuid.Nil {
		found, findErr := h.store.FindReader(ctx, command.ReaderID)
		if findErr != nil {
			return false, findErr
		}

		reader = &found
	}

	pending, err := h.store.CountPendingReservations(ctx, command.BookID)
	if err != nil {
		return false, err
	}

	reservation, err := core.PlaceReservation(command.ReservationID, book, reader, pending, command.OccurredAt)
	if err != nil {
		return false, err
	}

	return false, h.store.CommitReservation(ctx, reservation, pending)
}
