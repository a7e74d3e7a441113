package postgresengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/store"
	"github.com/Jehd061990/liber/store/postgresengine/internal/adapters"
)

func reservationColumns() []any {
	return []any{colID, colBookID, colReaderID, colReservedAt, colStatus, colQueuePosition}
}

func pendingReservationsFor(bookID uuid.UUID) goqu.Ex {
	return goqu.Ex{colBookID: uuidValue(bookID), colStatus: string(core.ReservationPending)}
}

// CountPendingReservations returns the length of the waiting queue of a book.
func (e *Engine) CountPendingReservations(ctx context.Context, bookID uuid.UUID) (int, error) {
	selectStmt := builder().
		From(tableReservations).
		Select(goqu.COUNT(goqu.Star())).
		Where(pendingReservationsFor(bookID))

	return e.queryCount(ctx, e.db, actionCountPending, selectStmt)
}

// CommitReservation queues a reservation if the book still has expectedPending pending reservations,
// otherwise store.ErrConcurrencyConflict.
func (e *Engine) CommitReservation(ctx context.Context, reservation core.Reservation, expectedPending int) error {
	return e.inTx(ctx, actionReserve, func(tx adapters.DBTx) error {
		if err := e.lockRow(ctx, tx, actionLockBook, tableBooks, reservation.BookID); err != nil {
			return err
		}

		guardStmt := builder().
			From(tableReservations).
			Select(goqu.COUNT(goqu.Star()).As(aliasGuardCount)).
			Where(pendingReservationsFor(reservation.BookID))

		valuesStmt := builder().
			From(cteGuard).
			Select(
				uuidValue(reservation.ID),
				uuidValue(reservation.BookID),
				uuidValue(reservation.ReaderID),
				timestampValue(reservation.ReservedAt),
				textValue(string(reservation.Status)),
				integerValue(reservation.QueuePosition),
			).
			Where(goqu.C(aliasGuardCount).Eq(expectedPending))

		insertStmt := builder().
			Insert(tableReservations).
			Cols(reservationColumns()...).
			With(cteGuard, guardStmt).
			FromQuery(valuesStmt)

		return e.execGuarded(ctx, tx, actionInsertReservation, insertStmt)
	})
}

// CommitReservationCancel cancels the reservation if it is still open, otherwise store.ErrConcurrencyConflict.
func (e *Engine) CommitReservationCancel(ctx context.Context, reservation core.Reservation) error {
	updateStmt := builder().
		Update(tableReservations).
		Set(goqu.Record{colStatus: string(reservation.Status)}).
		Where(
			goqu.C(colID).Eq(uuidValue(reservation.ID)),
			goqu.C(colStatus).In(string(core.ReservationPending), string(core.ReservationNotified)),
		)

	return e.execGuarded(ctx, e.db, actionCancelReservation, updateStmt)
}

// FindReservation loads a reservation by id or fails with store.ErrNotFound.
func (e *Engine) FindReservation(ctx context.Context, reservationID uuid.UUID) (core.Reservation, error) {
	selectStmt := builder().
		From(tableReservations).
		Select(reservationColumns()...).
		Where(goqu.Ex{colID: uuidValue(reservationID)})

	rows, err := e.query(ctx, e.db, actionFindReservation, selectStmt)
	if err != nil {
		return core.Reservation{}, err
	}
	defer e.closeRows(ctx, rows)

	if !rows.Next() {
		if rowsErr := rows.Err(); rowsErr != nil {
			return core.Reservation{}, e.scanFailed(ctx, actionFindReservation, rowsErr)
		}

		return core.Reservation{}, store.ErrNotFound
	}

	var reservation core.Reservation
	var status string

	scanErr := rows.Scan(
		&reservation.ID, &reservation.BookID, &reservation.ReaderID, &reservation.ReservedAt,
		&status, &reservation.QueuePosition,
	)
	if scanErr != nil {
		return core.Reservation{}, e.scanFailed(ctx, actionFindReservation, scanErr)
	}

	reservation.Status = core.ReservationStatus(status)
	reservation.ReservedAt = core.ToRecordedAt(reservation.ReservedAt)

	return reservation, nil
}
