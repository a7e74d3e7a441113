package postgresengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/store"
	"github.com/Jehd061990/liber/store/postgresengine/internal/adapters"
)

func insertLoanStmt(loan core.Loan) *goqu.InsertDataset {
	return builder().
		Insert(tableLoans).
		Rows(goqu.Record{
			colID:         uuidValue(loan.ID),
			colBookID:     uuidValue(loan.BookID),
			colReaderID:   uuidValue(loan.ReaderID),
			colBorrowDate: timestampValue(loan.BorrowDate),
			colDueDate:    timestampValue(loan.DueDate),
			colReturnDate: nullableTimestampValue(loan.ReturnDate),
			colStatus:     string(loan.Status),
			colFineID:     nullableUUIDValue(loan.FineID),
		}).
		OnConflict(goqu.DoNothing())
}

func insertReservationStmt(reservation core.Reservation) *goqu.InsertDataset {
	return builder().
		Insert(tableReservations).
		Rows(goqu.Record{
			colID:            uuidValue(reservation.ID),
			colBookID:        uuidValue(reservation.BookID),
			colReaderID:      uuidValue(reservation.ReaderID),
			colReservedAt:    timestampValue(reservation.ReservedAt),
			colStatus:        string(reservation.Status),
			colQueuePosition: reservation.QueuePosition,
		}).
		OnConflict(goqu.DoNothing())
}

// ImportSnapshot writes all records of the snapshot in one transaction, referenced records first.
// Records are written as they are, without the borrow and reservation guards; ids that already exist are skipped,
// so a failed import can be run again.
func (e *Engine) ImportSnapshot(ctx context.Context, snapshot store.Snapshot) (store.ImportResult, error) {
	var result store.ImportResult

	err := e.inTx(ctx, actionImport, func(tx adapters.DBTx) error {
		result = store.ImportResult{}

		count := func(stmt sqlStatement) error {
			rowsAffected, err := e.exec(ctx, tx, actionImportRecord, stmt)
			if err != nil {
				return err
			}

			if rowsAffected > 0 {
				result.Inserted++
			} else {
				result.Skipped++
			}

			return nil
		}

		for _, book := range snapshot.Books {
			stmt, err := insertBookStmt(book)
			if err != nil {
				return err
			}

			if err = count(stmt); err != nil {
				return err
			}
		}

		for _, reader := range snapshot.Readers {
			if err := count(insertReaderStmt(reader)); err != nil {
				return err
			}
		}

		for _, loan := range snapshot.Loans {
			if err := count(insertLoanStmt(loan)); err != nil {
				return err
			}
		}

		for _, fine := range snapshot.Fines {
			if err := count(insertFineStmt(fine)); err != nil {
				return err
			}
		}

		for _, reservation := range snapshot.Reservations {
			if err := count(insertReservationStmt(reservation)); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return store.ImportResult{}, err
	}

	e.logOperation(ctx, actionImport, logAttrInserted, result.Inserted, logAttrSkipped, result.Skipped)

	return result, nil
}
