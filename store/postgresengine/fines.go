package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/store"
)

func fineColumns() []any {
	return []any{
		colID, colLoanID, colReaderID, goqu.L("amount::text"), colReason, colStatus, colCreatedDate, colPaidDate,
	}
}

func insertFineStmt(fine core.Fine) *goqu.InsertDataset {
	return builder().
		Insert(tableFines).
		Rows(goqu.Record{
			colID:          uuidValue(fine.ID),
			colLoanID:      nullableUUIDValue(fine.LoanID),
			colReaderID:    uuidValue(fine.ReaderID),
			colAmount:      numericValue(fine.Amount),
			colReason:      fine.Reason,
			colStatus:      string(fine.Status),
			colCreatedDate: timestampValue(fine.CreatedDate),
			colPaidDate:    nullableTimestampValue(fine.PaidDate),
		}).
		OnConflict(goqu.DoNothing())
}

// InsertFine stores a manually issued fine. An already existing id yields store.ErrConcurrencyConflict.
func (e *Engine) InsertFine(ctx context.Context, fine core.Fine) error {
	return e.execGuarded(ctx, e.db, actionInsertFine, insertFineStmt(fine))
}

// CommitFinePayment marks the fine Paid if it is still Unpaid, otherwise store.ErrConcurrencyConflict.
func (e *Engine) CommitFinePayment(ctx context.Context, fine core.Fine) error {
	updateStmt := builder().
		Update(tableFines).
		Set(goqu.Record{
			colStatus:   string(fine.Status),
			colPaidDate: nullableTimestampValue(fine.PaidDate),
		}).
		Where(goqu.Ex{colID: uuidValue(fine.ID), colStatus: string(core.FineUnpaid)})

	return e.execGuarded(ctx, e.db, actionPayFine, updateStmt)
}

// FindFine loads a fine by id or fails with store.ErrNotFound.
func (e *Engine) FindFine(ctx context.Context, fineID uuid.UUID) (core.Fine, error) {
	fines, err := e.queryFines(ctx, actionFindFine, goqu.Ex{colID: uuidValue(fineID)})
	if err != nil {
		return core.Fine{}, err
	}

	if len(fines) == 0 {
		return core.Fine{}, store.ErrNotFound
	}

	return fines[0], nil
}

// ListFines returns the fines matching the filter, newest first.
func (e *Engine) ListFines(ctx context.Context, filter store.FineFilter) ([]core.Fine, error) {
	where := goqu.Ex{}

	if filter.ReaderID != uuid.Nil {
		where[colReaderID] = uuidValue(filter.ReaderID)
	}

	if filter.Status != "" {
		where[colStatus] = string(filter.Status)
	}

	return e.queryFines(ctx, actionListFines, where)
}

func (e *Engine) queryFines(ctx context.Context, action string, where exp.Ex) ([]core.Fine, error) {
	selectStmt := builder().
		From(tableFines).
		Select(fineColumns()...).
		Where(where).
		Order(goqu.I(colCreatedDate).Desc(), goqu.I(colID).Asc())

	rows, err := e.query(ctx, e.db, action, selectStmt)
	if err != nil {
		return nil, err
	}
	defer e.closeRows(ctx, rows)

	fines := make([]core.Fine, 0)

	for rows.Next() {
		var fine core.Fine
		var amount, status string

		scanErr := rows.Scan(
			&fine.ID, &fine.LoanID, &fine.ReaderID, &amount, &fine.Reason, &status,
			&fine.CreatedDate, &fine.PaidDate,
		)
		if scanErr != nil {
			return nil, e.scanFailed(ctx, action, scanErr)
		}

		fine.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, errors.Join(store.ErrDecodingFailed, err)
		}

		fine.Status = core.FineStatus(status)
		fine.CreatedDate = core.ToRecordedAt(fine.CreatedDate)

		if fine.PaidDate != nil {
			paidDate := core.ToRecordedAt(*fine.PaidDate)
			fine.PaidDate = &paidDate
		}

		fines = append(fines, fine)
	}

	if err := rows.Err(); err != nil {
		return nil, e.scanFailed(ctx, action, err)
	}

	e.logOperation(ctx, logMsgQueryCompleted+action, logAttrRowCount, len(fines))

	return fines, nil
}
