package postgresengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/store"
	"github.com/Jehd061990/liber/store/postgresengine/internal/adapters"
)

func loanColumns() []any {
	return []any{colID, colBookID, colReaderID, colBorrowDate, colDueDate, colReturnDate, colStatus, colFineID}
}

func activeLoansOf(readerID uuid.UUID) goqu.Ex {
	return goqu.Ex{colReaderID: uuidValue(readerID), colStatus: string(core.LoanActive)}
}

// CountActiveLoans returns the number of loans the reader has not returned yet.
func (e *Engine) CountActiveLoans(ctx context.Context, readerID uuid.UUID) (int, error) {
	selectStmt := builder().
		From(tableLoans).
		Select(goqu.COUNT(goqu.Star())).
		Where(activeLoansOf(readerID))

	return e.queryCount(ctx, e.db, actionCountActiveLoans, selectStmt)
}

// CommitBorrow persists a borrow decision in one transaction. book carries the copies and status after the borrow.
//
// The decision was made when the book had expectedAvailableCopies and the reader held expectedActiveLoans.
// If either changed since, nothing is written and store.ErrConcurrencyConflict is returned.
func (e *Engine) CommitBorrow(
	ctx context.Context,
	loan core.Loan,
	book core.Book,
	expectedAvailableCopies int,
	expectedActiveLoans int,
) error {

	return e.inTx(ctx, actionBorrow, func(tx adapters.DBTx) error {
		// concurrent borrows of one reader would otherwise both pass the count guard
		if err := e.lockRow(ctx, tx, actionLockReader, tableReaders, loan.ReaderID); err != nil {
			return err
		}

		if err := e.execGuarded(ctx, tx, actionTakeCopy, updateCopiesStmt(book, expectedAvailableCopies)); err != nil {
			return err
		}

		guardStmt := builder().
			From(tableLoans).
			Select(goqu.COUNT(goqu.Star()).As(aliasGuardCount)).
			Where(activeLoansOf(loan.ReaderID))

		valuesStmt := builder().
			From(cteGuard).
			Select(
				uuidValue(loan.ID),
				uuidValue(loan.BookID),
				uuidValue(loan.ReaderID),
				timestampValue(loan.BorrowDate),
				timestampValue(loan.DueDate),
				nullableTimestampValue(loan.ReturnDate),
				textValue(string(loan.Status)),
				nullableUUIDValue(loan.FineID),
			).
			Where(goqu.C(aliasGuardCount).Eq(expectedActiveLoans))

		insertStmt := builder().
			Insert(tableLoans).
			Cols(loanColumns()...).
			With(cteGuard, guardStmt).
			FromQuery(valuesStmt)

		return e.execGuarded(ctx, tx, actionInsertLoan, insertStmt)
	})
}

// CommitReturn persists a return decision in one transaction: the loan is closed, the copy is given back
// and the overdue fine, if any, is created. book carries the copies and status after the return.
// A loan that is no longer Active, or a book whose available copies moved away from expectedAvailableCopies,
// yields store.ErrConcurrencyConflict.
func (e *Engine) CommitReturn(
	ctx context.Context,
	loan core.Loan,
	book core.Book,
	expectedAvailableCopies int,
	fine *core.Fine,
) error {

	return e.inTx(ctx, actionReturn, func(tx adapters.DBTx) error {
		closeLoanStmt := builder().
			Update(tableLoans).
			Set(goqu.Record{
				colStatus:     string(loan.Status),
				colReturnDate: nullableTimestampValue(loan.ReturnDate),
				colFineID:     nullableUUIDValue(loan.FineID),
			}).
			Where(goqu.Ex{colID: uuidValue(loan.ID), colStatus: string(core.LoanActive)})

		if err := e.execGuarded(ctx, tx, actionCloseLoan, closeLoanStmt); err != nil {
			return err
		}

		if err := e.execGuarded(ctx, tx, actionGiveBackCopy, updateCopiesStmt(book, expectedAvailableCopies)); err != nil {
			return err
		}

		if fine == nil {
			return nil
		}

		return e.execGuarded(ctx, tx, actionInsertFine, insertFineStmt(*fine))
	})
}

// FindLoan loads a loan by id or fails with store.ErrNotFound.
func (e *Engine) FindLoan(ctx context.Context, loanID uuid.UUID) (core.Loan, error) {
	selectStmt := builder().
		From(tableLoans).
		Select(loanColumns()...).
		Where(goqu.Ex{colID: uuidValue(loanID)})

	loans, err := e.queryLoans(ctx, actionFindLoan, selectStmt)
	if err != nil {
		return core.Loan{}, err
	}

	if len(loans) == 0 {
		return core.Loan{}, store.ErrNotFound
	}

	return loans[0], nil
}

// ListLoans returns the loans matching the filter, most recent borrow first.
func (e *Engine) ListLoans(ctx context.Context, filter store.LoanFilter) ([]core.Loan, error) {
	where := goqu.Ex{}

	if filter.ReaderID != uuid.Nil {
		where[colReaderID] = uuidValue(filter.ReaderID)
	}

	if filter.BookID != uuid.Nil {
		where[colBookID] = uuidValue(filter.BookID)
	}

	if filter.Status != "" {
		where[colStatus] = string(filter.Status)
	}

	selectStmt := builder().
		From(tableLoans).
		Select(loanColumns()...).
		Where(where).
		Order(goqu.I(colBorrowDate).Desc(), goqu.I(colID).Asc())

	return e.queryLoans(ctx, actionListLoans, selectStmt)
}

func (e *Engine) queryLoans(ctx context.Context, action string, stmt sqlStatement) ([]core.Loan, error) {
	rows, err := e.query(ctx, e.db, action, stmt)
	if err != nil {
		return nil, err
	}
	defer e.closeRows(ctx, rows)

	loans := make([]core.Loan, 0)

	for rows.Next() {
		var loan core.Loan
		var status string

		scanErr := rows.Scan(
			&loan.ID, &loan.BookID, &loan.ReaderID, &loan.BorrowDate, &loan.DueDate,
			&loan.ReturnDate, &status, &loan.FineID,
		)
		if scanErr != nil {
			return nil, e.scanFailed(ctx, action, scanErr)
		}

		loan.Status = core.LoanStatus(status)
		loan.BorrowDate = core.ToRecordedAt(loan.BorrowDate)
		loan.DueDate = core.ToRecordedAt(loan.DueDate)

		if loan.ReturnDate != nil {
			returnDate := core.ToRecordedAt(*loan.ReturnDate)
			loan.ReturnDate = &returnDate
		}

		loans = append(loans, loan)
	}

	if err := rows.Err(); err != nil {
		return nil, e.scanFailed(ctx, action, err)
	}

	e.logOperation(ctx, logMsgQueryCompleted+action, logAttrRowCount, len(loans))

	return loans, nil
}

// queryCount runs a single-value count query.
func (e *Engine) queryCount(ctx context.Context, db adapters.Executor, action string, stmt sqlStatement) (int, error) {
	rows, err := e.query(ctx, db, action, stmt)
	if err != nil {
		return 0, err
	}
	defer e.closeRows(ctx, rows)

	count := 0

	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			return 0, e.scanFailed(ctx, action, scanErr)
		}
	}

	if err := rows.Err(); err != nil {
		return 0, e.scanFailed(ctx, action, err)
	}

	return count, nil
}
