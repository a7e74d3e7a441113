package postgresengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/store"
)

func readerColumns() []any {
	return []any{
		colID, colReaderCode, colStudentCode, colName, colEmail, colPhone, colTier, colStatus,
		colRegisteredAt, colMaxBooks, colBorrowDurationDays,
	}
}

func insertReaderStmt(reader core.Reader) *goqu.InsertDataset {
	return builder().
		Insert(tableReaders).
		Rows(goqu.Record{
			colID:                 uuidValue(reader.ID),
			colReaderCode:         reader.ReaderCode,
			colStudentCode:        reader.StudentCode,
			colName:               reader.Name,
			colEmail:              reader.Email,
			colPhone:              reader.Phone,
			colTier:               string(reader.Tier),
			colStatus:             string(reader.Status),
			colRegisteredAt:       timestampValue(reader.RegisteredAt),
			colMaxBooks:           reader.MaxBooks,
			colBorrowDurationDays: reader.BorrowDurationDays,
		}).
		OnConflict(goqu.DoNothing())
}

// InsertReader stores a registration. An already existing id or reader code yields store.ErrConcurrencyConflict.
func (e *Engine) InsertReader(ctx context.Context, reader core.Reader) error {
	return e.execGuarded(ctx, e.db, actionInsertReader, insertReaderStmt(reader))
}

// FindReader loads a reader by id or fails with store.ErrNotFound.
func (e *Engine) FindReader(ctx context.Context, readerID uuid.UUID) (core.Reader, error) {
	selectStmt := builder().
		From(tableReaders).
		Select(readerColumns()...).
		Where(goqu.Ex{colID: uuidValue(readerID)})

	readers, err := e.queryReaders(ctx, actionFindReader, selectStmt)
	if err != nil {
		return core.Reader{}, err
	}

	if len(readers) == 0 {
		return core.Reader{}, store.ErrNotFound
	}

	return readers[0], nil
}

// ListReaders returns the readers matching the filter ordered by name.
func (e *Engine) ListReaders(ctx context.Context, filter store.ReaderFilter) ([]core.Reader, error) {
	where := goqu.Ex{}

	if filter.Status != "" {
		where[colStatus] = string(filter.Status)
	}

	selectStmt := builder().
		From(tableReaders).
		Select(readerColumns()...).
		Where(where).
		Order(goqu.I(colName).Asc(), goqu.I(colID).Asc())

	return e.queryReaders(ctx, actionListReaders, selectStmt)
}

// CommitReaderStatus stores the new status of reader if the stored status is still expectedStatus.
func (e *Engine) CommitReaderStatus(ctx context.Context, reader core.Reader, expectedStatus core.ReaderStatus) error {
	updateStmt := builder().
		Update(tableReaders).
		Set(goqu.Record{colStatus: string(reader.Status)}).
		Where(goqu.Ex{colID: uuidValue(reader.ID), colStatus: string(expectedStatus)})

	return e.execGuarded(ctx, e.db, actionChangeReaderStatus, updateStmt)
}

func (e *Engine) queryReaders(ctx context.Context, action string, stmt sqlStatement) ([]core.Reader, error) {
	rows, err := e.query(ctx, e.db, action, stmt)
	if err != nil {
		return nil, err
	}
	defer e.closeRows(ctx, rows)

	readers := make([]core.Reader, 0)

	for rows.Next() {
		var reader core.Reader
		var tier, status string

		scanErr := rows.Scan(
			&reader.ID, &reader.ReaderCode, &reader.StudentCode, &reader.Name, &reader.Email, &reader.Phone,
			&tier, &status, &reader.RegisteredAt, &reader.MaxBooks, &reader.BorrowDurationDays,
		)
		if scanErr != nil {
			return nil, e.scanFailed(ctx, action, scanErr)
		}

		reader.Tier = core.MembershipTier(tier)
		reader.Status = core.ReaderStatus(status)
		reader.RegisteredAt = core.ToRecordedAt(reader.RegisteredAt)
		readers = append(readers, reader)
	}

	if err := rows.Err(); err != nil {
		return nil, e.scanFailed(ctx, action, err)
	}

	e.logOperation(ctx, logMsgQueryCompleted+action, logAttrRowCount, len(readers))

	return readers, nil
}
