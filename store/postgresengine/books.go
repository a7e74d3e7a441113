package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/store"
	"github.com/Jehd061990/liber/store/postgresengine/internal/adapters"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func bookColumns() []any {
	return []any{
		colID, colISBN, colTitle, colAuthor, colPublisher, goqu.L("tags::text"),
		colShelfLocation, colTotalCopies, colAvailableCopies, colStatus,
	}
}

func insertBookStmt(book core.Book) (*goqu.InsertDataset, error) {
	tagsJSON, err := json.Marshal(book.Tags)
	if err != nil {
		return nil, errors.Join(store.ErrEncodingFailed, err)
	}

	return builder().
		Insert(tableBooks).
		Rows(goqu.Record{
			colID:              uuidValue(book.ID),
			colISBN:            book.ISBN,
			colTitle:           book.Title,
			colAuthor:          book.Author,
			colPublisher:       book.Publisher,
			colTags:            goqu.L(castJsonb, string(tagsJSON)),
			colShelfLocation:   book.ShelfLocation,
			colTotalCopies:     book.TotalCopies,
			colAvailableCopies: book.AvailableCopies,
			colStatus:          string(book.Status),
		}).
		OnConflict(goqu.DoNothing()), nil
}

// InsertBook adds a catalog entry. An already existing id yields store.ErrConcurrencyConflict.
func (e *Engine) InsertBook(ctx context.Context, book core.Book) error {
	insertStmt, err := insertBookStmt(book)
	if err != nil {
		return err
	}

	return e.execGuarded(ctx, e.db, actionInsertBook, insertStmt)
}

// updateCopiesStmt writes the available copies and status of book if the row still has expectedAvailableCopies.
func updateCopiesStmt(book core.Book, expectedAvailableCopies int) sqlStatement {
	return builder().
		Update(tableBooks).
		Set(goqu.Record{
			colAvailableCopies: book.AvailableCopies,
			colStatus:          string(book.Status),
		}).
		Where(goqu.Ex{
			colID:              uuidValue(book.ID),
			colAvailableCopies: expectedAvailableCopies,
		})
}

// CommitBookUpdate replaces the catalog data of a book if its available copies are still
// expectedAvailableCopies. A borrow or return in between yields store.ErrConcurrencyConflict.
func (e *Engine) CommitBookUpdate(ctx context.Context, book core.Book, expectedAvailableCopies int) error {
	tagsJSON, err := json.Marshal(book.Tags)
	if err != nil {
		return errors.Join(store.ErrEncodingFailed, err)
	}

	updateStmt := builder().
		Update(tableBooks).
		Set(goqu.Record{
			colISBN:            book.ISBN,
			colTitle:           book.Title,
			colAuthor:          book.Author,
			colPublisher:       book.Publisher,
			colTags:            goqu.L(castJsonb, string(tagsJSON)),
			colShelfLocation:   book.ShelfLocation,
			colTotalCopies:     book.TotalCopies,
			colAvailableCopies: book.AvailableCopies,
			colStatus:          string(book.Status),
		}).
		Where(goqu.Ex{
			colID:              uuidValue(book.ID),
			colAvailableCopies: expectedAvailableCopies,
		})

	return e.execGuarded(ctx, e.db, actionUpdateBook, updateStmt)
}

// FindBook loads a book by id or fails with store.ErrNotFound.
func (e *Engine) FindBook(ctx context.Context, bookID uuid.UUID) (core.Book, error) {
	selectStmt := builder().
		From(tableBooks).
		Select(bookColumns()...).
		Where(goqu.Ex{colID: uuidValue(bookID)})

	books, err := e.queryBooks(ctx, e.db, actionFindBook, selectStmt)
	if err != nil {
		return core.Book{}, err
	}

	if len(books) == 0 {
		return core.Book{}, store.ErrNotFound
	}

	return books[0], nil
}

// ListBooks returns the catalog ordered by title.
func (e *Engine) ListBooks(ctx context.Context) ([]core.Book, error) {
	selectStmt := builder().
		From(tableBooks).
		Select(bookColumns()...).
		Order(goqu.I(colTitle).Asc(), goqu.I(colID).Asc())

	return e.queryBooks(ctx, e.db, actionListBooks, selectStmt)
}

func (e *Engine) queryBooks(ctx context.Context, db adapters.Executor, action string, stmt sqlStatement) ([]core.Book, error) {
	rows, err := e.query(ctx, db, action, stmt)
	if err != nil {
		return nil, err
	}
	defer e.closeRows(ctx, rows)

	books := make([]core.Book, 0)

	for rows.Next() {
		var book core.Book
		var tagsJSON, status string

		scanErr := rows.Scan(
			&book.ID, &book.ISBN, &book.Title, &book.Author, &book.Publisher, &tagsJSON,
			&book.ShelfLocation, &book.TotalCopies, &book.AvailableCopies, &status,
		)
		if scanErr != nil {
			return nil, e.scanFailed(ctx, action, scanErr)
		}

		if decodeErr := json.UnmarshalFromString(tagsJSON, &book.Tags); decodeErr != nil {
			return nil, errors.Join(store.ErrDecodingFailed, decodeErr)
		}

		book.Status = core.BookStatus(status)
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, e.scanFailed(ctx, action, err)
	}

	e.logOperation(ctx, logMsgQueryCompleted+action, logAttrRowCount, len(books))

	return books, nil
}

func (e *Engine) scanFailed(ctx context.Context, action string, err error) error {
	e.logError(ctx, logMsgScanRowFailed, err, logAttrAction, action)
	e.recordErrorMetrics(ctx, action, errorTypeScan)

	return errors.Join(store.ErrScanningDBRowFailed, err)
}

// lockRow takes a row lock that serializes concurrent commits on the same book or reader.
// A missing row is reported as a conflict since the decision was based on it existing.
func (e *Engine) lockRow(ctx context.Context, tx adapters.DBTx, action, table string, id uuid.UUID) error {
	selectStmt := builder().
		From(table).
		Select(colID).
		Where(goqu.Ex{colID: uuidValue(id)}).
		ForUpdate(goqu.Wait)

	rows, err := e.query(ctx, tx, action, selectStmt)
	if err != nil {
		return err
	}
	defer e.closeRows(ctx, rows)

	if !rows.Next() {
		if rowsErr := rows.Err(); rowsErr != nil {
			return e.scanFailed(ctx, action, rowsErr)
		}

		e.logOperation(ctx, logMsgConcurrencyConflict, logAttrAction, action)
		e.recordConflictMetrics(ctx, action)

		return store.ErrConcurrencyConflict
	}

	return nil
}
