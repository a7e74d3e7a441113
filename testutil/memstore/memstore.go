package memstore

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/store"
)

// Store keeps all records in maps behind one mutex. Every Commit* checks the same guards as the
// Postgres engine and returns store.ErrConcurrencyConflict when they do not hold.
type Store struct {
	mu           sync.Mutex
	books        map[uuid.UUID]core.Book
	readers      map[uuid.UUID]core.Reader
	loans        map[uuid.UUID]core.Loan
	fines        map[uuid.UUID]core.Fine
	reservations map[uuid.UUID]core.Reservation

	// BeforeCommit runs once, at the start of the next Commit* call, before the guards are checked.
	// Tests use it to simulate a concurrent writer.
	BeforeCommit func(s *Store)
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		books:        make(map[uuid.UUID]core.Book),
		readers:      make(map[uuid.UUID]core.Reader),
		loans:        make(map[uuid.UUID]core.Loan),
		fines:        make(map[uuid.UUID]core.Fine),
		reservations: make(map[uuid.UUID]core.Reservation),
	}
}

// runBeforeCommit fires the hook once. It must be called without holding the mutex.
func (s *Store) runBeforeCommit() {
	s.mu.Lock()
	hook := s.BeforeCommit
	s.BeforeCommit = nil
	s.mu.Unlock()

	if hook != nil {
		hook(s)
	}
}

// Put* bypass the guards; they are meant for arranging test data.

// PutBook stores or replaces a book.
func (s *Store) PutBook(book core.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[book.ID] = book
}

// PutReader stores or replaces a reader.
func (s *Store) PutReader(reader core.Reader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readers[reader.ID] = reader
}

// PutLoan stores or replaces a loan.
func (s *Store) PutLoan(loan core.Loan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loans[loan.ID] = loan
}

// PutFine stores or replaces a fine.
func (s *Store) PutFine(fine core.Fine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fines[fine.ID] = fine
}

// PutReservation stores or replaces a reservation.
func (s *Store) PutReservation(reservation core.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[reservation.ID] = reservation
}

// InsertBook adds a catalog entry. An already existing id yields store.ErrConcurrencyConflict.
func (s *Store) InsertBook(ctx context.Context, book core.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if _, exists := s.books[book.ID]; exists {
		return store.ErrConcurrencyConflict
	}

	s.books[book.ID] = book

	return nil
}

// FindBook loads a book by id or fails with store.ErrNotFound.
func (s *Store) FindBook(ctx context.Context, bookID uuid.UUID) (core.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return find(ctx, s.books, bookID)
}

// ListBooks returns the catalog ordered by title.
func (s *Store) ListBooks(ctx context.Context) ([]core.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	books := values(s.books)
	slices.SortFunc(books, func(a, b core.Book) int {
		if c := strings.Compare(a.Title, b.Title); c != 0 {
			return c
		}

		return strings.Compare(a.ID.String(), b.ID.String())
	})

	return books, nil
}

// InsertReader registers a reader. An already existing id yields store.ErrConcurrencyConflict.
func (s *Store) InsertReader(ctx context.Context, reader core.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if _, exists := s.readers[reader.ID]; exists {
		return store.ErrConcurrencyConflict
	}

	s.readers[reader.ID] = reader

	return nil
}

// FindReader loads a reader by id or fails with store.ErrNotFound.
func (s *Store) FindReader(ctx context.Context, readerID uuid.UUID) (core.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return find(ctx, s.readers, readerID)
}

// CountActiveLoans returns the number of loans the reader has not returned yet.
func (s *Store) CountActiveLoans(ctx context.Context, readerID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return s.activeLoansOf(readerID), nil
}

func (s *Store) activeLoansOf(readerID uuid.UUID) int {
	count := 0

	for _, loan := range s.loans {
		if loan.ReaderID == readerID && loan.Status == core.LoanActive {
			count++
		}
	}

	return count
}

// CommitBorrow stores the copies and status of book and inserts the loan if the book still has
// expectedAvailableCopies and the reader still holds expectedActiveLoans.
func (s *Store) CommitBorrow(
	ctx context.Context,
	loan core.Loan,
	book core.Book,
	expectedAvailableCopies int,
	expectedActiveLoans int,
) error {
	s.runBeforeCommit()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if !s.copiesStillAre(book.ID, expectedAvailableCopies) {
		return store.ErrConcurrencyConflict
	}

	if _, exists := s.readers[loan.ReaderID]; !exists {
		return store.ErrConcurrencyConflict
	}

	if _, exists := s.loans[loan.ID]; exists || s.activeLoansOf(loan.ReaderID) != expectedActiveLoans {
		return store.ErrConcurrencyConflict
	}

	s.storeCopies(book)
	s.loans[loan.ID] = loan

	return nil
}

// CommitReturn closes the loan if it is still Active, stores the copies and status of book
// and stores the fine, if any.
func (s *Store) CommitReturn(
	ctx context.Context,
	loan core.Loan,
	book core.Book,
	expectedAvailableCopies int,
	fine *core.Fine,
) error {
	s.runBeforeCommit()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	stored, exists := s.loans[loan.ID]
	if !exists || stored.Status != core.LoanActive {
		return store.ErrConcurrencyConflict
	}

	if !s.copiesStillAre(book.ID, expectedAvailableCopies) {
		return store.ErrConcurrencyConflict
	}

	if fine != nil {
		if _, exists = s.fines[fine.ID]; exists {
			return store.ErrConcurrencyConflict
		}

		s.fines[fine.ID] = *fine
	}

	s.storeCopies(book)
	s.loans[loan.ID] = loan

	return nil
}

func (s *Store) copiesStillAre(bookID uuid.UUID, expectedAvailableCopies int) bool {
	stored, exists := s.books[bookID]

	return exists && stored.AvailableCopies == expectedAvailableCopies
}

func (s *Store) storeCopies(book core.Book) {
	stored := s.books[book.ID]
	stored.AvailableCopies = book.AvailableCopies
	stored.Status = book.Status
	s.books[book.ID] = stored
}

// CommitBookUpdate replaces the catalog data of a book if its available copies are still expectedAvailableCopies.
func (s *Store) CommitBookUpdate(ctx context.Context, book core.Book, expectedAvailableCopies int) error {
	s.runBeforeCommit()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if !s.copiesStillAre(book.ID, expectedAvailableCopies) {
		return store.ErrConcurrencyConflict
	}

	s.books[book.ID] = book

	return nil
}

// ListReaders returns the readers matching the filter ordered by name.
func (s *Store) ListReaders(ctx context.Context, filter store.ReaderFilter) ([]core.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	readers := make([]core.Reader, 0)
	for _, reader := range s.readers {
		if filter.Status != "" && reader.Status != filter.Status {
			continue
		}

		readers = append(readers, reader)
	}

	slices.SortFunc(readers, func(a, b core.Reader) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}

		return strings.Compare(a.ID.String(), b.ID.String())
	})

	return readers, nil
}

// CommitReaderStatus stores the new status of reader if the stored status is still expectedStatus.
func (s *Store) CommitReaderStatus(ctx context.Context, reader core.Reader, expectedStatus core.ReaderStatus) error {
	s.runBeforeCommit()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	stored, exists := s.readers[reader.ID]
	if !exists || stored.Status != expectedStatus {
		return store.ErrConcurrencyConflict
	}

	stored.Status = reader.Status
	s.readers[reader.ID] = stored

	return nil
}

// FindLoan loads a loan by id or fails with store.ErrNotFound.
func (s *Store) FindLoan(ctx context.Context, loanID uuid.UUID) (core.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return find(ctx, s.loans, loanID)
}

// ListLoans returns the loans matching the filter, most recent borrow first.
func (s *Store) ListLoans(ctx context.Context, filter store.LoanFilter) ([]core.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loans := make([]core.Loan, 0)
	for _, loan := range s.loans {
		if filter.ReaderID != uuid.Nil && loan.ReaderID != filter.ReaderID {
			continue
		}

		if filter.BookID != uuid.Nil && loan.BookID != filter.BookID {
			continue
		}

		if filter.Status != "" && loan.Status != filter.Status {
			continue
		}

		loans = append(loans, loan)
	}

	slices.SortFunc(loans, func(a, b core.Loan) int {
		if c := b.BorrowDate.Compare(a.BorrowDate); c != 0 {
			return c
		}

		return strings.Compare(a.ID.String(), b.ID.String())
	})

	return loans, nil
}

// InsertFine stores a manually issued fine. An already existing id yields store.ErrConcurrencyConflict.
func (s *Store) InsertFine(ctx context.Context, fine core.Fine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if _, exists := s.fines[fine.ID]; exists {
		return store.ErrConcurrencyConflict
	}

	s.fines[fine.ID] = fine

	return nil
}

// CommitFinePayment marks the fine Paid if it is still Unpaid.
func (s *Store) CommitFinePayment(ctx context.Context, fine core.Fine) error {
	s.runBeforeCommit()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	stored, exists := s.fines[fine.ID]
	if !exists || stored.Status != core.FineUnpaid {
		return store.ErrConcurrencyConflict
	}

	stored.Status = fine.Status
	stored.PaidDate = fine.PaidDate
	s.fines[fine.ID] = stored

	return nil
}

// FindFine loads a fine by id or fails with store.ErrNotFound.
func (s *Store) FindFine(ctx context.Context, fineID uuid.UUID) (core.Fine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return find(ctx, s.fines, fineID)
}

// ListFines returns the fines matching the filter, newest first.
func (s *Store) ListFines(ctx context.Context, filter store.FineFilter) ([]core.Fine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fines := make([]core.Fine, 0)
	for _, fine := range s.fines {
		if filter.ReaderID != uuid.Nil && fine.ReaderID != filter.ReaderID {
			continue
		}

		if filter.Status != "" && fine.Status != filter.Status {
			continue
		}

		fines = append(fines, fine)
	}

	slices.SortFunc(fines, func(a, b core.Fine) int {
		if c := b.CreatedDate.Compare(a.CreatedDate); c != 0 {
			return c
		}

		return strings.Compare(a.ID.String(), b.ID.String())
	})

	return fines, nil
}

// CountPendingReservations returns the length of the book's waiting queue.
func (s *Store) CountPendingReservations(ctx context.Context, bookID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return s.pendingReservationsFor(bookID), nil
}

func (s *Store) pendingReservationsFor(bookID uuid.UUID) int {
	count := 0

	for _, reservation := range s.reservations {
		if reservation.BookID == bookID && reservation.Status == core.ReservationPending {
			count++
		}
	}

	return count
}

// CommitReservation queues the reservation if the book still has expectedPending pending reservations.
func (s *Store) CommitReservation(ctx context.Context, reservation core.Reservation, expectedPending int) error {
	s.runBeforeCommit()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if _, exists := s.books[reservation.BookID]; !exists {
		return store.ErrConcurrencyConflict
	}

	if _, exists := s.reservations[reservation.ID]; exists || s.pendingReservationsFor(reservation.BookID) != expectedPending {
		return store.ErrConcurrencyConflict
	}

	s.reservations[reservation.ID] = reservation

	return nil
}

// CommitReservationCancel cancels the reservation if it is still open.
func (s *Store) CommitReservationCancel(ctx context.Context, reservation core.Reservation) error {
	s.runBeforeCommit()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	stored, exists := s.reservations[reservation.ID]
	if !exists || !stored.IsOpen() {
		return store.ErrConcurrencyConflict
	}

	stored.Status = reservation.Status
	s.reservations[reservation.ID] = stored

	return nil
}

// FindReservation loads a reservation by id or fails with store.ErrNotFound.
func (s *Store) FindReservation(ctx context.Context, reservationID uuid.UUID) (core.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return find(ctx, s.reservations, reservationID)
}

// LoadDashboardStats aggregates all records with core.BuildDashboardStats.
func (s *Store) LoadDashboardStats(ctx context.Context, now time.Time) (core.DashboardStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return core.DashboardStats{}, err
	}

	return core.BuildDashboardStats(
		values(s.books),
		values(s.readers),
		values(s.loans),
		values(s.fines),
		values(s.reservations),
		now,
	), nil
}

func find[T any](ctx context.Context, records map[uuid.UUID]T, id uuid.UUID) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	record, exists := records[id]
	if !exists {
		return zero, store.ErrNotFound
	}

	return record, nil
}

func values[T any](records map[uuid.UUID]T) []T {
	result := make([]T, 0, len(records))
	for _, record := range records {
		result = append(result, record)
	}

	return result
}

// ImportSnapshot stores all records of the snapshot without guards. Existing ids are skipped.
func (s *Store) ImportSnapshot(ctx context.Context, snapshot store.Snapshot) (store.ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return store.ImportResult{}, err
	}

	var result store.ImportResult

	for _, book := range snapshot.Books {
		insertIfAbsent(s.books, book.ID, book, &result)
	}

	for _, reader := range snapshot.Readers {
		insertIfAbsent(s.readers, reader.ID, reader, &result)
	}

	for _, loan := range snapshot.Loans {
		insertIfAbsent(s.loans, loan.ID, loan, &result)
	}

	for _, fine := range snapshot.Fines {
		insertIfAbsent(s.fines, fine.ID, fine, &result)
	}

	for _, reservation := range snapshot.Reservations {
		insertIfAbsent(s.reservations, reservation.ID, reservation, &result)
	}

	return result, nil
}

func insertIfAbsent[T any](records map[uuid.UUID]T, id uuid.UUID, record T, result *store.ImportResult) {
	if _, exists := records[id]; exists {
		result.Skipped++
		return
	}

	records[id] = record
	result.Inserted++
}
