package postgresengine_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/store"
	"github.com/Jehd061990/liber/store/postgresengine"
	"github.com/Jehd061990/liber/testutil/postgreswrapper"
	"github.com/Jehd061990/liber/testutil/testdoubles"
)

var fakeClock = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	return ctx
}

func givenBook(t *testing.T, ctx context.Context, engine *postgresengine.Engine, copies int) core.Book {
	t.Helper()

	book, err := core.BuildBook(
		uuid.New(), "978-0-13-110362-7", "The C Programming Language", "Kernighan, Ritchie", "Prentice Hall",
		core.BookTags{Category: "Computing", Genres: []string{"Reference"}}, "C-1", copies,
	)
	require.NoError(t, err, "error in arranging test data")
	require.NoError(t, engine.InsertBook(ctx, book), "error in arranging test data")

	return book
}

func givenReader(t *testing.T, ctx context.Context, engine *postgresengine.Engine, tier core.MembershipTier) core.Reader {
	t.Helper()

	reader, err := core.RegisterReader(uuid.New(), "RD-"+uuid.NewString()[:8], "", "Ada Reader", "ada@example.org", "", tier, fakeClock)
	require.NoError(t, err, "error in arranging test data")
	require.NoError(t, engine.InsertReader(ctx, reader), "error in arranging test data")

	return reader
}

func givenBorrowed(t *testing.T, ctx context.Context, engine *postgresengine.Engine, book core.Book, reader core.Reader) (core.Loan, core.Book) {
	t.Helper()

	activeLoans, err := engine.CountActiveLoans(ctx, reader.ID)
	require.NoError(t, err, "error in arranging test data")
	outcome, err := core.RequestBorrow(uuid.New(), book, &reader, activeLoans, fakeClock)
	require.NoError(t, err, "error in arranging test data")
	lentBook, err := book.WithCopiesDelta(outcome.CopiesDelta)
	require.NoError(t, err, "error in arranging test data")
	require.NoError(t, engine.CommitBorrow(ctx, outcome.Loan, lentBook, book.AvailableCopies, activeLoans), "error in arranging test data")

	return outcome.Loan, lentBook
}

func Test_InsertBook_RoundTripsAllFields(t *testing.T) {
	// setup
	ctx := testContext(t)
	engine := postgreswrapper.CreateWrapper(t).Engine()

	// arrange
	book := givenBook(t, ctx, engine, 2)

	// act
	found, err := engine.FindBook(ctx, book.ID)

	// assert
	require.NoError(t, err)
	assert.Equal(t, book, found)
	assert.ErrorIs(t, engine.InsertBook(ctx, book), store.ErrConcurrencyConflict)
}

func Test_FindReader_UnknownIDIsNotFound(t *testing.T) {
	// setup
	ctx := testContext(t)
	engine := postgreswrapper.CreateWrapper(t).Engine()

	// act
	_, err := engine.FindReader(ctx, uuid.New())

	// assert
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func Test_CommitBorrow_TakesACopyAndStoresTheLoan(t *testing.T) {
	// setup
	ctx := testContext(t)
	engine := postgreswrapper.CreateWrapper(t).Engine()

	// arrange
	book := givenBook(t, ctx, engine, 2)
	reader := givenReader(t, ctx, engine, core.TierStudent)

	// act
	loan, _ := givenBorrowed(t, ctx, engine, book, reader)

	// assert
	storedBook, err := engine.FindBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, storedBook.AvailableCopies)
	assert.Equal(t, core.BookAvailable, storedBook.Status)

	storedLoan, err := engine.FindLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, loan, storedLoan)

	activeLoans, err := engine.CountActiveLoans(ctx, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, activeLoans)
}

func Test_CommitBorrow_StaleDecisionsAreRejected(t *testing.T) {
	testCases := []struct {
		description             string
		expectedAvailableCopies func(book core.Book) int
		expectedActiveLoans     int
	}{
		{
			description:             "copies changed",
			expectedAvailableCopies: func(book core.Book) int { return book.AvailableCopies + 1 },
			expectedActiveLoans:     0,
		},
		{
			description:             "active loans changed",
			expectedAvailableCopies: func(book core.Book) int { return book.AvailableCopies },
			expectedActiveLoans:     1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			// setup
			ctx := testContext(t)
			metricsSpy := testdoubles.NewMetricsCollectorSpy()
			engine := postgreswrapper.CreateWrapper(t, postgresengine.WithMetrics(metricsSpy)).Engine()

			// arrange
			book := givenBook(t, ctx, engine, 1)
			reader := givenReader(t, ctx, engine, core.TierStudent)
			outcome, err := core.RequestBorrow(uuid.New(), book, &reader, 0, fakeClock)
			require.NoError(t, err, "error in arranging test data")
			lentBook, err := book.WithCopiesDelta(outcome.CopiesDelta)
			require.NoError(t, err, "error in arranging test data")

			// act
			err = engine.CommitBorrow(ctx, outcome.Loan, lentBook, tc.expectedAvailableCopies(book), tc.expectedActiveLoans)

			// assert
			assert.ErrorIs(t, err, store.ErrConcurrencyConflict)

			storedBook, findErr := engine.FindBook(ctx, book.ID)
			require.NoError(t, findErr)
			assert.Equal(t, 1, storedBook.AvailableCopies, "a rejected borrow must not take a copy")
			assert.Equal(t, core.BookAvailable, storedBook.Status)

			_, findErr = engine.FindLoan(ctx, outcome.Loan.ID)
			assert.ErrorIs(t, findErr, store.ErrNotFound)

			assert.Equal(t, 1, metricsSpy.CountCounters("liber_store_concurrency_conflicts_total", nil))
		})
	}
}

func Test_CommitReturn_GivesTheCopyBackAndStoresTheFine(t *testing.T) {
	// setup
	ctx := testContext(t)
	engine := postgreswrapper.CreateWrapper(t).Engine()

	// arrange
	book := givenBook(t, ctx, engine, 1)
	reader := givenReader(t, ctx, engine, core.TierStudent)
	loan, lentBook := givenBorrowed(t, ctx, engine, book, reader)
	outcome, err := core.RequestReturn(loan, uuid.New(), loan.DueDate.AddDate(0, 0, 3), core.DefaultFineSchedule())
	require.NoError(t, err, "error in arranging test data")
	require.NotNil(t, outcome.Fine, "error in arranging test data")
	returnedBook, err := lentBook.WithCopiesDelta(outcome.CopiesDelta)
	require.NoError(t, err, "error in arranging test data")

	// act
	err = engine.CommitReturn(ctx, outcome.Loan, returnedBook, lentBook.AvailableCopies, outcome.Fine)

	// assert
	require.NoError(t, err)

	storedBook, err := engine.FindBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, storedBook.AvailableCopies)
	assert.Equal(t, core.BookAvailable, storedBook.Status)

	storedFine, err := engine.FindFine(ctx, outcome.Fine.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3).Equal(storedFine.Amount))
	assert.Equal(t, &loan.ID, storedFine.LoanID)

	secondErr := engine.CommitReturn(ctx, outcome.Loan, returnedBook, returnedBook.AvailableCopies, nil)
	assert.ErrorIs(t, secondErr, store.ErrConcurrencyConflict, "a loan is returned once")
}

func Test_CommitReturn_StaleCopiesAreRejected(t *testing.T) {
	// setup
	ctx := testContext(t)
	engine := postgreswrapper.CreateWrapper(t).Engine()

	// arrange
	book := givenBook(t, ctx, engine, 2)
	reader := givenReader(t, ctx, engine, core.TierStaff)
	loan, lentBook := givenBorrowed(t, ctx, engine, book, reader)
	givenBorrowed(t, ctx, engine, lentBook, givenReader(t, ctx, engine, core.TierStudent))
	outcome, err := core.RequestReturn(loan, uuid.New(), loan.BorrowDate.AddDate(0, 0, 1), core.DefaultFineSchedule())
	require.NoError(t, err, "error in arranging test data")
	returnedBook, err := lentBook.WithCopiesDelta(outcome.CopiesDelta)
	require.NoError(t, err, "error in arranging test data")

	// act
	err = engine.CommitReturn(ctx, outcome.Loan, returnedBook, lentBook.AvailableCopies, outcome.Fine)

	// assert
	assert.ErrorIs(t, err, store.ErrConcurrencyConflict)

	storedLoan, err := engine.FindLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, core.LoanActive, storedLoan.Status, "a rejected return must not close the loan")

	storedBook, err := engine.FindBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, storedBook.AvailableCopies)
	assert.Equal(t, core.BookBorrowed, storedBook.Status)
}

func Test_CommitFinePayment_PaysOnce(t *testing.T) {
	// setup
	ctx := testContext(t)
	engine := postgreswrapper.CreateWrapper(t).Engine()

	// arrange
	reader := givenReader(t, ctx, engine, core.TierTeacher)
	fine, err := core.IssueManualFine(uuid.New(), reader.ID, decimal.RequireFromString("12.50"), "Damaged cover", fakeClock)
	require.NoError(t, err, "error in arranging test data")
	require.NoError(t, engine.InsertFine(ctx, fine), "error in arranging test data")
	paid, err := core.MarkPaid(fine, fakeClock.Add(time.Hour))
	require.NoError(t, err, "error in arranging test data")

	// act
	firstErr := engine.CommitFinePayment(ctx, paid)
	secondErr := engine.CommitFinePayment(ctx, paid)

	// assert
	assert.NoError(t, firstErr)
	assert.ErrorIs(t, secondErr, store.ErrConcurrencyConflict)

	unpaid, err := engine.ListFines(ctx, store.FineFilter{ReaderID: reader.ID, Status: core.FineUnpaid})
	require.NoError(t, err)
	assert.Empty(t, unpaid)
}

func Test_CommitReservation_GuardsTheQueueLength(t *testing.T) {
	// setup
	ctx := testContext(t)
	engine := postgreswrapper.CreateWrapper(t).Engine()

	// arrange
	book := givenBook(t, ctx, engine, 1)
	first := givenReader(t, ctx, engine, core.TierStudent)
	second := givenReader(t, ctx, engine, core.TierStaff)
	firstReservation, err := core.PlaceReservation(uuid.New(), book, &first, 0, fakeClock)
	require.NoError(t, err, "error in arranging test data")
	staleReservation, err := core.PlaceReservation(uuid.New(), book, &second, 0, fakeClock)
	require.NoError(t, err, "error in arranging test data")

	// act
	firstErr := engine.CommitReservation(ctx, firstReservation, 0)
	staleErr := engine.CommitReservation(ctx, staleReservation, 0)

	// assert
	assert.NoError(t, firstErr)
	assert.ErrorIs(t, staleErr, store.ErrConcurrencyConflict)

	pending, err := engine.CountPendingReservations(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	cancelled, err := core.CancelReservation(firstReservation)
	require.NoError(t, err)
	require.NoError(t, engine.CommitReservationCancel(ctx, cancelled))
	assert.ErrorIs(t, engine.CommitReservationCancel(ctx, cancelled), store.ErrConcurrencyConflict)
}

func Test_LoadDashboardStats_MatchesTheInMemoryAggregation(t *testing.T) {
	// setup
	ctx := testContext(t)
	engine := postgreswrapper.CreateWrapper(t).Engine()

	// arrange
	book := givenBook(t, ctx, engine, 3)
	reader := givenReader(t, ctx, engine, core.TierStudent)
	loan, lentBook := givenBorrowed(t, ctx, engine, book, reader)
	fine, err := core.IssueManualFine(uuid.New(), reader.ID, decimal.RequireFromString("4.75"), "Late fee", fakeClock)
	require.NoError(t, err, "error in arranging test data")
	require.NoError(t, engine.InsertFine(ctx, fine), "error in arranging test data")
	now := loan.DueDate.Add(time.Hour)

	expected := core.BuildDashboardStats(
		[]core.Book{lentBook}, []core.Reader{reader}, []core.Loan{loan}, []core.Fine{fine}, nil, now,
	)

	// act
	stats, err := engine.LoadDashboardStats(ctx, now)

	// assert
	require.NoError(t, err)
	assert.Equal(t, expected.TotalBooks, stats.TotalBooks)
	assert.Equal(t, expected.ActiveReaders, stats.ActiveReaders)
	assert.Equal(t, expected.BorrowedBooks, stats.BorrowedBooks)
	assert.Equal(t, 1, stats.OverdueBooks)
	assert.Equal(t, expected.OverdueBooks, stats.OverdueBooks)
	assert.True(t, expected.OutstandingFines.Equal(stats.OutstandingFines))
	assert.Equal(t, expected.PendingReservations, stats.PendingReservations)
}

func Test_ImportSnapshot_IsRepeatable(t *testing.T) {
	// setup
	ctx := testContext(t)
	logSpy := testdoubles.NewLogHandlerSpy(false)
	engine := postgreswrapper.CreateWrapper(t, postgresengine.WithContextualLogger(slog.New(logSpy))).Engine()

	// arrange
	book, err := core.BuildBook(uuid.New(), "1", "Dune", "Herbert", "", core.BookTags{}, "D-1", 1)
	require.NoError(t, err, "error in arranging test data")
	reader, err := core.RegisterReader(uuid.New(), "RD-IMPORT", "", "Dee", "", "", core.TierStaff, fakeClock)
	require.NoError(t, err, "error in arranging test data")
	returnDate := fakeClock.AddDate(0, 0, 10)
	loan := core.Loan{
		ID:         uuid.New(),
		BookID:     book.ID,
		ReaderID:   reader.ID,
		BorrowDate: fakeClock,
		DueDate:    fakeClock.AddDate(0, 0, 30),
		ReturnDate: &returnDate,
		Status:     core.LoanReturned,
	}
	snapshot := store.Snapshot{Books: []core.Book{book}, Readers: []core.Reader{reader}, Loans: []core.Loan{loan}}

	// act
	first, firstErr := engine.ImportSnapshot(ctx, snapshot)
	second, secondErr := engine.ImportSnapshot(ctx, snapshot)

	// assert
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	assert.Equal(t, store.ImportResult{Inserted: 3}, first)
	assert.Equal(t, store.ImportResult{Skipped: 3}, second)
	assert.True(t, logSpy.HasLogWithAttr(slog.LevelInfo, "store operation: import snapshot", "inserted"))

	storedLoan, err := engine.FindLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, loan, storedLoan)
}

func Test_CommitReservationCancel_ReleasesTheQueueSlotOnce(t *testing.T) {
	// setup
	ctx := testContext(t)
	engine := postgreswrapper.CreateWrapper(t).Engine()

	// arrange
	book := givenBook(t, ctx, engine, 1)
	reader := givenReader(t, ctx, engine, core.TierStudent)
	reservation, err := core.PlaceReservation(uuid.New(), book, &reader, 0, fakeClock)
	require.NoError(t, err, "error in arranging test data")
	require.NoError(t, engine.CommitReservation(ctx, reservation, 0), "error in arranging test data")
	cancelled, err := core.CancelReservation(reservation)
	require.NoError(t, err, "error in arranging test data")

	// act
	firstErr := engine.CommitReservationCancel(ctx, cancelled)
	secondErr := engine.CommitReservationCancel(ctx, cancelled)

	// assert
	require.NoError(t, firstErr)
	assert.ErrorIs(t, secondErr, store.ErrConcurrencyConflict)

	stored, err := engine.FindReservation(ctx, reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, core.ReservationCancelled, stored.Status)

	pending, err := engine.CountPendingReservations(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pending)
}

func Test_ListLoans_AppliesTheFilter(t *testing.T) {
	// setup
	ctx := testContext(t)
	engine := postgreswrapper.CreateWrapper(t).Engine()

	// arrange
	firstBook := givenBook(t, ctx, engine, 1)
	secondBook := givenBook(t, ctx, engine, 1)
	reader := givenReader(t, ctx, engine, core.TierTeacher)
	other := givenReader(t, ctx, engine, core.TierStudent)
	activeLoan, _ := givenBorrowed(t, ctx, engine, firstBook, reader)
	returnedLoan, lentBook := givenBorrowed(t, ctx, engine, secondBook, reader)
	outcome, err := core.RequestReturn(returnedLoan, uuid.New(), returnedLoan.BorrowDate.AddDate(0, 0, 1), core.DefaultFineSchedule())
	require.NoError(t, err, "error in arranging test data")
	returnedBook, err := lentBook.WithCopiesDelta(outcome.CopiesDelta)
	require.NoError(t, err, "error in arranging test data")
	require.NoError(t, engine.CommitReturn(ctx, outcome.Loan, returnedBook, lentBook.AvailableCopies, outcome.Fine), "error in arranging test data")
	otherLoan, _ := givenBorrowed(t, ctx, engine, returnedBook, other)

	testCases := []struct {
		description string
		filter      store.LoanFilter
		expected    []uuid.UUID
	}{
		{description: "no filter", filter: store.LoanFilter{}, expected: []uuid.UUID{activeLoan.ID, returnedLoan.ID, otherLoan.ID}},
		{description: "by reader", filter: store.LoanFilter{ReaderID: reader.ID}, expected: []uuid.UUID{activeLoan.ID, returnedLoan.ID}},
		{description: "by book", filter: store.LoanFilter{BookID: secondBook.ID}, expected: []uuid.UUID{returnedLoan.ID, otherLoan.ID}},
		{description: "by status", filter: store.LoanFilter{Status: core.LoanReturned}, expected: []uuid.UUID{returnedLoan.ID}},
		{description: "reader and status", filter: store.LoanFilter{ReaderID: reader.ID, Status: core.LoanActive}, expected: []uuid.UUID{activeLoan.ID}},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			// act
			loans, err := engine.ListLoans(ctx, tc.filter)

			// assert
			require.NoError(t, err)
			ids := make([]uuid.UUID, 0, len(loans))
			for _, loan := range loans {
				ids = append(ids, loan.ID)
			}
			assert.ElementsMatch(t, tc.expected, ids)
		})
	}
}

func Test_ListFines_AppliesTheFilter(t *testing.T) {
	// setup
	ctx := testContext(t)
	engine := postgreswrapper.CreateWrapper(t).Engine()

	// arrange
	reader := givenReader(t, ctx, engine, core.TierStudent)
	other := givenReader(t, ctx, engine, core.TierStaff)
	givenFine := func(readerID uuid.UUID, amount string) core.Fine {
		fine, err := core.IssueManualFine(uuid.New(), readerID, decimal.RequireFromString(amount), "Damaged cover", fakeClock)
		require.NoError(t, err, "error in arranging test data")
		require.NoError(t, engine.InsertFine(ctx, fine), "error in arranging test data")

		return fine
	}
	unpaid := givenFine(reader.ID, "2.00")
	paid := givenFine(reader.ID, "3.00")
	otherUnpaid := givenFine(other.ID, "4.00")
	paidFine, err := core.MarkPaid(paid, fakeClock.Add(time.Hour))
	require.NoError(t, err, "error in arranging test data")
	require.NoError(t, engine.CommitFinePayment(ctx, paidFine), "error in arranging test data")

	testCases := []struct {
		description string
		filter      store.FineFilter
		expected    []uuid.UUID
	}{
		{description: "no filter", filter: store.FineFilter{}, expected: []uuid.UUID{unpaid.ID, paid.ID, otherUnpaid.ID}},
		{description: "by reader", filter: store.FineFilter{ReaderID: reader.ID}, expected: []uuid.UUID{unpaid.ID, paid.ID}},
		{description: "by status", filter: store.FineFilter{Status: core.FineUnpaid}, expected: []uuid.UUID{unpaid.ID, otherUnpaid.ID}},
		{description: "reader and status", filter: store.FineFilter{ReaderID: reader.ID, Status: core.FinePaid}, expected: []uuid.UUID{paid.ID}},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			// act
			fines, err := engine.ListFines(ctx, tc.filter)

			// assert
			require.NoError(t, err)
			ids := make([]uuid.UUID, 0, len(fines))
			for _, fine := range fines {
				ids = append(ids, fine.ID)
			}
			assert.ElementsMatch(t, tc.expected, ids)
		})
	}
}

func Test_CommitBookUpdate_GuardsTheAvailableCopies(t *testing.T) {
	// setup
	ctx := testContext(t)
	engine := postgreswrapper.CreateWrapper(t).Engine()

	// arrange
	book := givenBook(t, ctx, engine, 1)
	revised, err := core.ReviseBook(book, book.ISBN, "The C Programming Language, 2nd Edition", book.Author,
		book.Publisher, book.Tags, "C-2", 3)
	require.NoError(t, err, "error in arranging test data")
	_, lentBook := givenBorrowed(t, ctx, engine, book, givenReader(t, ctx, engine, core.TierStaff))

	// act
	staleErr := engine.CommitBookUpdate(ctx, revised, book.AvailableCopies)
	rebased, err := core.ReviseBook(lentBook, book.ISBN, revised.Title, book.Author, book.Publisher, book.Tags, "C-2", 3)
	require.NoError(t, err)
	freshErr := engine.CommitBookUpdate(ctx, rebased, lentBook.AvailableCopies)

	// assert
	assert.ErrorIs(t, staleErr, store.ErrConcurrencyConflict)
	require.NoError(t, freshErr)

	stored, err := engine.FindBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, rebased, stored)
	assert.Equal(t, 2, stored.AvailableCopies)
	assert.Equal(t, core.BookAvailable, stored.Status)
}

func Test_CommitReaderStatus_GuardsTheStatusAndFeedsTheReaderList(t *testing.T) {
	// setup
	ctx := testContext(t)
	engine := postgreswrapper.CreateWrapper(t).Engine()

	// arrange
	reader := givenReader(t, ctx, engine, core.TierStudent)
	other := givenReader(t, ctx, engine, core.TierTeacher)
	suspended, err := core.ChangeReaderStatus(reader, core.ReaderSuspended)
	require.NoError(t, err, "error in arranging test data")

	// act
	firstErr := engine.CommitReaderStatus(ctx, suspended, core.ReaderActive)
	staleErr := engine.CommitReaderStatus(ctx, suspended, core.ReaderActive)

	// assert
	require.NoError(t, firstErr)
	assert.ErrorIs(t, staleErr, store.ErrConcurrencyConflict)

	all, err := engine.ListReaders(ctx, store.ReaderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlySuspended, err := engine.ListReaders(ctx, store.ReaderFilter{Status: core.ReaderSuspended})
	require.NoError(t, err)
	require.Len(t, onlySuspended, 1)
	assert.Equal(t, reader.ID, onlySuspended[0].ID)
	assert.Equal(t, core.ReaderSuspended, onlySuspended[0].Status)

	onlyActive, err := engine.ListReaders(ctx, store.ReaderFilter{Status: core.ReaderActive})
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, other.ID, onlyActive[0].ID)
}
