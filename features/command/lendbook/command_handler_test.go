package lendbook_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/features/command/lendbook"
	"github.com/Jehd061990/liber/shell"
	"github.com/Jehd061990/liber/store"
	"github.com/Jehd061990/liber/testutil/memstore"
)

var borrowedAt = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func fastRetries() lendbook.Option {
	return lendbook.WithRetryOptions(shell.WithBaseDelay(time.Millisecond), shell.WithJitterFactor(0))
}

func givenBook(t *testing.T, db *memstore.Store, copies int) core.Book {
	t.Helper()

	book, err := core.BuildBook(uuid.New(), "978-0000000001", "Clean Code", "Robert Martin", "", core.BookTags{}, "B-3", copies)
	require.NoError(t, err, "error in arranging test data")
	db.PutBook(book)

	return book
}

func givenReader(t *testing.T, db *memstore.Store, tier core.MembershipTier) core.Reader {
	t.Helper()

	reader, err := core.RegisterReader(uuid.New(), "R-"+uuid.NewString()[:8], "", "Dee Santos", "", "", tier, borrowedAt)
	require.NoError(t, err, "error in arranging test data")
	db.PutReader(reader)

	return reader
}

func givenActiveLoans(t *testing.T, db *memstore.Store, reader core.Reader, count int) {
	t.Helper()

	for range count {
		db.PutLoan(core.Loan{
			ID:         uuid.New(),
			BookID:     uuid.New(),
			ReaderID:   reader.ID,
			BorrowDate: borrowedAt,
			DueDate:    borrowedAt.AddDate(0, 0, reader.BorrowDurationDays),
			Status:     core.LoanActive,
		})
	}
}

func Test_LendBook_StudentLoanIsDueInFourteenDays(t *testing.T) {
	// arrange
	db := memstore.New()
	book := givenBook(t, db, 2)
	reader := givenReader(t, db, core.TierStudent)
	loanID := uuid.New()
	handler := lendbook.NewCommandHandler(db)

	// act
	result, err := handler.Handle(context.Background(), lendbook.BuildCommand(loanID, book.ID, reader.ID, borrowedAt))

	// assert
	require.NoError(t, err)
	assert.False(t, result.Idempotent)

	loan, err := db.FindLoan(context.Background(), loanID)
	require.NoError(t, err)
	assert.Equal(t, core.LoanActive, loan.Status)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), loan.DueDate)

	storedBook, err := db.FindBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, storedBook.AvailableCopies)
}

func Test_LendBook_BusinessRejections(t *testing.T) {
	testCases := []struct {
		name    string
		arrange func(t *testing.T, db *memstore.Store) lendbook.Command
		check   func(t *testing.T, err error)
	}{
		{
			name: "no reader selected",
			arrange: func(t *testing.T, db *memstore.Store) lendbook.Command {
				book := givenBook(t, db, 1)
				return lendbook.BuildCommand(uuid.New(), book.ID, uuid.Nil, borrowedAt)
			},
			check: func(t *testing.T, err error) {
				var notEligible *core.ReaderNotEligibleError
				require.ErrorAs(t, err, &notEligible)
				assert.Equal(t, "please select a reader", err.Error())
			},
		},
		{
			name: "suspended reader",
			arrange: func(t *testing.T, db *memstore.Store) lendbook.Command {
				book := givenBook(t, db, 1)
				reader := givenReader(t, db, core.TierStaff)
				reader.Status = core.ReaderSuspended
				db.PutReader(reader)
				return lendbook.BuildCommand(uuid.New(), book.ID, reader.ID, borrowedAt)
			},
			check: func(t *testing.T, err error) {
				var notEligible *core.ReaderNotEligibleError
				require.ErrorAs(t, err, &notEligible)
				assert.Equal(t, core.ReaderSuspended, notEligible.Status)
			},
		},
		{
			name: "no copy available",
			arrange: func(t *testing.T, db *memstore.Store) lendbook.Command {
				book := givenBook(t, db, 1)
				book.AvailableCopies = 0
				db.PutBook(book)
				reader := givenReader(t, db, core.TierStudent)
				return lendbook.BuildCommand(uuid.New(), book.ID, reader.ID, borrowedAt)
			},
			check: func(t *testing.T, err error) {
				assert.EqualError(t, err, "selected book is not available")
			},
		},
		{
			name: "student already holds three loans",
			arrange: func(t *testing.T, db *memstore.Store) lendbook.Command {
				book := givenBook(t, db, 1)
				reader := givenReader(t, db, core.TierStudent)
				givenActiveLoans(t, db, reader, 3)
				return lendbook.BuildCommand(uuid.New(), book.ID, reader.ID, borrowedAt)
			},
			check: func(t *testing.T, err error) {
				var limitExceeded *core.BorrowLimitExceededError
				require.ErrorAs(t, err, &limitExceeded)
				assert.Equal(t, 3, limitExceeded.Limit)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			db := memstore.New()
			command := tc.arrange(t, db)
			handler := lendbook.NewCommandHandler(db)

			// act
			result, err := handler.Handle(context.Background(), command)

			// assert
			assert.ErrorIs(t, err, core.ErrRuleViolation)
			assert.Equal(t, 1, result.RetryAttempts, "rejections must not be retried")
			tc.check(t, err)

			_, findErr := db.FindLoan(context.Background(), command.LoanID)
			assert.ErrorIs(t, findErr, store.ErrNotFound)
		})
	}
}

func Test_LendBook_ReplayIsIdempotent(t *testing.T) {
	// arrange
	db := memstore.New()
	book := givenBook(t, db, 2)
	reader := givenReader(t, db, core.TierTeacher)
	command := lendbook.BuildCommand(uuid.New(), book.ID, reader.ID, borrowedAt)
	handler := lendbook.NewCommandHandler(db)
	_, err := handler.Handle(context.Background(), command)
	require.NoError(t, err)

	// act
	result, err := handler.Handle(context.Background(), command)

	// assert
	require.NoError(t, err)
	assert.True(t, result.Idempotent)

	storedBook, err := db.FindBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, storedBook.AvailableCopies, "a replay must not take a second copy")
}

func Test_LendBook_LoanIDOfAnotherLoanIsRejected(t *testing.T) {
	// arrange
	db := memstore.New()
	book := givenBook(t, db, 2)
	reader := givenReader(t, db, core.TierTeacher)
	otherReader := givenReader(t, db, core.TierTeacher)
	loanID := uuid.New()
	handler := lendbook.NewCommandHandler(db)
	_, err := handler.Handle(context.Background(), lendbook.BuildCommand(loanID, book.ID, reader.ID, borrowedAt))
	require.NoError(t, err)

	// act
	_, err = handler.Handle(context.Background(), lendbook.BuildCommand(loanID, book.ID, otherReader.ID, borrowedAt))

	// assert
	var invalidRecord *core.InvalidRecordError
	require.ErrorAs(t, err, &invalidRecord)
	assert.Equal(t, "loan", invalidRecord.Record)
}

func Test_LendBook_UnknownBookIsNotFound(t *testing.T) {
	// arrange
	db := memstore.New()
	reader := givenReader(t, db, core.TierStudent)
	handler := lendbook.NewCommandHandler(db)

	// act
	_, err := handler.Handle(context.Background(), lendbook.BuildCommand(uuid.New(), uuid.New(), reader.ID, borrowedAt))

	// assert
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func Test_LendBook_RetriesAfterConcurrentBorrow(t *testing.T) {
	// arrange
	db := memstore.New()
	book := givenBook(t, db, 2)
	reader := givenReader(t, db, core.TierStudent)
	concurrentReader := givenReader(t, db, core.TierStudent)
	db.BeforeCommit = func(s *memstore.Store) {
		taken := book
		taken.AvailableCopies = 1
		s.PutBook(taken)
		s.PutLoan(core.Loan{ID: uuid.New(), BookID: book.ID, ReaderID: concurrentReader.ID, Status: core.LoanActive})
	}
	handler := lendbook.NewCommandHandler(db, fastRetries())

	// act
	result, err := handler.Handle(context.Background(), lendbook.BuildCommand(uuid.New(), book.ID, reader.ID, borrowedAt))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.RetryAttempts)

	storedBook, err := db.FindBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, storedBook.AvailableCopies)
}

func Test_LendBook_LastCopyTakenConcurrently(t *testing.T) {
	// arrange
	db := memstore.New()
	book := givenBook(t, db, 1)
	reader := givenReader(t, db, core.TierStudent)
	db.BeforeCommit = func(s *memstore.Store) {
		taken := book
		taken.AvailableCopies = 0
		s.PutBook(taken)
	}
	handler := lendbook.NewCommandHandler(db, fastRetries())

	// act
	result, err := handler.Handle(context.Background(), lendbook.BuildCommand(uuid.New(), book.ID, reader.ID, borrowedAt))

	// assert
	var unavailable *core.BookUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 2, result.RetryAttempts)
}

func Test_LendBook_LastCopyMarksBookBorrowed(t *testing.T) {
	// arrange
	db := memstore.New()
	book := givenBook(t, db, 1)
	reader := givenReader(t, db, core.TierStudent)
	handler := lendbook.NewCommandHandler(db)

	// act
	_, err := handler.Handle(context.Background(), lendbook.BuildCommand(uuid.New(), book.ID, reader.ID, borrowedAt))

	// assert
	require.NoError(t, err)

	storedBook, err := db.FindBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, storedBook.AvailableCopies)
	assert.Equal(t, core.BookBorrowed, storedBook.Status)
}
