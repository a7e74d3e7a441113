package core_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Jehd061990/liber/core"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := time.Parse(time.DateOnly, value)
	require.NoError(t, err)

	return parsed
}

func givenReader(t *testing.T, tier core.MembershipTier, registeredAt time.Time) core.Reader {
	t.Helper()

	reader, err := core.RegisterReader(uuid.New(), "R-0001", "", "Ada Reader", "ada@example.org", "", tier, registeredAt)
	require.NoError(t, err)

	return reader
}

func givenBook(t *testing.T, totalCopies int) core.Book {
	t.Helper()

	book, err := core.BuildBook(
		uuid.New(),
		"978-0-13-110362-7",
		"The C Programming Language",
		"Kernighan, Ritchie",
		"Prentice Hall",
		core.BookTags{Category: "Computing", Genres: []string{"Reference"}},
		"A-12",
		totalCopies,
	)
	require.NoError(t, err)

	return book
}

func givenActiveLoan(t *testing.T, book core.Book, reader core.Reader, borrowedAt time.Time) core.Loan {
	t.Helper()

	outcome, err := core.RequestBorrow(uuid.New(), book, &reader, 0, borrowedAt)
	require.NoError(t, err)

	return outcome.Loan
}
