package readerprofile_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/features/query/readerprofile"
	"github.com/Jehd061990/liber/store"
	"github.com/Jehd061990/liber/testutil/memstore"
)

var registeredAt = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func Test_ReaderProfile_SummarisesLoansAndFines(t *testing.T) {
	// arrange
	db := memstore.New()
	reader, err := core.RegisterReader(uuid.New(), "RD-1", "S-1", "Ada Reader", "", "", core.TierStudent, registeredAt)
	require.NoError(t, err, "error in arranging test data")
	db.PutReader(reader)

	for range 2 {
		db.PutLoan(core.Loan{
			ID:         uuid.New(),
			BookID:     uuid.New(),
			ReaderID:   reader.ID,
			BorrowDate: registeredAt,
			DueDate:    registeredAt.AddDate(0, 0, 14),
			Status:     core.LoanActive,
		})
	}

	fine, err := core.IssueManualFine(uuid.New(), reader.ID, decimal.RequireFromString("7.25"), "Lost bookmark", registeredAt)
	require.NoError(t, err, "error in arranging test data")
	db.PutFine(fine)

	// act
	profile, err := readerprofile.NewQueryHandler(db).Handle(context.Background(), readerprofile.BuildQuery(reader.ID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, reader.ID, profile.Reader.ID)
	assert.Equal(t, 2, profile.ActiveLoans)
	assert.Equal(t, 1, profile.RemainingLoans)
	assert.Equal(t, "7.25", profile.OutstandingFines.StringFixed(2))
}

func Test_ReaderProfile_UnknownReaderIsNotFound(t *testing.T) {
	// act
	_, err := readerprofile.NewQueryHandler(memstore.New()).Handle(context.Background(), readerprofile.BuildQuery(uuid.New()))

	// assert
	assert.ErrorIs(t, err, store.ErrNotFound)
}
