package issuefine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/features/command/issuefine"
	"github.com/Jehd061990/liber/store"
	"github.com/Jehd061990/liber/testutil/memstore"
)

var issuedAt = time.Date(2024, 2, 1, 14, 30, 0, 0, time.UTC)

func givenReader(t *testing.T, db *memstore.Store) core.Reader {
	t.Helper()

	reader, err := core.RegisterReader(uuid.New(), "R-100", "", "Eli Park", "", "", core.TierStudent, issuedAt)
	require.NoError(t, err, "error in arranging test data")
	db.PutReader(reader)

	return reader
}

func Test_IssueFine_LostBookFineIsUnpaid(t *testing.T) {
	// arrange
	db := memstore.New()
	reader := givenReader(t, db)
	fineID := uuid.New()
	handler := issuefine.NewCommandHandler(db)

	// act
	_, err := handler.Handle(context.Background(), issuefine.BuildCommand(
		fineID, reader.ID, decimal.RequireFromString("15.50"), "Lost book", issuedAt,
	))

	// assert
	require.NoError(t, err)

	fine, err := db.FindFine(context.Background(), fineID)
	require.NoError(t, err)
	assert.Equal(t, core.FineUnpaid, fine.Status)
	assert.True(t, fine.IsManual())
	assert.Equal(t, "15.50", fine.Amount.StringFixed(2))
	assert.Equal(t, "Lost book", fine.Reason)
}

func Test_IssueFine_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		amount  string
		reason  string
		message string
	}{
		{name: "zero amount", amount: "0", reason: "Lost book", message: "fine amount must be greater than 0, got 0.00"},
		{name: "negative amount", amount: "-3", reason: "Lost book", message: "fine amount must be greater than 0, got -3.00"},
		{name: "blank reason", amount: "2.00", reason: "   ", message: "please provide a reason for the fine"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			db := memstore.New()
			reader := givenReader(t, db)
			handler := issuefine.NewCommandHandler(db)

			// act
			_, err := handler.Handle(context.Background(), issuefine.BuildCommand(
				uuid.New(), reader.ID, decimal.RequireFromString(tc.amount), tc.reason, issuedAt,
			))

			// assert
			assert.ErrorIs(t, err, core.ErrValidation)
			assert.EqualError(t, err, tc.message)
		})
	}
}

func Test_IssueFine_UnknownReaderIsNotFound(t *testing.T) {
	// arrange
	handler := issuefine.NewCommandHandler(memstore.New())

	// act
	_, err := handler.Handle(context.Background(), issuefine.BuildCommand(
		uuid.New(), uuid.New(), decimal.NewFromInt(5), "Damaged cover", issuedAt,
	))

	// assert
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func Test_IssueFine_ReplayIsIdempotent(t *testing.T) {
	// arrange
	db := memstore.New()
	reader := givenReader(t, db)
	command := issuefine.BuildCommand(uuid.New(), reader.ID, decimal.NewFromInt(5), "Damaged cover", issuedAt)
	handler := issuefine.NewCommandHandler(db)
	_, err := handler.Handle(context.Background(), command)
	require.NoError(t, err)

	// act
	result, err := handler.Handle(context.Background(), command)

	// assert
	require.NoError(t, err)
	assert.True(t, result.Idempotent)
}

func Test_IssueFine_IDReuseWithDifferentPayloadIsRejected(t *testing.T) {
	testCases := []struct {
		description string
		amount      decimal.Decimal
		reason      string
	}{
		{description: "different amount", amount: decimal.NewFromInt(50), reason: "Damaged cover"},
		{description: "different reason", amount: decimal.NewFromInt(5), reason: "Lost book"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			// arrange
			db := memstore.New()
			reader := givenReader(t, db)
			fineID := uuid.New()
			handler := issuefine.NewCommandHandler(db)
			_, err := handler.Handle(context.Background(), issuefine.BuildCommand(
				fineID, reader.ID, decimal.NewFromInt(5), "Damaged cover", issuedAt,
			))
			require.NoError(t, err, "error in arranging test data")

			// act
			_, err = handler.Handle(context.Background(), issuefine.BuildCommand(fineID, reader.ID, tc.amount, tc.reason, issuedAt))

			// assert
			var invalidRecord *core.InvalidRecordError
			require.ErrorAs(t, err, &invalidRecord)
			assert.Equal(t, "id", invalidRecord.Field)

			stored, err := db.FindFine(context.Background(), fineID)
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(5).Equal(stored.Amount))
			assert.Equal(t, "Damaged cover", stored.Reason)
		})
	}
}
