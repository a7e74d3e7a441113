package addbook_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/features/command/addbook"
	"github.com/Jehd061990/liber/testutil/memstore"
)

func Test_AddBook_AllCopiesStartAvailable(t *testing.T) {
	// arrange
	db := memstore.New()
	handler := addbook.NewCommandHandler(db)
	bookID := uuid.New()
	tags := core.BookTags{Category: "Fiction", Genres: []string{"Classic"}}

	// act
	result, err := handler.Handle(context.Background(), addbook.BuildCommand(
		bookID, "978-0141439518", "Pride and Prejudice", "Jane Austen", "Penguin", tags, "A-12", 3,
	))

	// assert
	require.NoError(t, err)
	assert.False(t, result.Idempotent)

	book, err := db.FindBook(context.Background(), bookID)
	require.NoError(t, err)
	assert.Equal(t, 3, book.TotalCopies)
	assert.Equal(t, 3, book.AvailableCopies)
	assert.Equal(t, core.BookAvailable, book.Status)
	assert.Equal(t, tags, book.Tags)
}

func Test_AddBook_SameIDTwiceIsIdempotent(t *testing.T) {
	// arrange
	db := memstore.New()
	handler := addbook.NewCommandHandler(db)
	command := addbook.BuildCommand(uuid.New(), "", "Dune", "Frank Herbert", "", core.BookTags{}, "", 1)
	_, err := handler.Handle(context.Background(), command)
	require.NoError(t, err)

	// act
	result, err := handler.Handle(context.Background(), command)

	// assert
	require.NoError(t, err)
	assert.True(t, result.Idempotent)
}

func Test_AddBook_RejectsZeroCopies(t *testing.T) {
	// arrange
	handler := addbook.NewCommandHandler(memstore.New())

	// act
	_, err := handler.Handle(context.Background(), addbook.BuildCommand(
		uuid.New(), "", "Dune", "Frank Herbert", "", core.BookTags{}, "", 0,
	))

	// assert
	var invalidRecord *core.InvalidRecordError
	require.ErrorAs(t, err, &invalidRecord)
	assert.Equal(t, "totalCopies", invalidRecord.Field)
}

func Test_AddBook_IDReuseWithDifferentPayloadIsRejected(t *testing.T) {
	// arrange
	db := memstore.New()
	handler := addbook.NewCommandHandler(db)
	bookID := uuid.New()
	_, err := handler.Handle(context.Background(), addbook.BuildCommand(
		bookID, "", "Dune", "Frank Herbert", "", core.BookTags{}, "", 1,
	))
	require.NoError(t, err, "error in arranging test data")

	// act
	_, err = handler.Handle(context.Background(), addbook.BuildCommand(
		bookID, "", "Children of Dune", "Frank Herbert", "", core.BookTags{}, "", 4,
	))

	// assert
	var invalidRecord *core.InvalidRecordError
	require.ErrorAs(t, err, &invalidRecord)
	assert.Equal(t, "id", invalidRecord.Field)

	stored, err := db.FindBook(context.Background(), bookID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", stored.Title)
	assert.Equal(t, 1, stored.TotalCopies)
}

func Test_AddBook_ReplayAfterABorrowIsStillIdempotent(t *testing.T) {
	// arrange
	db := memstore.New()
	handler := addbook.NewCommandHandler(db)
	command := addbook.BuildCommand(uuid.New(), "", "Dune", "Frank Herbert", "", core.BookTags{}, "", 2)
	_, err := handler.Handle(context.Background(), command)
	require.NoError(t, err, "error in arranging test data")
	book, err := db.FindBook(context.Background(), command.BookID)
	require.NoError(t, err, "error in arranging test data")
	lent, err := book.WithCopiesDelta(-1)
	require.NoError(t, err, "error in arranging test data")
	db.PutBook(lent)

	// act
	result, err := handler.Handle(context.Background(), command)

	// assert
	require.NoError(t, err)
	assert.True(t, result.Idempotent)
}
