package updatebook

import (
	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
)

const (
	commandType = "UpdateBook"
)

// Command represents the intent to revise the catalog data of a title.
type Command struct {
	BookID        uuid.UUID
	ISBN          string
	Title         string
	Author        string
	Publisher     string
	Tags          core.BookTags
	ShelfLocation string
	TotalCopies   int
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	bookID uuid.UUID,
	isbn string,
	title string,
	author string,
	publisher string,
	tags core.BookTags,
	shelfLocation string,
	totalCopies int,
) Command {

	return Command{
		BookID:        bookID,
		ISBN:          isbn,
		Title:         title,
		Author:        author,
		Publisher:     publisher,
		Tags:          tags,
		ShelfLocation: shelfLocation,
		TotalCopies:   totalCopies,
	}
}
