package lendbook

import (
	"time"

	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
)

const (
	commandType = "LendBook"
)

// Command represents the intent to lend a copy of a book to a reader.
// A Nil ReaderID means no reader was selected.
type Command struct {
	LoanID     uuid.UUID
	BookID     uuid.UUID
	ReaderID   uuid.UUID
	OccurredAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, bookID uuid.UUID, readerID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		LoanID:     loanID,
		BookID:     bookID,
		ReaderID:   readerID,
		OccurredAt: core.ToRecordedAt(occurredAt),
	}
}
