package returnbook

import (
	"time"

	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
)

const (
	commandType = "ReturnBook"
)

// Command represents the intent to return the copy of an active loan.
type Command struct {
	LoanID     uuid.UUID
	OccurredAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		LoanID:     loanID,
		OccurredAt: core.ToRecordedAt(occurredAt),
	}
}
