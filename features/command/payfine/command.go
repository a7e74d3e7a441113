package payfine

import (
	"time"

	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
)

const (
	commandType = "PayFine"
)

// Command represents the intent to settle a fine.
type Command struct {
	FineID     uuid.UUID
	OccurredAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(fineID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		FineID:     fineID,
		OccurredAt: core.ToRecordedAt(occurredAt),
	}
}
