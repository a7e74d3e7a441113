package issuefine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Jehd061990/liber/core"
)

const (
	commandType = "IssueFine"
)

// Command represents the intent to charge a reader a manual fine.
type Command struct {
	FineID     uuid.UUID
	ReaderID   uuid.UUID
	Amount     decimal.Decimal
	Reason     string
	OccurredAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(fineID uuid.UUID, readerID uuid.UUID, amount decimal.Decimal, reason string, occurredAt time.Time) Command {
	return Command{
		FineID:     fineID,
		ReaderID:   readerID,
		Amount:     amount,
		Reason:     reason,
		OccurredAt: core.ToRecordedAt(occurredAt),
	}
}
