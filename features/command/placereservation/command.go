package placereservation

import (
	"time"

	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
)

const (
	commandType = "PlaceReservation"
)

// Command represents the intent to reserve a title for a reader.
type Command struct {
	ReservationID uuid.UUID
	BookID        uuid.UUID
	ReaderID      uuid.UUID
	OccurredAt    time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(reservationID uuid.UUID, bookID uuid.UUID, readerID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		ReservationID: reservationID,
		BookID:        bookID,
		ReaderID:      readerID,
		OccurredAt:    core.ToRecordedAt(occurredAt),
	}
}
