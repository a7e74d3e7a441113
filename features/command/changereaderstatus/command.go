package changereaderstatus

import (
	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
)

const (
	commandType = "ChangeReaderStatus"
)

// Command represents the intent to move a reader to another membership status.
type Command struct {
	ReaderID uuid.UUID
	Status   core.ReaderStatus
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(readerID uuid.UUID, status core.ReaderStatus) Command {
	return Command{
		ReaderID: readerID,
		Status:   status,
	}
}
