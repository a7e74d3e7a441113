package registerreader

import (
	"time"

	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
)

const (
	commandType = "RegisterReader"
)

// Command represents the intent to register a new reader.
type Command struct {
	ReaderID    uuid.UUID
	ReaderCode  string
	StudentCode string
	Name        string
	Email       string
	Phone       string
	Tier        core.MembershipTier
	OccurredAt  time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	readerID uuid.UUID,
	readerCode string,
	studentCode string,
	name string,
	email string,
	phone string,
	tier core.MembershipTier,
	occurredAt time.Time,
) Command {

	return Command{
		ReaderID:    readerID,
		ReaderCode:  readerCode,
		StudentCode: studentCode,
		Name:        name,
		Email:       email,
		Phone:       phone,
		Tier:        tier,
		OccurredAt:  core.ToRecordedAt(occurredAt),
	}
}
