package apiadapter

import (
	"errors"
	"fmt"

	"github.com/Jehd061990/liber/core"
)

var (
	// ErrMissingField matches every *MissingFieldError.
	ErrMissingField = errors.New("missing required field")

	// ErrMalformedPayload is returned when a payload is not the expected JSON shape.
	ErrMalformedPayload = errors.New("malformed payload")
)

// MissingFieldError names the record and the field that was absent from a payload.
// It also matches core.ErrValidation.
type MissingFieldError struct {
	Record string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %q", e.Record, e.Field)
}

// Is reports whether target is ErrMissingField or core.ErrValidation.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField || target == core.ErrValidation
}
