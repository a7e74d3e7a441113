package store

import (
	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
)

// LoanFilter selects loans. Zero values match everything.
// Status matches the stored status, which is Active or Returned; Overdue is derived by the reader of the result.
type LoanFilter struct {
	ReaderID uuid.UUID
	BookID   uuid.UUID
	Status   core.LoanStatus
}

// FineFilter selects fines. Zero values match everything.
type FineFilter struct {
	ReaderID uuid.UUID
	Status   core.FineStatus
}

// ReaderFilter selects readers. A zero Status matches every reader.
type ReaderFilter struct {
	Status core.ReaderStatus
}
