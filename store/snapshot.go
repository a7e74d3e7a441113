package store

import (
	"github.com/Jehd061990/liber/core"
)

// Snapshot is a complete set of records taken over from another system, as decoded by apiadapter.
type Snapshot struct {
	Books        []core.Book
	Readers      []core.Reader
	Loans        []core.Loan
	Fines        []core.Fine
	Reservations []core.Reservation
}

// ImportResult counts the records an import wrote. Records whose id already existed are counted as skipped.
type ImportResult struct {
	Inserted int
	Skipped  int
}

// Total is the number of records the import looked at.
func (r ImportResult) Total() int {
	return r.Inserted + r.Skipped
}
