package loanlist

import (
	"time"

	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
)

const (
	queryType = "LoanList"
)

// Query selects loans. A Nil ReaderID matches all readers; an empty Status matches all statuses.
// Status is a display status: Active, Overdue or Returned.
type Query struct {
	ReaderID uuid.UUID
	Status   core.LoanStatus
	Now      time.Time
}

// BuildQuery creates a new Query with the provided parameters.
func BuildQuery(readerID uuid.UUID, status core.LoanStatus, now time.Time) Query {
	return Query{
		ReaderID: readerID,
		Status:   status,
		Now:      now,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
