package finelist

import (
	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
)

const (
	queryType = "FineList"
)

// Query selects fines. A Nil ReaderID matches all readers; an empty Status matches Paid and Unpaid.
type Query struct {
	ReaderID uuid.UUID
	Status   core.FineStatus
}

// BuildQuery creates a new Query with the provided parameters.
func BuildQuery(readerID uuid.UUID, status core.FineStatus) Query {
	return Query{
		ReaderID: readerID,
		Status:   status,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
