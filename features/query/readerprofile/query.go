package readerprofile

import (
	"github.com/google/uuid"
)

const (
	queryType = "ReaderProfile"
)

// Query selects one reader.
type Query struct {
	ReaderID uuid.UUID
}

// BuildQuery creates a new Query with the provided parameters.
func BuildQuery(readerID uuid.UUID) Query {
	return Query{ReaderID: readerID}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
