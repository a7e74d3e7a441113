package readerlist

import (
	"github.com/Jehd061990/liber/core"
)

const (
	queryType = "ReaderList"
)

// Query lists readers. A zero Status lists all of them.
type Query struct {
	Status core.ReaderStatus
}

// BuildQuery creates a new Query with the provided parameters.
func BuildQuery(status core.ReaderStatus) Query {
	return Query{Status: status}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
