package dashboard

import (
	"time"
)

const (
	queryType = "Dashboard"
)

// Query asks for the dashboard numbers as of Now. Now decides which active loans count as overdue.
type Query struct {
	Now time.Time
}

// BuildQuery creates a new Query.
func BuildQuery(now time.Time) Query {
	return Query{Now: now}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
