package booklist

const (
	queryType = "BookList"
)

// Query lists the catalog. AvailableOnly drops titles without a copy on the shelf.
type Query struct {
	AvailableOnly bool
}

// BuildQuery creates a new Query with the provided parameters.
func BuildQuery(availableOnly bool) Query {
	return Query{AvailableOnly: availableOnly}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
