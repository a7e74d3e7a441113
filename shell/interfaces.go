package shell

import "context"

// Command is implemented by all command types. CommandType names the use case in logs and metrics.
type Command interface {
	CommandType() string
}

// CommandHandler processes one command type with the load-decide-commit workflow.
type CommandHandler[C Command] interface {
	Handle(ctx context.Context, command C) (HandlerResult, error)
}

// Query is implemented by all query types.
type Query interface {
	QueryType() string
}

// QueryHandler processes one query type and returns its read model.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
