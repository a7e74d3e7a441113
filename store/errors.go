package store

import "errors"

var (
	// ErrNotFound is returned when a record with the requested id does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConcurrencyConflict is returned when the state a commit was guarded by has changed.
	ErrConcurrencyConflict = errors.New("concurrency error, no rows were affected")

	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrBuildingQueryFailed   = errors.New("building query failed")
	ErrQueryingFailed        = errors.New("querying failed")
	ErrScanningDBRowFailed   = errors.New("scanning db row failed")
	ErrCommitFailed          = errors.New("committing failed")
	ErrEncodingFailed        = errors.New("encoding column value failed")
	ErrDecodingFailed        = errors.New("decoding column value failed")
)
