// Package store defines the storage boundary of the circulation kernel.
//
// The core package decides, a store commits. Every commit that changes more than one record
// (a borrow takes a copy and creates a loan, a return gives a copy back, closes the loan and
// may create a fine) is applied atomically, and every commit is guarded by the state the
// decision was based on. When that state changed in the meantime the commit fails with
// ErrConcurrencyConflict and nothing is written; callers reload and decide again.
//
// Implementations live in sub packages, e.g. postgresengine.
package store
