// Package lendbook implements the Lend Book to Reader use case.
//
// The handler loads the book, the reader and the reader's active loan count, lets core.RequestBorrow decide,
// and commits the loan together with the copy decrement. The commit is guarded by the copy count and the
// loan count the decision was based on; when another librarian got there first the whole cycle is retried.
//
// Replaying a command with the same loan id for the same book and reader is an idempotent success.
package lendbook
