// Package issuefine implements the Issue Manual Fine use case: a librarian charges a reader
// an amount with a reason, without a loan behind it.
package issuefine
