// Package readerlist implements the Reader List query with an optional status filter.
package readerlist
