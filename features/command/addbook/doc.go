// Package addbook implements the Add Book use case: a catalog entry is created with all copies available.
package addbook
