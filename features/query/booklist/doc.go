// Package booklist implements the Book List query over the catalog.
package booklist
