// Package readerprofile implements the Reader Profile query: one reader with the current loan and fine position.
package readerprofile
