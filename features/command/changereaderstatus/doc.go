// Package changereaderstatus implements the administrative status change of a reader.
// Suspended and Inactive readers can no longer borrow or reserve; their open loans are not touched.
package changereaderstatus
