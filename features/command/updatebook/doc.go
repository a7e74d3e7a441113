// Package updatebook implements the Update Book use case. Copies on loan stay on loan: the new total
// must cover them and the available copies follow from it.
package updatebook
