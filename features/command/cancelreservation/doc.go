// Package cancelreservation implements the Cancel Reservation use case.
package cancelreservation
