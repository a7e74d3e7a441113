// Package placereservation implements the Place Reservation use case: an active reader joins the
// waiting queue of a title. The queue position is the number of pending reservations plus one.
package placereservation
