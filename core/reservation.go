package core

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "Pending"
	ReservationNotified  ReservationStatus = "Notified"
	ReservationFulfilled ReservationStatus = "Fulfilled"
	ReservationCancelled ReservationStatus = "Cancelled"
)

// Reservation is a reader's place in the waiting queue of a title.
type Reservation struct {
	ID            uuid.UUID
	BookID        uuid.UUID
	ReaderID      uuid.UUID
	ReservedAt    time.Time
	Status        ReservationStatus
	QueuePosition int
}

// IsOpen reports whether the reservation still waits for a copy.
func (r Reservation) IsOpen() bool {
	return r.Status == ReservationPending || r.Status == ReservationNotified
}

// PlaceReservation queues the reader behind the pendingCount reservations that already exist for the book.
// QueuePosition is pendingCount + 1, so after a cancellation two pending reservations can share a position;
// the queue order is given by ReservedAt.
//
//	ERROR: *ReaderNotEligibleError if no reader was supplied or the reader is not Active
func PlaceReservation(
	reservationID uuid.UUID,
	book Book,
	reader *Reader,
	pendingCount int,
	asOf time.Time,
) (Reservation, error) {

	if reader == nil {
		return Reservation{}, &ReaderNotEligibleError{}
	}

	if !reader.IsActive() {
		return Reservation{}, &ReaderNotEligibleError{ReaderID: reader.ID, Status: reader.Status}
	}

	return Reservation{
		ID:            reservationID,
		BookID:        book.ID,
		ReaderID:      reader.ID,
		ReservedAt:    ToRecordedAt(asOf),
		Status:        ReservationPending,
		QueuePosition: pendingCount + 1,
	}, nil
}

// CancelReservation withdraws an open reservation.
//
//	ERROR: *ReservationNotOpenError if the reservation was already fulfilled or cancelled
func CancelReservation(reservation Reservation) (Reservation, error) {
	if !reservation.IsOpen() {
		return Reservation{}, &ReservationNotOpenError{ReservationID: reservation.ID, Status: reservation.Status}
	}

	reservation.Status = ReservationCancelled

	return reservation, nil
}
