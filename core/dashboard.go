package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardStats are the headline numbers of the admin console.
type DashboardStats struct {
	TotalBooks          int
	ActiveReaders       int
	BorrowedBooks       int
	OverdueBooks        int
	OutstandingFines    decimal.Decimal
	PendingReservations int
}

// BuildDashboardStats aggregates the headline numbers from full record sets.
// Storage engines that can aggregate natively are expected to produce the same numbers.
func BuildDashboardStats(
	books []Book,
	readers []Reader,
	loans []Loan,
	fines []Fine,
	reservations []Reservation,
	now time.Time,
) DashboardStats {

	stats := DashboardStats{
		TotalBooks:       len(books),
		OutstandingFines: TotalOutstanding(fines),
	}

	for _, reader := range readers {
		if reader.IsActive() {
			stats.ActiveReaders++
		}
	}

	for _, loan := range loans {
		switch LoanStatusAt(loan, now) {
		case LoanActive:
			stats.BorrowedBooks++
		case LoanOverdue:
			stats.BorrowedBooks++
			stats.OverdueBooks++
		}
	}

	for _, reservation := range reservations {
		if reservation.Status == ReservationPending {
			stats.PendingReservations++
		}
	}

	return stats
}
