package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/features/query/booklist"
	"github.com/Jehd061990/liber/features/query/finelist"
	"github.com/Jehd061990/liber/features/query/loanlist"
	"github.com/Jehd061990/liber/features/query/readerlist"
	"github.com/Jehd061990/liber/features/query/readerprofile"
)

const moneyPlaces = 2

type commandResponse struct {
	ID         uuid.UUID `json:"id"`
	Idempotent bool      `json:"idempotent"`
}

type bookView struct {
	ID              uuid.UUID `json:"id"`
	ISBN            string    `json:"isbn"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Publisher       string    `json:"publisher,omitempty"`
	Category        string    `json:"category,omitempty"`
	Genres          []string  `json:"genres,omitempty"`
	ShelfLocation   string    `json:"shelfLocation,omitempty"`
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
	Status          string    `json:"status"`
}

type bookListView struct {
	Data           []bookView `json:"data"`
	Count          int        `json:"count"`
	AvailableCount int        `json:"availableCount"`
}

type readerView struct {
	ID               uuid.UUID `json:"id"`
	ReaderID         string    `json:"readerId"`
	StudentID        string    `json:"studentId,omitempty"`
	Name             string    `json:"name"`
	Email            string    `json:"email,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	MembershipType   string    `json:"membershipType"`
	Status           string    `json:"status"`
	RegistrationDate time.Time `json:"registrationDate"`
	MaxBooks         int       `json:"maxBooks"`
	BorrowDuration   int       `json:"borrowDuration"`
	ActiveLoans      int       `json:"activeLoans"`
	RemainingLoans   int       `json:"remainingLoans"`
	OutstandingFines string    `json:"outstandingFines"`
}

type readerSummaryView struct {
	ID             uuid.UUID `json:"id"`
	ReaderID       string    `json:"readerId"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	MembershipType string    `json:"membershipType"`
	Status         string    `json:"status"`
}

type readerListView struct {
	Data           []readerSummaryView `json:"data"`
	Count          int                 `json:"count"`
	ActiveCount    int                 `json:"activeCount"`
	SuspendedCount int                 `json:"suspendedCount"`
}

type daysInfoView struct {
	Label   string `json:"label"`
	Urgency string `json:"urgency"`
}

type loanView struct {
	ID         uuid.UUID    `json:"id"`
	BookID     uuid.UUID    `json:"bookId"`
	ReaderID   uuid.UUID    `json:"readerId"`
	BorrowDate time.Time    `json:"borrowDate"`
	DueDate    time.Time    `json:"dueDate"`
	ReturnDate *time.Time   `json:"returnDate,omitempty"`
	Status     string       `json:"status"`
	FineID     *uuid.UUID   `json:"fineId,omitempty"`
	DaysInfo   daysInfoView `json:"daysInfo"`
}

type loanListView struct {
	Data         []loanView `json:"data"`
	Count        int        `json:"count"`
	OverdueCount int        `json:"overdueCount"`
}

type fineView struct {
	ID             uuid.UUID  `json:"id"`
	BorrowRecordID *uuid.UUID `json:"borrowRecordId,omitempty"`
	ReaderID       uuid.UUID  `json:"readerId"`
	Amount         string     `json:"amount"`
	Reason         string     `json:"reason"`
	Status         string     `json:"status"`
	CreatedDate    time.Time  `json:"createdDate"`
	PaidDate       *time.Time `json:"paidDate,omitempty"`
}

type fineListView struct {
	Data             []fineView `json:"data"`
	Count            int        `json:"count"`
	TotalOutstanding string     `json:"totalOutstanding"`
}

type dashboardView struct {
	TotalBooks          int    `json:"totalBooks"`
	ActiveReaders       int    `json:"activeReaders"`
	BorrowedBooks       int    `json:"borrowedBooks"`
	OverdueBooks        int    `json:"overdueBooks"`
	OutstandingFines    string `json:"outstandingFines"`
	PendingReservations int    `json:"pendingReservations"`
}

func toBookListView(result booklist.Books) bookListView {
	view := bookListView{
		Data:           make([]bookView, 0, len(result.Books)),
		Count:          result.Count,
		AvailableCount: result.AvailableCount,
	}

	for _, book := range result.Books {
		view.Data = append(view.Data, bookView{
			ID:              book.ID,
			ISBN:            book.ISBN,
			Title:           book.Title,
			Author:          book.Author,
			Publisher:       book.Publisher,
			Category:        book.Tags.Category,
			Genres:          book.Tags.Genres,
			ShelfLocation:   book.ShelfLocation,
			TotalCopies:     book.TotalCopies,
			AvailableCopies: book.AvailableCopies,
			Status:          string(book.Status),
		})
	}

	return view
}

func toReaderView(profile readerprofile.Profile) readerView {
	reader := profile.Reader

	return readerView{
		ID:               reader.ID,
		ReaderID:         reader.ReaderCode,
		StudentID:        reader.StudentCode,
		Name:             reader.Name,
		Email:            reader.Email,
		Phone:            reader.Phone,
		MembershipType:   string(reader.Tier),
		Status:           string(reader.Status),
		RegistrationDate: reader.RegisteredAt,
		MaxBooks:         reader.MaxBooks,
		BorrowDuration:   reader.BorrowDurationDays,
		ActiveLoans:      profile.ActiveLoans,
		RemainingLoans:   profile.RemainingLoans,
		OutstandingFines: profile.OutstandingFines.StringFixed(moneyPlaces),
	}
}

func toReaderListView(result readerlist.Readers) readerListView {
	view := readerListView{
		Data:           make([]readerSummaryView, 0, len(result.Readers)),
		Count:          result.Count,
		ActiveCount:    result.ActiveCount,
		SuspendedCount: result.SuspendedCount,
	}

	for _, reader := range result.Readers {
		view.Data = append(view.Data, readerSummaryView{
			ID:             reader.ID,
			ReaderID:       reader.ReaderCode,
			Name:           reader.Name,
			Email:          reader.Email,
			MembershipType: string(reader.Tier),
			Status:         string(reader.Status),
		})
	}

	return view
}

func toLoanListView(result loanlist.Loans) loanListView {
	view := loanListView{
		Data:         make([]loanView, 0, len(result.Loans)),
		Count:        result.Count,
		OverdueCount: result.OverdueCount,
	}

	for _, item := range result.Loans {
		view.Data = append(view.Data, loanView{
			ID:         item.Loan.ID,
			BookID:     item.Loan.BookID,
			ReaderID:   item.Loan.ReaderID,
			BorrowDate: item.Loan.BorrowDate,
			DueDate:    item.Loan.DueDate,
			ReturnDate: item.Loan.ReturnDate,
			Status:     string(item.Status),
			FineID:     item.Loan.FineID,
			DaysInfo:   daysInfoView{Label: item.DaysInfo.Label, Urgency: string(item.DaysInfo.Urgency)},
		})
	}

	return view
}

func toFineListView(result finelist.Fines) fineListView {
	view := fineListView{
		Data:             make([]fineView, 0, len(result.Fines)),
		Count:            result.Count,
		TotalOutstanding: result.TotalOutstanding.StringFixed(moneyPlaces),
	}

	for _, fine := range result.Fines {
		view.Data = append(view.Data, fineView{
			ID:             fine.ID,
			BorrowRecordID: fine.LoanID,
			ReaderID:       fine.ReaderID,
			Amount:         fine.Amount.StringFixed(moneyPlaces),
			Reason:         fine.Reason,
			Status:         string(fine.Status),
			CreatedDate:    fine.CreatedDate,
			PaidDate:       fine.PaidDate,
		})
	}

	return view
}

func toDashboardView(stats core.DashboardStats) dashboardView {
	return dashboardView{
		TotalBooks:          stats.TotalBooks,
		ActiveReaders:       stats.ActiveReaders,
		BorrowedBooks:       stats.BorrowedBooks,
		OverdueBooks:        stats.OverdueBooks,
		OutstandingFines:    stats.OutstandingFines.StringFixed(moneyPlaces),
		PendingReservations: stats.PendingReservations,
	}
}
