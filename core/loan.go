package core

import (
	"time"

	"github.com/google/uuid"
)

// LoanStatus is the lifecycle state of a loan. Overdue is never stored, it is derived by LoanStatusAt.
type LoanStatus string

const (
	LoanActive   LoanStatus = "Active"
	LoanOverdue  LoanStatus = "Overdue"
	LoanReturned LoanStatus = "Returned"
)

// Loan is a single borrow-to-return transaction for one copy of a book.
// DueDate is fixed when the loan is issued and never recalculated.
type Loan struct {
	ID         uuid.UUID
	BookID     uuid.UUID
	ReaderID   uuid.UUID
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Status     LoanStatus
	FineID     *uuid.UUID
}

// BorrowOutcome is what a successful borrow asks the caller to persist.
// Loan creation and the copies change must be committed together.
type BorrowOutcome struct {
	Loan        Loan
	CopiesDelta int
}

// ReturnOutcome is what a successful return asks the caller to persist.
// Loan update, the copies change and the optional fine must be committed together.
type ReturnOutcome struct {
	Loan        Loan
	Fine        *Fine
	DaysLate    int
	CopiesDelta int
}

// RequestBorrow decides whether the reader may borrow a copy of the book.
//
// Business Rules (first failure wins):
//
//	GIVEN: a book, a reader and the number of loans the reader currently holds
//	WHEN:  the librarian lends the book to the reader at asOf
//	THEN:  an Active loan due asOf + reader.BorrowDurationDays is issued and one copy is taken
//	ERROR: *ReaderNotEligibleError if no reader was supplied or the reader is not Active
//	ERROR: *BookUnavailableError if the book has no available copy
//	ERROR: *BorrowLimitExceededError if the reader already holds reader.MaxBooks active loans
//
// The entitlements stored on the reader are used, not the current tier table.
func RequestBorrow(
	loanID uuid.UUID,
	book Book,
	reader *Reader,
	activeLoanCount int,
	asOf time.Time,
) (BorrowOutcome, error) {

	if reader == nil {
		return BorrowOutcome{}, &ReaderNotEligibleError{}
	}

	if !reader.IsActive() {
		return BorrowOutcome{}, &ReaderNotEligibleError{ReaderID: reader.ID, Status: reader.Status}
	}

	if book.AvailableCopies <= 0 {
		return BorrowOutcome{}, &BookUnavailableError{BookID: book.ID}
	}

	if activeLoanCount >= reader.MaxBooks {
		return BorrowOutcome{}, &BorrowLimitExceededError{ReaderID: reader.ID, Limit: reader.MaxBooks}
	}

	borrowDate := ToRecordedAt(asOf)

	loan := Loan{
		ID:         loanID,
		BookID:     book.ID,
		ReaderID:   reader.ID,
		BorrowDate: borrowDate,
		DueDate:    borrowDate.AddDate(0, 0, reader.BorrowDurationDays),
		Status:     LoanActive,
	}

	return BorrowOutcome{Loan: loan, CopiesDelta: -1}, nil
}

// RequestReturn closes an active loan at asOf.
//
// Business Rules:
//
//	GIVEN: an Active loan
//	WHEN:  the copy is returned at asOf
//	THEN:  the loan becomes Returned, one copy is given back
//	AND:   if any part of a day passed since the due date, an Unpaid overdue fine is issued
//	ERROR: *LoanNotActiveError if the loan was already returned
//
// A suspended reader can still return books; suspension only blocks new borrows.
func RequestReturn(
	loan Loan,
	fineID uuid.UUID,
	asOf time.Time,
	schedule FineSchedule,
) (ReturnOutcome, error) {

	if loan.Status != LoanActive {
		return ReturnOutcome{}, &LoanNotActiveError{LoanID: loan.ID, Status: loan.Status}
	}

	returnDate := ToRecordedAt(asOf)
	loan.ReturnDate = &returnDate
	loan.Status = LoanReturned

	outcome := ReturnOutcome{
		Loan:        loan,
		DaysLate:    max(0, daysBetween(loan.DueDate, returnDate)),
		CopiesDelta: 1,
	}

	if outcome.DaysLate > 0 {
		fine := assessOverdueFine(fineID, loan, outcome.DaysLate, returnDate, schedule)
		outcome.Fine = &fine
		outcome.Loan.FineID = &fine.ID
	}

	return outcome, nil
}

// LoanStatusAt derives the display status of a loan: Returned if a return date is set,
// Overdue if now is past the due date, otherwise Active.
func LoanStatusAt(loan Loan, now time.Time) LoanStatus {
	if loan.ReturnDate != nil {
		return LoanReturned
	}

	if now.After(loan.DueDate) {
		return LoanOverdue
	}

	return LoanActive
}
