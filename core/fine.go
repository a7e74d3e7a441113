package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FineStatus is the payment state of a fine. Paid is terminal.
type FineStatus string

const (
	FineUnpaid FineStatus = "Unpaid"
	FinePaid   FineStatus = "Paid"
)

const currencyPlaces = 2

// Fine is a monetary penalty. LoanID is nil for fines a librarian issued by hand.
type Fine struct {
	ID          uuid.UUID
	LoanID      *uuid.UUID
	ReaderID    uuid.UUID
	Amount      decimal.Decimal
	Reason      string
	Status      FineStatus
	CreatedDate time.Time
	PaidDate    *time.Time
}

// IsManual reports whether the fine was issued by a librarian rather than by an overdue return.
func (f Fine) IsManual() bool {
	return f.LoanID == nil
}

// SameCharge reports whether other charges the same reader the same amount for the same reason.
// Status and dates are not compared.
func (f Fine) SameCharge(other Fine) bool {
	sameLoan := (f.LoanID == nil && other.LoanID == nil) ||
		(f.LoanID != nil && other.LoanID != nil && *f.LoanID == *other.LoanID)

	return f.ID == other.ID &&
		sameLoan &&
		f.ReaderID == other.ReaderID &&
		f.Amount.Equal(other.Amount) &&
		f.Reason == other.Reason
}

// FineSchedule configures overdue fines.
// A zero MaxFine means overdue fines are not capped.
type FineSchedule struct {
	DailyRate decimal.Decimal
	MaxFine   decimal.Decimal
}

// DefaultFineSchedule charges 1.00 per day late without a cap.
func DefaultFineSchedule() FineSchedule {
	return FineSchedule{
		DailyRate: decimal.NewFromInt(1),
		MaxFine:   decimal.Zero,
	}
}

// ComputeOverdueFine returns daysLate * dailyRate rounded to currency precision.
func ComputeOverdueFine(daysLate int, dailyRate decimal.Decimal) decimal.Decimal {
	if daysLate <= 0 {
		return decimal.Zero
	}

	return decimal.NewFromInt(int64(daysLate)).Mul(dailyRate).Round(currencyPlaces)
}

// assessOverdueFine builds the fine for a late return. The caller guarantees daysLate > 0.
func assessOverdueFine(fineID uuid.UUID, loan Loan, daysLate int, asOf time.Time, schedule FineSchedule) Fine {
	amount := ComputeOverdueFine(daysLate, schedule.DailyRate)
	if schedule.MaxFine.IsPositive() && amount.GreaterThan(schedule.MaxFine) {
		amount = schedule.MaxFine.Round(currencyPlaces)
	}

	loanID := loan.ID

	return Fine{
		ID:          fineID,
		LoanID:      &loanID,
		ReaderID:    loan.ReaderID,
		Amount:      amount,
		Reason:      fmt.Sprintf("Overdue by %d days", daysLate),
		Status:      FineUnpaid,
		CreatedDate: ToRecordedAt(asOf),
	}
}

// IssueManualFine creates an Unpaid fine that is not linked to a loan.
//
//	ERROR: *InvalidAmountError if amount <= 0
//	ERROR: *MissingReasonError if reason is blank
func IssueManualFine(
	fineID uuid.UUID,
	readerID uuid.UUID,
	amount decimal.Decimal,
	reason string,
	asOf time.Time,
) (Fine, error) {

	if !amount.IsPositive() {
		return Fine{}, &InvalidAmountError{Amount: amount}
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Fine{}, &MissingReasonError{}
	}

	return Fine{
		ID:          fineID,
		ReaderID:    readerID,
		Amount:      amount.Round(currencyPlaces),
		Reason:      reason,
		Status:      FineUnpaid,
		CreatedDate: ToRecordedAt(asOf),
	}, nil
}

// MarkPaid settles an Unpaid fine. Paying twice is an error, not a silent no-op.
func MarkPaid(fine Fine, asOf time.Time) (Fine, error) {
	if fine.Status == FinePaid {
		paidAt := time.Time{}
		if fine.PaidDate != nil {
			paidAt = *fine.PaidDate
		}

		return Fine{}, &FineAlreadyPaidError{FineID: fine.ID, PaidAt: paidAt}
	}

	paidDate := ToRecordedAt(asOf)
	fine.Status = FinePaid
	fine.PaidDate = &paidDate

	return fine, nil
}

// TotalOutstanding sums the amounts of all Unpaid fines.
func TotalOutstanding(fines []Fine) decimal.Decimal {
	total := decimal.Zero

	for _, fine := range fines {
		if fine.Status == FineUnpaid {
			total = total.Add(fine.Amount)
		}
	}

	return total
}
