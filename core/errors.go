package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrValidation is matched by all errors caused by malformed caller input.
	// The caller should re-prompt; these errors are never retried automatically.
	ErrValidation = errors.New("validation failed")

	// ErrRuleViolation is matched by all errors where the requested state transition is not permitted
	// given the current data. The message is meant to be shown to the librarian verbatim.
	ErrRuleViolation = errors.New("business rule violated")
)

// InvalidTierError is returned for a membership tier that is not in the entitlements table.
type InvalidTierError struct {
	Tier string
}

func (e *InvalidTierError) Error() string {
	return fmt.Sprintf("invalid membership tier %q", e.Tier)
}

// Is reports whether target is the validation kind sentinel.
func (e *InvalidTierError) Is(target error) bool { return target == ErrValidation }

// InvalidAmountError is returned when a fine amount is zero or negative.
type InvalidAmountError struct {
	Amount decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("fine amount must be greater than 0, got %s", e.Amount.StringFixed(2))
}

// Is reports whether target is the validation kind sentinel.
func (e *InvalidAmountError) Is(target error) bool { return target == ErrValidation }

// MissingReasonError is returned when a manual fine is issued without a reason.
type MissingReasonError struct{}

func (e *MissingReasonError) Error() string {
	return "please provide a reason for the fine"
}

// Is reports whether target is the validation kind sentinel.
func (e *MissingReasonError) Is(target error) bool { return target == ErrValidation }

// InvalidRecordError is returned when a catalog or registration record is malformed.
type InvalidRecordError struct {
	Record string
	Field  string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid %s: %s %s", e.Record, e.Field, e.Reason)
}

// Is reports whether target is the validation kind sentinel.
func (e *InvalidRecordError) Is(target error) bool { return target == ErrValidation }

// ReaderNotEligibleError is returned when no reader was supplied or the reader is not Active.
type ReaderNotEligibleError struct {
	ReaderID uuid.UUID
	Status   ReaderStatus
}

func (e *ReaderNotEligibleError) Error() string {
	if e.ReaderID == uuid.Nil {
		return "please select a reader"
	}

	return fmt.Sprintf("reader %s is not eligible: membership status is %s", e.ReaderID, e.Status)
}

// Is reports whether target is the rule violation kind sentinel.
func (e *ReaderNotEligibleError) Is(target error) bool { return target == ErrRuleViolation }

// BookUnavailableError is returned when a book has no copy left to lend.
type BookUnavailableError struct {
	BookID uuid.UUID
}

func (e *BookUnavailableError) Error() string {
	return "selected book is not available"
}

// Is reports whether target is the rule violation kind sentinel.
func (e *BookUnavailableError) Is(target error) bool { return target == ErrRuleViolation }

// BorrowLimitExceededError is returned when a reader already holds as many active loans as allowed.
// Limit carries the reader's maxBooks entitlement for user-facing messages.
type BorrowLimitExceededError struct {
	ReaderID uuid.UUID
	Limit    int
}

func (e *BorrowLimitExceededError) Error() string {
	return fmt.Sprintf("reader has reached maximum borrowing limit of %d books", e.Limit)
}

// Is reports whether target is the rule violation kind sentinel.
func (e *BorrowLimitExceededError) Is(target error) bool { return target == ErrRuleViolation }

// LoanNotActiveError is returned when a loan that is already closed is returned again.
type LoanNotActiveError struct {
	LoanID uuid.UUID
	Status LoanStatus
}

func (e *LoanNotActiveError) Error() string {
	return fmt.Sprintf("loan %s is not active: status is %s", e.LoanID, e.Status)
}

// Is reports whether target is the rule violation kind sentinel.
func (e *LoanNotActiveError) Is(target error) bool { return target == ErrRuleViolation }

// FineAlreadyPaidError is returned when a fine that is already Paid is marked paid again.
type FineAlreadyPaidError struct {
	FineID uuid.UUID
	PaidAt time.Time
}

func (e *FineAlreadyPaidError) Error() string {
	return fmt.Sprintf("fine %s was already paid on %s", e.FineID, e.PaidAt.Format(time.DateOnly))
}

// Is reports whether target is the rule violation kind sentinel.
func (e *FineAlreadyPaidError) Is(target error) bool { return target == ErrRuleViolation }

// ReservationNotOpenError is returned when a reservation that was fulfilled or cancelled is cancelled.
type ReservationNotOpenError struct {
	ReservationID uuid.UUID
	Status        ReservationStatus
}

func (e *ReservationNotOpenError) Error() string {
	return fmt.Sprintf("reservation %s can not be cancelled: status is %s", e.ReservationID, e.Status)
}

// Is reports whether target is the rule violation kind sentinel.
func (e *ReservationNotOpenError) Is(target error) bool { return target == ErrRuleViolation }
