package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReaderStatus is the membership status of a reader.
type ReaderStatus string

const (
	ReaderActive    ReaderStatus = "Active"
	ReaderSuspended ReaderStatus = "Suspended"
	ReaderInactive  ReaderStatus = "Inactive"
)

// Reader is a membership record.
// MaxBooks and BorrowDurationDays are frozen at registration; a later tier change does not alter them.
type Reader struct {
	ID                 uuid.UUID
	ReaderCode         string
	StudentCode        string
	Name               string
	Email              string
	Phone              string
	Tier               MembershipTier
	Status             ReaderStatus
	RegisteredAt       time.Time
	MaxBooks           int
	BorrowDurationDays int
}

// RegisterReader creates an Active reader whose entitlements are derived from the tier.
func RegisterReader(
	readerID uuid.UUID,
	readerCode string,
	studentCode string,
	name string,
	email string,
	phone string,
	tier MembershipTier,
	registeredAt time.Time,
) (Reader, error) {

	entitlements, err := EntitlementsFor(tier)
	if err != nil {
		return Reader{}, err
	}

	reader := Reader{
		ID:                 readerID,
		ReaderCode:         strings.TrimSpace(readerCode),
		StudentCode:        strings.TrimSpace(studentCode),
		Name:               strings.TrimSpace(name),
		Email:              strings.TrimSpace(email),
		Phone:              strings.TrimSpace(phone),
		Tier:               tier,
		Status:             ReaderActive,
		RegisteredAt:       ToRecordedAt(registeredAt),
		MaxBooks:           entitlements.MaxBooks,
		BorrowDurationDays: entitlements.BorrowDurationDays,
	}

	switch {
	case reader.ID == uuid.Nil:
		return Reader{}, &InvalidRecordError{Record: "reader", Field: "id", Reason: "must not be empty"}
	case reader.ReaderCode == "":
		return Reader{}, &InvalidRecordError{Record: "reader", Field: "readerId", Reason: "must not be empty"}
	case reader.Name == "":
		return Reader{}, &InvalidRecordError{Record: "reader", Field: "name", Reason: "must not be empty"}
	}

	return reader, nil
}

// IsActive reports whether the reader may borrow and reserve.
func (r Reader) IsActive() bool {
	return r.Status == ReaderActive
}

// SameRegistration reports whether other was registered with the same personal data and tier.
// Status and the registration time are not compared.
func (r Reader) SameRegistration(other Reader) bool {
	return r.ID == other.ID &&
		r.ReaderCode == other.ReaderCode &&
		r.StudentCode == other.StudentCode &&
		r.Name == other.Name &&
		r.Email == other.Email &&
		r.Phone == other.Phone &&
		r.Tier == other.Tier
}

// ParseReaderStatus maps user or API input like "suspended" to a ReaderStatus.
func ParseReaderStatus(raw string) (ReaderStatus, error) {
	normalized := strings.TrimSpace(raw)

	for _, status := range []ReaderStatus{ReaderActive, ReaderSuspended, ReaderInactive} {
		if strings.EqualFold(string(status), normalized) {
			return status, nil
		}
	}

	return "", &InvalidRecordError{Record: "reader", Field: "status", Reason: "must be Active, Suspended or Inactive"}
}

// ChangeReaderStatus moves a reader to status by administrative action.
// Loans the reader already holds are not affected; a Suspended or Inactive reader can still return books.
//
//	ERROR: *InvalidRecordError if status is not a known reader status
func ChangeReaderStatus(reader Reader, status ReaderStatus) (Reader, error) {
	if _, err := ParseReaderStatus(string(status)); err != nil {
		return Reader{}, err
	}

	reader.Status = status

	return reader, nil
}
