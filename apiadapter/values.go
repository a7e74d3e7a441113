package apiadapter

import (
	"bytes"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Jehd061990/liber/core"
)

// legacyNamespace roots the name-based UUIDs of non-UUID legacy ids.
var legacyNamespace = uuid.MustParse("6f1c5a8e-2d4b-4b7e-9a61-3c0f2e8d7b15")

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseID maps a legacy id to a record id. UUIDs are kept; any other id is hashed into a name-based UUID.
func ParseID(raw string) (uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, false
	}

	if id, err := uuid.Parse(raw); err == nil {
		return id, true
	}

	return uuid.NewSHA1(legacyNamespace, []byte(raw)), true
}

// Ref is a reference to another record: either a bare id string or an embedded object with id or _id.
type Ref struct {
	ID string
}

// UnmarshalJSON accepts "abc", {"id":"abc"} and {"_id":"abc"}; null leaves the reference empty.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		return json.Unmarshal(data, &r.ID)
	case data[0] == '{':
		var embedded struct {
			ID      string `json:"id"`
			MongoID string `json:"_id"`
		}

		if err := json.Unmarshal(data, &embedded); err != nil {
			return err
		}

		r.ID = firstNonEmpty(embedded.ID, embedded.MongoID)

		return nil
	default:
		return ErrMalformedPayload
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}

	return ""
}

func requireID(record, field string, candidates ...string) (uuid.UUID, error) {
	id, ok := ParseID(firstNonEmpty(candidates...))
	if !ok {
		return uuid.Nil, &MissingFieldError{Record: record, Field: field}
	}

	return id, nil
}

func optionalID(candidates ...string) *uuid.UUID {
	id, ok := ParseID(firstNonEmpty(candidates...))
	if !ok {
		return nil
	}

	return &id
}

func requireTime(record, field, raw string) (time.Time, error) {
	parsed, err := optionalTime(record, field, raw)
	if err != nil {
		return time.Time{}, err
	}

	if parsed == nil {
		return time.Time{}, &MissingFieldError{Record: record, Field: field}
	}

	return *parsed, nil
}

func optionalTime(record, field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			recordedAt := core.ToRecordedAt(parsed)
			return &recordedAt, nil
		}
	}

	return nil, &core.InvalidRecordError{Record: record, Field: field, Reason: "is not a date"}
}

// normalizeLoanStatus maps the stored loan statuses. "Borrowed" is the legacy name of Active,
// and Overdue is derived, so it is stored as Active.
func normalizeLoanStatus(raw string) (core.LoanStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active", "borrowed", "overdue":
		return core.LoanActive, true
	case "returned":
		return core.LoanReturned, true
	default:
		return "", false
	}
}

func normalizeFineStatus(raw string) (core.FineStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "unpaid":
		return core.FineUnpaid, true
	case "paid":
		return core.FinePaid, true
	default:
		return "", false
	}
}

func normalizeReaderStatus(raw string) (core.ReaderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active":
		return core.ReaderActive, true
	case "suspended":
		return core.ReaderSuspended, true
	case "inactive":
		return core.ReaderInactive, true
	default:
		return "", false
	}
}

func normalizeBookStatus(raw string) (core.BookStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "available":
		return core.BookAvailable, true
	case "borrowed":
		return core.BookBorrowed, true
	case "reserved":
		return core.BookReserved, true
	case "lost":
		return core.BookLost, true
	default:
		return "", false
	}
}

func normalizeReservationStatus(raw string) (core.ReservationStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return core.ReservationPending, true
	case "notified":
		return core.ReservationNotified, true
	case "fulfilled":
		return core.ReservationFulfilled, true
	case "cancelled", "canceled":
		return core.ReservationCancelled, true
	default:
		return "", false
	}
}

// ParseLoanStatusFilter maps a list filter value, where Overdue is kept as a display status.
func ParseLoanStatusFilter(raw string) (core.LoanStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case "active", "borrowed":
		return core.LoanActive, nil
	case "overdue":
		return core.LoanOverdue, nil
	case "returned":
		return core.LoanReturned, nil
	default:
		return "", &core.InvalidRecordError{Record: "loan filter", Field: "status", Reason: "must be active, overdue or returned"}
	}
}

// ParseFineStatusFilter maps a list filter value such as "paid" or "Unpaid".
func ParseFineStatusFilter(raw string) (core.FineStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}

	status, ok := normalizeFineStatus(raw)
	if !ok {
		return "", &core.InvalidRecordError{Record: "fine filter", Field: "status", Reason: "must be paid or unpaid"}
	}

	return status, nil
}
