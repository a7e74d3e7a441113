package apiadapter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/Jehd061990/liber/core"
)

type stringList []string

// UnmarshalJSON accepts a single string or an array of strings.
func (l *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}

		if strings.TrimSpace(single) != "" {
			*l = stringList{strings.TrimSpace(single)}
		}

		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}

	*l = many

	return nil
}

type bookPayload struct {
	ID              string     `json:"id" validate:"required_without=MongoID"`
	MongoID         string     `json:"_id"`
	ISBN            string     `json:"isbn" validate:"required"`
	Title           string     `json:"title" validate:"required"`
	Author          string     `json:"author" validate:"required_without=BookAuthor"`
	BookAuthor      string     `json:"bookAuthor"`
	Publisher       string     `json:"publisher"`
	Category        string     `json:"category"`
	Genre           stringList `json:"genre"`
	ShelfLocation   string     `json:"shelfLocation"`
	TotalCopies     *int       `json:"totalCopies" validate:"required"`
	AvailableCopies *int       `json:"availableCopies" validate:"required"`
	Status          string     `json:"status"`
}

type readerPayload struct {
	ID               string `json:"id" validate:"required_without=MongoID"`
	MongoID          string `json:"_id"`
	ReaderCode       string `json:"readerId" validate:"required"`
	StudentCode      string `json:"studentId"`
	FullName         string `json:"fullName"`
	Name             string `json:"name" validate:"required_without=FullName"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	MembershipType   string `json:"membershipType" validate:"required"`
	Status           string `json:"status" validate:"required"`
	RegistrationDate string `json:"registrationDate" validate:"required"`
	MaxBooks         *int   `json:"maxBooks"`
	BorrowDuration   *int   `json:"borrowDuration"`
}

type loanPayload struct {
	ID         string `json:"id" validate:"required_without=MongoID"`
	MongoID    string `json:"_id"`
	BookID     string `json:"bookId"`
	Book       Ref    `json:"book"`
	ReaderID   string `json:"readerId"`
	Reader     Ref    `json:"reader"`
	BorrowDate string `json:"borrowDate" validate:"required"`
	DueDate    string `json:"dueDate" validate:"required"`
	ReturnDate string `json:"returnDate"`
	Status     string `json:"status" validate:"required"`
	Fine       Ref    `json:"fine"`
}

type finePayload struct {
	ID             string           `json:"id" validate:"required_without=MongoID"`
	MongoID        string           `json:"_id"`
	BorrowRecordID string           `json:"borrowRecordId"`
	ReaderID       string           `json:"readerId"`
	Reader         Ref              `json:"reader"`
	Amount         *decimal.Decimal `json:"amount" validate:"required"`
	Reason         string           `json:"reason" validate:"required"`
	Status         string           `json:"status" validate:"required"`
	CreatedDate    string           `json:"createdDate" validate:"required"`
	PaidDate       string           `json:"paidDate"`
}

type reservationPayload struct {
	ID              string `json:"id" validate:"required_without=MongoID"`
	MongoID         string `json:"_id"`
	BookID          string `json:"bookId"`
	Book            Ref    `json:"book"`
	ReaderID        string `json:"readerId"`
	Reader          Ref    `json:"reader"`
	ReservationDate string `json:"reservationDate" validate:"required"`
	Status          string `json:"status" validate:"required"`
	QueuePosition   int    `json:"queuePosition"`
}

func unmarshalPayload(data []byte, payload any) error {
	if err := json.Unmarshal(data, payload); err != nil {
		return errors.Join(ErrMalformedPayload, err)
	}

	return nil
}

// DecodeBook maps one legacy book payload to a validated core.Book.
// availableCopies is required since a title may have copies on loan; a payload without status derives it from availability.
func DecodeBook(data []byte) (core.Book, error) {
	var p bookPayload
	if err := unmarshalPayload(data, &p); err != nil {
		return core.Book{}, err
	}

	if err := checkRequired("book", &p); err != nil {
		return core.Book{}, err
	}

	id, err := requireID("book", "id", p.ID, p.MongoID)
	if err != nil {
		return core.Book{}, err
	}

	book := core.Book{
		ID:              id,
		ISBN:            strings.TrimSpace(p.ISBN),
		Title:           strings.TrimSpace(p.Title),
		Author:          firstNonEmpty(p.Author, p.BookAuthor),
		Publisher:       strings.TrimSpace(p.Publisher),
		Tags:            core.BookTags{Category: strings.TrimSpace(p.Category), Genres: []string(p.Genre)},
		ShelfLocation:   strings.TrimSpace(p.ShelfLocation),
		TotalCopies:     *p.TotalCopies,
		AvailableCopies: *p.AvailableCopies,
	}

	if strings.TrimSpace(p.Status) == "" {
		book.Status = book.ShelfStatus()
	} else {
		status, ok := normalizeBookStatus(p.Status)
		if !ok {
			return core.Book{}, &core.InvalidRecordError{Record: "book", Field: "status", Reason: "is not a known book status"}
		}

		book.Status = status
	}

	if err := book.Validate(); err != nil {
		return core.Book{}, err
	}

	return book, nil
}

// DecodeReader maps one legacy reader payload to a core.Reader.
// Stored maxBooks and borrowDuration are kept as frozen at registration; when absent they come from the tier.
func DecodeReader(data []byte) (core.Reader, error) {
	var p readerPayload
	if err := unmarshalPayload(data, &p); err != nil {
		return core.Reader{}, err
	}

	if err := checkRequired("reader", &p); err != nil {
		return core.Reader{}, err
	}

	id, err := requireID("reader", "id", p.ID, p.MongoID)
	if err != nil {
		return core.Reader{}, err
	}

	tier, err := core.ParseMembershipTier(p.MembershipType)
	if err != nil {
		return core.Reader{}, err
	}

	entitlements, err := core.EntitlementsFor(tier)
	if err != nil {
		return core.Reader{}, err
	}

	status, ok := normalizeReaderStatus(p.Status)
	if !ok {
		return core.Reader{}, &core.InvalidRecordError{Record: "reader", Field: "status", Reason: "is not a known reader status"}
	}

	registeredAt, err := requireTime("reader", "registrationDate", p.RegistrationDate)
	if err != nil {
		return core.Reader{}, err
	}

	reader := core.Reader{
		ID:                 id,
		ReaderCode:         strings.TrimSpace(p.ReaderCode),
		StudentCode:        strings.TrimSpace(p.StudentCode),
		Name:               firstNonEmpty(p.FullName, p.Name),
		Email:              strings.TrimSpace(p.Email),
		Phone:              strings.TrimSpace(p.Phone),
		Tier:               tier,
		Status:             status,
		RegisteredAt:       registeredAt,
		MaxBooks:           entitlements.MaxBooks,
		BorrowDurationDays: entitlements.BorrowDurationDays,
	}

	if p.MaxBooks != nil {
		if *p.MaxBooks < 1 {
			return core.Reader{}, &core.InvalidRecordError{Record: "reader", Field: "maxBooks", Reason: "must be at least 1"}
		}

		reader.MaxBooks = *p.MaxBooks
	}

	if p.BorrowDuration != nil {
		if *p.BorrowDuration < 1 {
			return core.Reader{}, &core.InvalidRecordError{Record: "reader", Field: "borrowDuration", Reason: "must be at least 1"}
		}

		reader.BorrowDurationDays = *p.BorrowDuration
	}

	return reader, nil
}

// DecodeLoan maps one legacy borrow record to a core.Loan. The book and reader may be bare ids or embedded objects.
func DecodeLoan(data []byte) (core.Loan, error) {
	var p loanPayload
	if err := unmarshalPayload(data, &p); err != nil {
		return core.Loan{}, err
	}

	if err := checkRequired("loan", &p); err != nil {
		return core.Loan{}, err
	}

	id, err := requireID("loan", "id", p.ID, p.MongoID)
	if err != nil {
		return core.Loan{}, err
	}

	bookID, err := requireID("loan", "bookId", p.Book.ID, p.BookID)
	if err != nil {
		return core.Loan{}, err
	}

	readerID, err := requireID("loan", "readerId", p.Reader.ID, p.ReaderID)
	if err != nil {
		return core.Loan{}, err
	}

	status, ok := normalizeLoanStatus(p.Status)
	if !ok {
		return core.Loan{}, &core.InvalidRecordError{Record: "loan", Field: "status", Reason: "is not a known loan status"}
	}

	borrowDate, err := requireTime("loan", "borrowDate", p.BorrowDate)
	if err != nil {
		return core.Loan{}, err
	}

	dueDate, err := requireTime("loan", "dueDate", p.DueDate)
	if err != nil {
		return core.Loan{}, err
	}

	returnDate, err := optionalTime("loan", "returnDate", p.ReturnDate)
	if err != nil {
		return core.Loan{}, err
	}

	if status == core.LoanReturned && returnDate == nil {
		return core.Loan{}, &MissingFieldError{Record: "loan", Field: "returnDate"}
	}

	return core.Loan{
		ID:         id,
		BookID:     bookID,
		ReaderID:   readerID,
		BorrowDate: borrowDate,
		DueDate:    dueDate,
		ReturnDate: returnDate,
		Status:     status,
		FineID:     optionalID(p.Fine.ID),
	}, nil
}

// DecodeFine maps one legacy fine to a core.Fine. The amount may be a JSON number or a numeric string.
func DecodeFine(data []byte) (core.Fine, error) {
	var p finePayload
	if err := unmarshalPayload(data, &p); err != nil {
		return core.Fine{}, err
	}

	if err := checkRequired("fine", &p); err != nil {
		return core.Fine{}, err
	}

	id, err := requireID("fine", "id", p.ID, p.MongoID)
	if err != nil {
		return core.Fine{}, err
	}

	readerID, err := requireID("fine", "readerId", p.Reader.ID, p.ReaderID)
	if err != nil {
		return core.Fine{}, err
	}

	if !p.Amount.IsPositive() {
		return core.Fine{}, &core.InvalidAmountError{Amount: *p.Amount}
	}

	status, ok := normalizeFineStatus(p.Status)
	if !ok {
		return core.Fine{}, &core.InvalidRecordError{Record: "fine", Field: "status", Reason: "must be Paid or Unpaid"}
	}

	createdDate, err := requireTime("fine", "createdDate", p.CreatedDate)
	if err != nil {
		return core.Fine{}, err
	}

	paidDate, err := optionalTime("fine", "paidDate", p.PaidDate)
	if err != nil {
		return core.Fine{}, err
	}

	if status == core.FinePaid && paidDate == nil {
		return core.Fine{}, &MissingFieldError{Record: "fine", Field: "paidDate"}
	}

	return core.Fine{
		ID:          id,
		LoanID:      optionalID(p.BorrowRecordID),
		ReaderID:    readerID,
		Amount:      p.Amount.Round(2),
		Reason:      strings.TrimSpace(p.Reason),
		Status:      status,
		CreatedDate: createdDate,
		PaidDate:    paidDate,
	}, nil
}

// DecodeReservation maps one legacy reservation to a core.Reservation.
func DecodeReservation(data []byte) (core.Reservation, error) {
	var p reservationPayload
	if err := unmarshalPayload(data, &p); err != nil {
		return core.Reservation{}, err
	}

	if err := checkRequired("reservation", &p); err != nil {
		return core.Reservation{}, err
	}

	id, err := requireID("reservation", "id", p.ID, p.MongoID)
	if err != nil {
		return core.Reservation{}, err
	}

	bookID, err := requireID("reservation", "bookId", p.Book.ID, p.BookID)
	if err != nil {
		return core.Reservation{}, err
	}

	readerID, err := requireID("reservation", "readerId", p.Reader.ID, p.ReaderID)
	if err != nil {
		return core.Reservation{}, err
	}

	status, ok := normalizeReservationStatus(p.Status)
	if !ok {
		return core.Reservation{}, &core.InvalidRecordError{Record: "reservation", Field: "status", Reason: "is not a known reservation status"}
	}

	reservedAt, err := requireTime("reservation", "reservationDate", p.ReservationDate)
	if err != nil {
		return core.Reservation{}, err
	}

	return core.Reservation{
		ID:            id,
		BookID:        bookID,
		ReaderID:      readerID,
		ReservedAt:    reservedAt,
		Status:        status,
		QueuePosition: p.QueuePosition,
	}, nil
}

// DecodeList splits a list payload into its items. Both a bare array and {"data": [...]} are accepted.
func DecodeList(data []byte) ([]jsoniter.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrMalformedPayload
	}

	if trimmed[0] == '{' {
		var envelope struct {
			Data []jsoniter.RawMessage `json:"data"`
		}

		if err := unmarshalPayload(trimmed, &envelope); err != nil {
			return nil, err
		}

		if envelope.Data == nil {
			return nil, &MissingFieldError{Record: "list", Field: "data"}
		}

		return envelope.Data, nil
	}

	var items []jsoniter.RawMessage
	if err := unmarshalPayload(trimmed, &items); err != nil {
		return nil, err
	}

	return items, nil
}

// DecodeAll decodes every item of a list payload with decode. The first failing item aborts with its index.
func DecodeAll[T any](data []byte, decode func([]byte) (T, error)) ([]T, error) {
	items, err := DecodeList(data)
	if err != nil {
		return nil, err
	}

	records := make([]T, 0, len(items))
	for i, item := range items {
		record, decodeErr := decode(item)
		if decodeErr != nil {
			return nil, &ItemError{Index: i, Err: decodeErr}
		}

		records = append(records, record)
	}

	return records, nil
}

// ItemError locates a failing item in a list payload.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %s", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
