package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// BookStatus is the catalog status of a title.
type BookStatus string

const (
	BookAvailable BookStatus = "Available"
	BookBorrowed  BookStatus = "Borrowed"
	BookReserved  BookStatus = "Reserved"
	BookLost      BookStatus = "Lost"
)

// BookTags holds the free-form classification of a title.
type BookTags struct {
	Category string   `json:"category,omitempty"`
	Genres   []string `json:"genres,omitempty"`
}

// Book is a catalog entry. AvailableCopies only changes through borrow and return.
type Book struct {
	ID              uuid.UUID
	ISBN            string
	Title           string
	Author          string
	Publisher       string
	Tags            BookTags
	ShelfLocation   string
	TotalCopies     int
	AvailableCopies int
	Status          BookStatus
}

// BuildBook creates a new catalog entry with all copies available.
func BuildBook(
	bookID uuid.UUID,
	isbn string,
	title string,
	author string,
	publisher string,
	tags BookTags,
	shelfLocation string,
	totalCopies int,
) (Book, error) {

	book := Book{
		ID:              bookID,
		ISBN:            strings.TrimSpace(isbn),
		Title:           strings.TrimSpace(title),
		Author:          strings.TrimSpace(author),
		Publisher:       strings.TrimSpace(publisher),
		Tags:            tags,
		ShelfLocation:   strings.TrimSpace(shelfLocation),
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
		Status:          BookAvailable,
	}

	if err := book.Validate(); err != nil {
		return Book{}, err
	}

	return book, nil
}

// Validate checks the catalog invariants: 1 <= totalCopies and 0 <= availableCopies <= totalCopies.
func (b Book) Validate() error {
	switch {
	case b.ID == uuid.Nil:
		return &InvalidRecordError{Record: "book", Field: "id", Reason: "must not be empty"}
	case b.Title == "":
		return &InvalidRecordError{Record: "book", Field: "title", Reason: "must not be empty"}
	case b.TotalCopies < 1:
		return &InvalidRecordError{Record: "book", Field: "totalCopies", Reason: "must be at least 1"}
	case b.AvailableCopies < 0 || b.AvailableCopies > b.TotalCopies:
		return &InvalidRecordError{Record: "book", Field: "availableCopies", Reason: "must be between 0 and totalCopies"}
	}

	return nil
}

// ShelfStatus is the status implied by the available copies: Available while a copy is on the shelf,
// Borrowed otherwise. Lost and Reserved are set by a librarian and kept as they are.
func (b Book) ShelfStatus() BookStatus {
	switch {
	case b.Status == BookLost || b.Status == BookReserved:
		return b.Status
	case b.AvailableCopies > 0:
		return BookAvailable
	default:
		return BookBorrowed
	}
}

// WithCopiesDelta applies a borrow (-1) or return (+1) to the available copies and derives the status.
// It refuses to leave the range 0..TotalCopies, which would mean the caller lost track of a loan.
func (b Book) WithCopiesDelta(delta int) (Book, error) {
	b.AvailableCopies += delta
	if b.AvailableCopies < 0 {
		return Book{}, &BookUnavailableError{BookID: b.ID}
	}

	if b.AvailableCopies > b.TotalCopies {
		return Book{}, &InvalidRecordError{Record: "book", Field: "availableCopies", Reason: "must not exceed totalCopies"}
	}

	b.Status = b.ShelfStatus()

	return b, nil
}

// CopiesOnLoan is the number of copies currently lent out.
func (b Book) CopiesOnLoan() int {
	return b.TotalCopies - b.AvailableCopies
}

// SameCatalogEntry reports whether other describes the same title with the same copies.
// Available copies and status are not compared since borrowing changes them.
func (b Book) SameCatalogEntry(other Book) bool {
	return b.ID == other.ID &&
		b.ISBN == other.ISBN &&
		b.Title == other.Title &&
		b.Author == other.Author &&
		b.Publisher == other.Publisher &&
		b.Tags.Category == other.Tags.Category &&
		slices.Equal(b.Tags.Genres, other.Tags.Genres) &&
		b.ShelfLocation == other.ShelfLocation &&
		b.TotalCopies == other.TotalCopies
}

// ReviseBook replaces the catalog data of a title. The copies on loan stay on loan, so the new
// total must cover them and the available copies become totalCopies minus the copies on loan.
//
//	ERROR: *InvalidRecordError if the revised entry is malformed or totalCopies is below the copies on loan
func ReviseBook(
	book Book,
	isbn string,
	title string,
	author string,
	publisher string,
	tags BookTags,
	shelfLocation string,
	totalCopies int,
) (Book, error) {

	onLoan := book.CopiesOnLoan()

	revised, err := BuildBook(book.ID, isbn, title, author, publisher, tags, shelfLocation, totalCopies)
	if err != nil {
		return Book{}, err
	}

	if totalCopies < onLoan {
		return Book{}, &InvalidRecordError{
			Record: "book",
			Field:  "totalCopies",
			Reason: fmt.Sprintf("must not be below the %d copies on loan", onLoan),
		}
	}

	revised.AvailableCopies = totalCopies - onLoan
	revised.Status = book.Status
	revised.Status = revised.ShelfStatus()

	return revised, nil
}
