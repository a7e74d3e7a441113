package httpapi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Jehd061990/liber/core"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	})

	return v
}

type createBookRequest struct {
	ID            string   `json:"id" validate:"omitempty,uuid"`
	ISBN          string   `json:"isbn" validate:"required"`
	Title         string   `json:"title" validate:"required"`
	Author        string   `json:"author" validate:"required"`
	Publisher     string   `json:"publisher"`
	Category      string   `json:"category"`
	Genres        []string `json:"genres"`
	ShelfLocation string   `json:"shelfLocation"`
	TotalCopies   int      `json:"totalCopies"`
}

func (r *createBookRequest) Normalize() {
	r.ID = strings.TrimSpace(r.ID)
	r.ISBN = strings.TrimSpace(r.ISBN)
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.Category = strings.TrimSpace(r.Category)
}

// updateBookRequest carries the full catalog entry, the id comes from the path.
type updateBookRequest struct {
	ISBN          string   `json:"isbn" validate:"required"`
	Title         string   `json:"title" validate:"required"`
	Author        string   `json:"author" validate:"required"`
	Publisher     string   `json:"publisher"`
	Category      string   `json:"category"`
	Genres        []string `json:"genres"`
	ShelfLocation string   `json:"shelfLocation"`
	TotalCopies   int      `json:"totalCopies"`
}

func (r *updateBookRequest) Normalize() {
	r.ISBN = strings.TrimSpace(r.ISBN)
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.Category = strings.TrimSpace(r.Category)
}

type registerReaderRequest struct {
	ID             string `json:"id" validate:"omitempty,uuid"`
	ReaderID       string `json:"readerId" validate:"required"`
	StudentID      string `json:"studentId"`
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"omitempty,email"`
	Phone          string `json:"phone"`
	MembershipType string `json:"membershipType" validate:"required"`
}

func (r *registerReaderRequest) Normalize() {
	r.ID = strings.TrimSpace(r.ID)
	r.ReaderID = strings.TrimSpace(r.ReaderID)
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.MembershipType = strings.TrimSpace(r.MembershipType)
}

type readerStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (r *readerStatusRequest) Normalize() {
	r.Status = strings.TrimSpace(r.Status)
}

// borrowRequest leaves readerId optional so that a missing reader gets the policy message.
type borrowRequest struct {
	ID       string `json:"id" validate:"omitempty,uuid"`
	BookID   string `json:"bookId" validate:"required,uuid"`
	ReaderID string `json:"readerId" validate:"omitempty,uuid"`
}

func (r *borrowRequest) Normalize() {
	r.ID = strings.TrimSpace(r.ID)
	r.BookID = strings.TrimSpace(r.BookID)
	r.ReaderID = strings.TrimSpace(r.ReaderID)
}

// issueFineRequest leaves amount and reason to the fine policy.
type issueFineRequest struct {
	ID       string          `json:"id" validate:"omitempty,uuid"`
	ReaderID string          `json:"readerId" validate:"required,uuid"`
	Amount   decimal.Decimal `json:"amount"`
	Reason   string          `json:"reason"`
}

func (r *issueFineRequest) Normalize() {
	r.ID = strings.TrimSpace(r.ID)
	r.ReaderID = strings.TrimSpace(r.ReaderID)
	r.Reason = strings.TrimSpace(r.Reason)
}

type reservationRequest struct {
	ID       string `json:"id" validate:"omitempty,uuid"`
	BookID   string `json:"bookId" validate:"required,uuid"`
	ReaderID string `json:"readerId" validate:"omitempty,uuid"`
}

func (r *reservationRequest) Normalize() {
	r.ID = strings.TrimSpace(r.ID)
	r.BookID = strings.TrimSpace(r.BookID)
	r.ReaderID = strings.TrimSpace(r.ReaderID)
}

type normalizer interface {
	Normalize()
}

// parseBody decodes, normalizes and validates a request body.
func parseBody(c *fiber.Ctx, record string, req normalizer) error {
	if err := c.BodyParser(req); err != nil {
		return errors.Join(ErrMalformedBody, err)
	}

	req.Normalize()

	return validateRequest(record, req)
}

func validateRequest(record string, req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.Join(ErrMalformedBody, err)
	}

	first := fieldErrs[0]

	return &core.InvalidRecordError{Record: record, Field: first.Field(), Reason: reasonFor(first)}
}

func reasonFor(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return "must be a UUID"
	case "email":
		return "must be an email address"
	default:
		return fmt.Sprintf("failed the %s check", fieldErr.Tag())
	}
}

// optionalUUID parses an already validated id; empty yields uuid.Nil.
func optionalUUID(raw string) uuid.UUID {
	if raw == "" {
		return uuid.Nil
	}

	return uuid.MustParse(raw)
}

func pathUUID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, &core.InvalidRecordError{Record: "request", Field: param, Reason: "must be a UUID"}
	}

	return id, nil
}

func queryUUID(c *fiber.Ctx, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return uuid.Nil, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &core.InvalidRecordError{Record: "filter", Field: key, Reason: "must be a UUID"}
	}

	return id, nil
}
