package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Jehd061990/liber/apiadapter"
	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/store"
)

// ErrMalformedBody is returned when a request body is not valid JSON for the route.
var ErrMalformedBody = errors.New("request body is not valid JSON")

const (
	KindValidation = "validation"
	KindRule       = "rule"
	KindNotFound   = "not_found"
	KindConflict   = "conflict"
	KindInternal   = "internal"
)

const internalErrorMessage = "internal error, please try again later"

const conflictMessage = "the record was changed concurrently, please try again"

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// statusFor maps an error to the HTTP status, the error kind and the message shown to the client.
// Rule violations carry the exact policy message; internal errors never leak details.
func statusFor(err error) (int, string, string) {
	var fiberErr *fiber.Error

	switch {
	case errors.Is(err, core.ErrValidation),
		errors.Is(err, ErrMalformedBody),
		errors.Is(err, apiadapter.ErrMalformedPayload):
		return fiber.StatusBadRequest, KindValidation, err.Error()
	case errors.Is(err, core.ErrRuleViolation):
		return fiber.StatusConflict, KindRule, err.Error()
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound, KindNotFound, "record not found"
	case errors.Is(err, store.ErrConcurrencyConflict):
		return fiber.StatusServiceUnavailable, KindConflict, conflictMessage
	case errors.As(err, &fiberErr):
		return fiberErr.Code, kindForStatus(fiberErr.Code), fiberErr.Message
	default:
		return fiber.StatusInternalServerError, KindInternal, internalErrorMessage
	}
}

func kindForStatus(status int) string {
	switch {
	case status == fiber.StatusNotFound:
		return KindNotFound
	case status >= fiber.StatusInternalServerError:
		return KindInternal
	default:
		return KindValidation
	}
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status, kind, message := statusFor(err)
	if kind == KindInternal {
		s.logError(c, "request failed", err)
	}

	return c.Status(status).JSON(errorBody{Error: message, Kind: kind})
}
