package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Jehd061990/liber/apiadapter"
	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/features/command/addbook"
	"github.com/Jehd061990/liber/features/command/cancelreservation"
	"github.com/Jehd061990/liber/features/command/changereaderstatus"
	"github.com/Jehd061990/liber/features/command/issuefine"
	"github.com/Jehd061990/liber/features/command/lendbook"
	"github.com/Jehd061990/liber/features/command/payfine"
	"github.com/Jehd061990/liber/features/command/placereservation"
	"github.com/Jehd061990/liber/features/command/registerreader"
	"github.com/Jehd061990/liber/features/command/returnbook"
	"github.com/Jehd061990/liber/features/command/updatebook"
	"github.com/Jehd061990/liber/features/query/booklist"
	"github.com/Jehd061990/liber/features/query/dashboard"
	"github.com/Jehd061990/liber/features/query/finelist"
	"github.com/Jehd061990/liber/features/query/loanlist"
	"github.com/Jehd061990/liber/features/query/readerlist"
	"github.com/Jehd061990/liber/features/query/readerprofile"
	"github.com/Jehd061990/liber/shell"
)

func (s *Server) listBooks(c *fiber.Ctx) error {
	availableOnly := strings.EqualFold(c.Query("available"), "true")

	result, err := s.handlers.BookList.Handle(c.UserContext(), booklist.BuildQuery(availableOnly))
	if err != nil {
		return err
	}

	return c.JSON(toBookListView(result))
}

func (s *Server) addBook(c *fiber.Ctx) error {
	var req createBookRequest
	if err := parseBody(c, "book", &req); err != nil {
		return err
	}

	bookID, err := s.idOrNew(req.ID)
	if err != nil {
		return err
	}

	command := addbook.BuildCommand(
		bookID,
		req.ISBN,
		req.Title,
		req.Author,
		req.Publisher,
		core.BookTags{Category: req.Category, Genres: req.Genres},
		req.ShelfLocation,
		req.TotalCopies,
	)

	result, err := s.handlers.AddBook.Handle(c.UserContext(), command)

	return created(c, bookID, result, err)
}

func (s *Server) updateBook(c *fiber.Ctx) error {
	bookID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req updateBookRequest
	if err = parseBody(c, "book", &req); err != nil {
		return err
	}

	command := updatebook.BuildCommand(
		bookID,
		req.ISBN,
		req.Title,
		req.Author,
		req.Publisher,
		core.BookTags{Category: req.Category, Genres: req.Genres},
		req.ShelfLocation,
		req.TotalCopies,
	)

	result, err := s.handlers.UpdateBook.Handle(c.UserContext(), command)

	return accepted(c, bookID, result, err)
}

func (s *Server) listReaders(c *fiber.Ctx) error {
	var status core.ReaderStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		parsed, err := core.ParseReaderStatus(raw)
		if err != nil {
			return err
		}

		status = parsed
	}

	result, err := s.handlers.ReaderList.Handle(c.UserContext(), readerlist.BuildQuery(status))
	if err != nil {
		return err
	}

	return c.JSON(toReaderListView(result))
}

func (s *Server) readerProfile(c *fiber.Ctx) error {
	readerID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	profile, err := s.handlers.ReaderProfile.Handle(c.UserContext(), readerprofile.BuildQuery(readerID))
	if err != nil {
		return err
	}

	return c.JSON(toReaderView(profile))
}

func (s *Server) registerReader(c *fiber.Ctx) error {
	var req registerReaderRequest
	if err := parseBody(c, "reader", &req); err != nil {
		return err
	}

	tier, err := core.ParseMembershipTier(req.MembershipType)
	if err != nil {
		return err
	}

	readerID, err := s.idOrNew(req.ID)
	if err != nil {
		return err
	}

	command := registerreader.BuildCommand(readerID, req.ReaderID, req.StudentID, req.Name, req.Email, req.Phone, tier, s.now())
	result, err := s.handlers.RegisterReader.Handle(c.UserContext(), command)

	return created(c, readerID, result, err)
}

func (s *Server) changeReaderStatus(c *fiber.Ctx) error {
	readerID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req readerStatusRequest
	if err = parseBody(c, "reader", &req); err != nil {
		return err
	}

	status, err := core.ParseReaderStatus(req.Status)
	if err != nil {
		return err
	}

	result, err := s.handlers.ChangeReaderStatus.Handle(c.UserContext(), changereaderstatus.BuildCommand(readerID, status))

	return accepted(c, readerID, result, err)
}

func (s *Server) listLoans(c *fiber.Ctx) error {
	readerID, err := queryUUID(c, "reader")
	if err != nil {
		return err
	}

	status, err := apiadapter.ParseLoanStatusFilter(c.Query("status"))
	if err != nil {
		return err
	}

	result, err := s.handlers.LoanList.Handle(c.UserContext(), loanlist.BuildQuery(readerID, status, s.now()))
	if err != nil {
		return err
	}

	return c.JSON(toLoanListView(result))
}

func (s *Server) lendBook(c *fiber.Ctx) error {
	var req borrowRequest
	if err := parseBody(c, "borrow", &req); err != nil {
		return err
	}

	loanID, err := s.idOrNew(req.ID)
	if err != nil {
		return err
	}

	command := lendbook.BuildCommand(loanID, optionalUUID(req.BookID), optionalUUID(req.ReaderID), s.now())
	result, err := s.handlers.LendBook.Handle(c.UserContext(), command)

	return created(c, loanID, result, err)
}

func (s *Server) returnBook(c *fiber.Ctx) error {
	loanID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	result, err := s.handlers.ReturnBook.Handle(c.UserContext(), returnbook.BuildCommand(loanID, s.now()))

	return accepted(c, loanID, result, err)
}

func (s *Server) listFines(c *fiber.Ctx) error {
	readerID, err := queryUUID(c, "reader")
	if err != nil {
		return err
	}

	status, err := apiadapter.ParseFineStatusFilter(c.Query("status"))
	if err != nil {
		return err
	}

	result, err := s.handlers.FineList.Handle(c.UserContext(), finelist.BuildQuery(readerID, status))
	if err != nil {
		return err
	}

	return c.JSON(toFineListView(result))
}

func (s *Server) issueFine(c *fiber.Ctx) error {
	var req issueFineRequest
	if err := parseBody(c, "fine", &req); err != nil {
		return err
	}

	fineID, err := s.idOrNew(req.ID)
	if err != nil {
		return err
	}

	command := issuefine.BuildCommand(fineID, optionalUUID(req.ReaderID), req.Amount, req.Reason, s.now())
	result, err := s.handlers.IssueFine.Handle(c.UserContext(), command)

	return created(c, fineID, result, err)
}

func (s *Server) payFine(c *fiber.Ctx) error {
	fineID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	result, err := s.handlers.PayFine.Handle(c.UserContext(), payfine.BuildCommand(fineID, s.now()))

	return accepted(c, fineID, result, err)
}

func (s *Server) placeReservation(c *fiber.Ctx) error {
	var req reservationRequest
	if err := parseBody(c, "reservation", &req); err != nil {
		return err
	}

	reservationID, err := s.idOrNew(req.ID)
	if err != nil {
		return err
	}

	command := placereservation.BuildCommand(reservationID, optionalUUID(req.BookID), optionalUUID(req.ReaderID), s.now())
	result, err := s.handlers.PlaceReservation.Handle(c.UserContext(), command)

	return created(c, reservationID, result, err)
}

func (s *Server) cancelReservation(c *fiber.Ctx) error {
	reservationID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	result, err := s.handlers.CancelReservation.Handle(c.UserContext(), cancelreservation.BuildCommand(reservationID))

	return accepted(c, reservationID, result, err)
}

func (s *Server) dashboard(c *fiber.Ctx) error {
	stats, err := s.handlers.Dashboard.Handle(c.UserContext(), dashboard.BuildQuery(s.now()))
	if err != nil {
		return err
	}

	return c.JSON(toDashboardView(stats))
}

// created answers 201 for a new record and 200 for an idempotent replay.
func created(c *fiber.Ctx, id uuid.UUID, result shell.HandlerResult, err error) error {
	if err != nil {
		return err
	}

	status := fiber.StatusCreated
	if result.Idempotent {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(commandResponse{ID: id, Idempotent: result.Idempotent})
}

func accepted(c *fiber.Ctx, id uuid.UUID, result shell.HandlerResult, err error) error {
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(commandResponse{ID: id, Idempotent: result.Idempotent})
}
