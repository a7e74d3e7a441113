package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

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

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultRequestTimeout = 5 * time.Second

	requestIDHeader = "X-Request-ID"

	logMsgRequestCompleted = "http request completed"
	logAttrMethod          = "method"
	logAttrPath            = "path"
	logAttrHTTPStatus      = "http_status"
	logAttrRequestID       = "request_id"
)

// ErrMissingHandler is returned when a route has no handler wired.
var ErrMissingHandler = errors.New("every route handler must be set")

// Handlers are the use cases behind the routes.
type Handlers struct {
	AddBook            shell.CommandHandler[addbook.Command]
	UpdateBook         shell.CommandHandler[updatebook.Command]
	RegisterReader     shell.CommandHandler[registerreader.Command]
	ChangeReaderStatus shell.CommandHandler[changereaderstatus.Command]
	LendBook           shell.CommandHandler[lendbook.Command]
	ReturnBook         shell.CommandHandler[returnbook.Command]
	IssueFine          shell.CommandHandler[issuefine.Command]
	PayFine            shell.CommandHandler[payfine.Command]
	PlaceReservation   shell.CommandHandler[placereservation.Command]
	CancelReservation  shell.CommandHandler[cancelreservation.Command]

	BookList      shell.QueryHandler[booklist.Query, booklist.Books]
	ReaderList    shell.QueryHandler[readerlist.Query, readerlist.Readers]
	ReaderProfile shell.QueryHandler[readerprofile.Query, readerprofile.Profile]
	LoanList      shell.QueryHandler[loanlist.Query, loanlist.Loans]
	FineList      shell.QueryHandler[finelist.Query, finelist.Fines]
	Dashboard     shell.QueryHandler[dashboard.Query, core.DashboardStats]
}

// Server owns the fiber app and the wiring of routes to handlers.
type Server struct {
	app              *fiber.App
	handlers         Handlers
	now              func() time.Time
	newID            func() (uuid.UUID, error)
	requestTimeout   time.Duration
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used as the occurrence time of commands and the "now" of queries.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithIDGenerator sets the generator for record ids the client did not supply.
func WithIDGenerator(newID func() (uuid.UUID, error)) Option {
	return func(s *Server) {
		s.newID = newID
	}
}

// WithRequestTimeout bounds the context every handler runs with.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.requestTimeout = timeout
	}
}

// WithLogger logs one line per request.
func WithLogger(logger shell.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithContextualLogger logs one line per request with the request context.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(s *Server) {
		s.contextualLogger = logger
	}
}

// NewServer wires all routes. It fails with ErrMissingHandler if any handler is nil.
func NewServer(handlers Handlers, opts ...Option) (*Server, error) {
	if !handlers.complete() {
		return nil, ErrMissingHandler
	}

	s := &Server{
		handlers:       handlers,
		now:            time.Now,
		newID:          uuid.NewV7,
		requestTimeout: defaultRequestTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(s.requestContext)
	s.routes()

	return s, nil
}

// App returns the fiber app, e.g. for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	api := s.app.Group("/api")

	api.Get("/books", s.listBooks)
	api.Post("/books", s.addBook)
	api.Put("/books/:id", s.updateBook)

	api.Get("/readers", s.listReaders)
	api.Get("/readers/:id", s.readerProfile)
	api.Post("/readers", s.registerReader)
	api.Put("/readers/:id/status", s.changeReaderStatus)

	api.Get("/borrows", s.listLoans)
	api.Post("/borrows", s.lendBook)
	api.Put("/borrows/:id/return", s.returnBook)

	api.Get("/fines", s.listFines)
	api.Post("/fines", s.issueFine)
	api.Put("/fines/:id/pay", s.payFine)

	api.Post("/reservations", s.placeReservation)
	api.Delete("/reservations/:id", s.cancelReservation)

	api.Get("/dashboard", s.dashboard)
}

// requestContext sets a request id, bounds the handler context and logs the outcome.
func (s *Server) requestContext(c *fiber.Ctx) error {
	requestID := c.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c.Set(requestIDHeader, requestID)

	ctx, cancel := context.WithTimeout(c.UserContext(), s.requestTimeout)
	defer cancel()

	c.SetUserContext(ctx)

	start := time.Now()
	err := c.Next()
	if err != nil {
		err = s.handleError(c, err)
	}

	shell.LogInfo(
		ctx,
		s.logger,
		s.contextualLogger,
		logMsgRequestCompleted,
		logAttrRequestID, requestID,
		logAttrMethod, c.Method(),
		logAttrPath, c.Path(),
		logAttrHTTPStatus, c.Response().StatusCode(),
		shell.LogAttrDurationMS, shell.ToMilliseconds(time.Since(start)),
	)

	return err
}

func (s *Server) logError(c *fiber.Ctx, msg string, err error) {
	shell.LogError(c.UserContext(), s.logger, s.contextualLogger, msg, shell.LogAttrError, err.Error())
}

// idOrNew returns the client supplied id, which makes a retried request idempotent, or a fresh one.
func (s *Server) idOrNew(raw string) (uuid.UUID, error) {
	if raw != "" {
		return optionalUUID(raw), nil
	}

	return s.newID()
}

func (h Handlers) complete() bool {
	return h.AddBook != nil && h.UpdateBook != nil && h.RegisterReader != nil && h.ChangeReaderStatus != nil &&
		h.LendBook != nil && h.ReturnBook != nil && h.IssueFine != nil && h.PayFine != nil &&
		h.PlaceReservation != nil && h.CancelReservation != nil &&
		h.BookList != nil && h.ReaderList != nil && h.ReaderProfile != nil && h.LoanList != nil &&
		h.FineList != nil && h.Dashboard != nil
}
