package httpapi_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	"github.com/Jehd061990/liber/httpapi"
	"github.com/Jehd061990/liber/shell"
	"github.com/Jehd061990/liber/store"
	"github.com/Jehd061990/liber/testutil/memstore"
	"github.com/Jehd061990/liber/testutil/testdoubles"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func handlersFor(db *memstore.Store) httpapi.Handlers {
	return httpapi.Handlers{
		AddBook:            addbook.NewCommandHandler(db),
		UpdateBook:         updatebook.NewCommandHandler(db),
		RegisterReader:     registerreader.NewCommandHandler(db),
		ChangeReaderStatus: changereaderstatus.NewCommandHandler(db),
		LendBook:           lendbook.NewCommandHandler(db),
		ReturnBook:         returnbook.NewCommandHandler(db),
		IssueFine:          issuefine.NewCommandHandler(db),
		PayFine:            payfine.NewCommandHandler(db),
		PlaceReservation:   placereservation.NewCommandHandler(db),
		CancelReservation:  cancelreservation.NewCommandHandler(db),
		BookList:           booklist.NewQueryHandler(db),
		ReaderList:         readerlist.NewQueryHandler(db),
		ReaderProfile:      readerprofile.NewQueryHandler(db),
		LoanList:           loanlist.NewQueryHandler(db),
		FineList:           finelist.NewQueryHandler(db),
		Dashboard:          dashboard.NewQueryHandler(db),
	}
}

func newTestServer(t *testing.T, handlers httpapi.Handlers, opts ...httpapi.Option) *httpapi.Server {
	t.Helper()

	server, err := httpapi.NewServer(handlers, opts...)
	require.NoError(t, err, "error in arranging test data")

	return server
}

func call(t *testing.T, server *httpapi.Server, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	decoded := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}

	return resp.StatusCode, decoded
}

func created(t *testing.T, server *httpapi.Server, path string, body any) string {
	t.Helper()

	status, response := call(t, server, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, status, "error in arranging test data: %v", response)

	return response["id"].(string)
}

func Test_Server_BorrowReturnAndPayFine(t *testing.T) {
	// arrange
	clock := &fixedClock{now: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	server := newTestServer(t, handlersFor(memstore.New()), httpapi.WithClock(clock.Now))

	bookID := created(t, server, "/api/books", map[string]any{
		"isbn": "978-0-13-110362-7", "title": "The C Programming Language", "author": "Kernighan, Ritchie", "totalCopies": 1,
	})
	readerID := created(t, server, "/api/readers", map[string]any{
		"readerId": "RD-0001", "name": "Ada Reader", "email": "ada@example.org", "membershipType": "student",
	})

	// act
	loanID := created(t, server, "/api/borrows", map[string]any{"bookId": bookID, "readerId": readerID})
	_, loans := call(t, server, http.MethodGet, "/api/borrows?reader="+readerID, nil)

	clock.Advance(17 * 24 * time.Hour)
	_, overdue := call(t, server, http.MethodGet, "/api/borrows?status=overdue", nil)
	returnStatus, _ := call(t, server, http.MethodPut, "/api/borrows/"+loanID+"/return", nil)
	_, fines := call(t, server, http.MethodGet, "/api/fines?reader="+readerID+"&status=unpaid", nil)

	// assert
	require.EqualValues(t, 1, loans["count"])
	loan := loans["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "Active", loan["status"])
	assert.Equal(t, "14 days left", loan["daysInfo"].(map[string]any)["label"])

	assert.EqualValues(t, 1, overdue["overdueCount"])
	assert.Equal(t, http.StatusOK, returnStatus)

	require.EqualValues(t, 1, fines["count"])
	assert.Equal(t, "3.00", fines["totalOutstanding"])
	fine := fines["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "Overdue by 3 days", fine["reason"])

	payStatus, _ := call(t, server, http.MethodPut, "/api/fines/"+fine["id"].(string)+"/pay", nil)
	assert.Equal(t, http.StatusOK, payStatus)

	secondPayStatus, secondPay := call(t, server, http.MethodPut, "/api/fines/"+fine["id"].(string)+"/pay", nil)
	assert.Equal(t, http.StatusConflict, secondPayStatus)
	assert.Equal(t, httpapi.KindRule, secondPay["kind"])

	_, profile := call(t, server, http.MethodGet, "/api/readers/"+readerID, nil)
	assert.Equal(t, "0.00", profile["outstandingFines"])
	assert.EqualValues(t, 3, profile["remainingLoans"])
}

func Test_Server_BorrowWithSameIDIsIdempotent(t *testing.T) {
	// arrange
	server := newTestServer(t, handlersFor(memstore.New()))
	bookID := created(t, server, "/api/books", map[string]any{"isbn": "1", "title": "Dune", "author": "Herbert", "totalCopies": 2})
	readerID := created(t, server, "/api/readers", map[string]any{"readerId": "RD-2", "name": "Dee", "membershipType": "Teacher"})
	body := map[string]any{"id": uuid.NewString(), "bookId": bookID, "readerId": readerID}

	// act
	firstStatus, _ := call(t, server, http.MethodPost, "/api/borrows", body)
	secondStatus, second := call(t, server, http.MethodPost, "/api/borrows", body)
	_, books := call(t, server, http.MethodGet, "/api/books", nil)

	// assert
	assert.Equal(t, http.StatusCreated, firstStatus)
	assert.Equal(t, http.StatusOK, secondStatus)
	assert.Equal(t, true, second["idempotent"])
	assert.EqualValues(t, 1, books["data"].([]any)[0].(map[string]any)["availableCopies"])
}

func Test_Server_ErrorResponses(t *testing.T) {
	// arrange
	server := newTestServer(t, handlersFor(memstore.New()))
	bookID := created(t, server, "/api/books", map[string]any{"isbn": "1", "title": "Dune", "author": "Herbert", "totalCopies": 1})

	testCases := []struct {
		description     string
		method          string
		path            string
		body            any
		expectedStatus  int
		expectedKind    string
		expectedMessage string
	}{
		{
			description:     "borrow without a reader",
			method:          http.MethodPost,
			path:            "/api/borrows",
			body:            map[string]any{"bookId": bookID},
			expectedStatus:  http.StatusConflict,
			expectedKind:    httpapi.KindRule,
			expectedMessage: "please select a reader",
		},
		{
			description:     "unknown membership tier",
			method:          http.MethodPost,
			path:            "/api/readers",
			body:            map[string]any{"readerId": "RD-3", "name": "N", "membershipType": "Guest"},
			expectedStatus:  http.StatusBadRequest,
			expectedKind:    httpapi.KindValidation,
			expectedMessage: `invalid membership tier "Guest"`,
		},
		{
			description:     "missing title",
			method:          http.MethodPost,
			path:            "/api/books",
			body:            map[string]any{"isbn": "2", "author": "A", "totalCopies": 1},
			expectedStatus:  http.StatusBadRequest,
			expectedKind:    httpapi.KindValidation,
			expectedMessage: "invalid book: title is required",
		},
		{
			description:     "fine without reason",
			method:          http.MethodPost,
			path:            "/api/fines",
			body:            map[string]any{"readerId": uuid.NewString(), "amount": 5},
			expectedStatus:  http.StatusBadRequest,
			expectedKind:    httpapi.KindValidation,
			expectedMessage: "please provide a reason for the fine",
		},
		{
			description:    "unknown fine",
			method:         http.MethodPut,
			path:           "/api/fines/" + uuid.NewString() + "/pay",
			expectedStatus: http.StatusNotFound,
			expectedKind:   httpapi.KindNotFound,
		},
		{
			description:    "malformed path id",
			method:         http.MethodPut,
			path:           "/api/borrows/not-a-uuid/return",
			expectedStatus: http.StatusBadRequest,
			expectedKind:   httpapi.KindValidation,
		},
		{
			description:    "unknown status filter",
			method:         http.MethodGet,
			path:           "/api/fines?status=waived",
			expectedStatus: http.StatusBadRequest,
			expectedKind:   httpapi.KindValidation,
		},
		{
			description:    "unknown route",
			method:         http.MethodGet,
			path:           "/api/members",
			expectedStatus: http.StatusNotFound,
			expectedKind:   httpapi.KindNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			// act
			status, response := call(t, server, tc.method, tc.path, tc.body)

			// assert
			assert.Equal(t, tc.expectedStatus, status)
			assert.Equal(t, tc.expectedKind, response["kind"])
			if tc.expectedMessage != "" {
				assert.Equal(t, tc.expectedMessage, response["error"])
			}
		})
	}
}

type failingLendBook struct {
	err error
}

func (h failingLendBook) Handle(context.Context, lendbook.Command) (shell.HandlerResult, error) {
	return shell.NewErrorResult(shell.RetryMetrics{}), h.err
}

func Test_Server_InfrastructureErrorsAreNotLeaked(t *testing.T) {
	testCases := []struct {
		description    string
		err            error
		expectedStatus int
		expectedKind   string
	}{
		{
			description:    "exhausted concurrency retries",
			err:            store.ErrConcurrencyConflict,
			expectedStatus: http.StatusServiceUnavailable,
			expectedKind:   httpapi.KindConflict,
		},
		{
			description:    "database failure",
			err:            errors.Join(store.ErrQueryingFailed, errors.New("connection refused on 10.0.0.7")),
			expectedStatus: http.StatusInternalServerError,
			expectedKind:   httpapi.KindInternal,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			// arrange
			logSpy := testdoubles.NewLogHandlerSpy(false)
			handlers := handlersFor(memstore.New())
			handlers.LendBook = failingLendBook{err: tc.err}
			server := newTestServer(t, handlers, httpapi.WithContextualLogger(slog.New(logSpy)))

			// act
			status, response := call(t, server, http.MethodPost, "/api/borrows", map[string]any{
				"bookId": uuid.NewString(), "readerId": uuid.NewString(),
			})

			// assert
			assert.Equal(t, tc.expectedStatus, status)
			assert.Equal(t, tc.expectedKind, response["kind"])
			assert.NotContains(t, response["error"], "10.0.0.7")
			assert.True(t, logSpy.HasLog(slog.LevelInfo, "http request completed"))
		})
	}
}

func Test_Server_DashboardCountsRecords(t *testing.T) {
	// arrange
	server := newTestServer(t, handlersFor(memstore.New()))
	bookID := created(t, server, "/api/books", map[string]any{"isbn": "1", "title": "Dune", "author": "Herbert", "totalCopies": 2})
	readerID := created(t, server, "/api/readers", map[string]any{"readerId": "RD-4", "name": "Dee", "membershipType": "Staff"})
	created(t, server, "/api/borrows", map[string]any{"bookId": bookID, "readerId": readerID})
	reservationID := created(t, server, "/api/reservations", map[string]any{"bookId": bookID, "readerId": readerID})

	// act
	_, before := call(t, server, http.MethodGet, "/api/dashboard", nil)
	cancelStatus, _ := call(t, server, http.MethodDelete, "/api/reservations/"+reservationID, nil)
	_, after := call(t, server, http.MethodGet, "/api/dashboard", nil)

	// assert
	assert.EqualValues(t, 1, before["totalBooks"])
	assert.EqualValues(t, 1, before["activeReaders"])
	assert.EqualValues(t, 1, before["borrowedBooks"])
	assert.EqualValues(t, 1, before["pendingReservations"])
	assert.Equal(t, http.StatusOK, cancelStatus)
	assert.EqualValues(t, 0, after["pendingReservations"])
}

func Test_Server_SuspendedReaderCanNotBorrow(t *testing.T) {
	// arrange
	server := newTestServer(t, handlersFor(memstore.New()))
	bookID := created(t, server, "/api/books", map[string]any{"isbn": "1", "title": "Dune", "author": "Herbert", "totalCopies": 1})
	readerID := created(t, server, "/api/readers", map[string]any{"readerId": "RD-5", "name": "Eve", "membershipType": "Student"})

	// act
	suspendStatus, suspendResponse := call(t, server, http.MethodPut, "/api/readers/"+readerID+"/status", map[string]any{"status": "suspended"})
	borrowStatus, borrowResponse := call(t, server, http.MethodPost, "/api/borrows", map[string]any{"bookId": bookID, "readerId": readerID})
	_, profile := call(t, server, http.MethodGet, "/api/readers/"+readerID, nil)

	// assert
	assert.Equal(t, http.StatusOK, suspendStatus)
	assert.Equal(t, false, suspendResponse["idempotent"])
	assert.Equal(t, http.StatusConflict, borrowStatus)
	assert.Equal(t, httpapi.KindRule, borrowResponse["kind"])
	assert.Equal(t, "Suspended", profile["status"])
}

func Test_Server_ChangeReaderStatus_RejectsUnknownStatus(t *testing.T) {
	// arrange
	server := newTestServer(t, handlersFor(memstore.New()))
	readerID := created(t, server, "/api/readers", map[string]any{"readerId": "RD-6", "name": "Fay", "membershipType": "Teacher"})

	// act
	status, response := call(t, server, http.MethodPut, "/api/readers/"+readerID+"/status", map[string]any{"status": "banned"})

	// assert
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, httpapi.KindValidation, response["kind"])
}

func Test_Server_ListReaders_FiltersByStatus(t *testing.T) {
	// arrange
	server := newTestServer(t, handlersFor(memstore.New()))
	created(t, server, "/api/readers", map[string]any{"readerId": "RD-7", "name": "Gil", "membershipType": "Student"})
	suspendedID := created(t, server, "/api/readers", map[string]any{"readerId": "RD-8", "name": "Hal", "membershipType": "Staff"})
	suspendStatus, _ := call(t, server, http.MethodPut, "/api/readers/"+suspendedID+"/status", map[string]any{"status": "Suspended"})
	require.Equal(t, http.StatusOK, suspendStatus, "error in arranging test data")

	testCases := []struct {
		description       string
		path              string
		expectedCount     int
		expectedSuspended int
	}{
		{description: "all readers", path: "/api/readers", expectedCount: 2, expectedSuspended: 1},
		{description: "suspended only", path: "/api/readers?status=suspended", expectedCount: 1, expectedSuspended: 1},
		{description: "active only", path: "/api/readers?status=Active", expectedCount: 1, expectedSuspended: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			// act
			status, response := call(t, server, http.MethodGet, tc.path, nil)

			// assert
			assert.Equal(t, http.StatusOK, status)
			assert.EqualValues(t, tc.expectedCount, response["count"])
			assert.EqualValues(t, tc.expectedSuspended, response["suspendedCount"])
			assert.Len(t, response["data"], tc.expectedCount)
		})
	}
}

func Test_Server_UpdateBook_KeepsCopiesOnLoan(t *testing.T) {
	// arrange
	server := newTestServer(t, handlersFor(memstore.New()))
	bookID := created(t, server, "/api/books", map[string]any{"isbn": "1", "title": "Dune", "author": "Herbert", "totalCopies": 1})
	readerID := created(t, server, "/api/readers", map[string]any{"readerId": "RD-9", "name": "Ida", "membershipType": "Staff"})
	created(t, server, "/api/borrows", map[string]any{"bookId": bookID, "readerId": readerID})

	update := map[string]any{"isbn": "1", "title": "Dune", "author": "Frank Herbert", "totalCopies": 3}

	// act
	status, _ := call(t, server, http.MethodPut, "/api/books/"+bookID, update)
	_, list := call(t, server, http.MethodGet, "/api/books", nil)
	shrinkStatus, shrinkResponse := call(t, server, http.MethodPut, "/api/books/"+bookID, map[string]any{
		"isbn": "1", "title": "Dune", "author": "Frank Herbert", "totalCopies": 0,
	})

	// assert
	assert.Equal(t, http.StatusOK, status)

	books := list["data"].([]any)
	require.Len(t, books, 1)
	book := books[0].(map[string]any)
	assert.Equal(t, "Frank Herbert", book["author"])
	assert.EqualValues(t, 3, book["totalCopies"])
	assert.EqualValues(t, 2, book["availableCopies"])
	assert.Equal(t, "Available", book["status"])

	assert.Equal(t, http.StatusBadRequest, shrinkStatus)
	assert.Equal(t, httpapi.KindValidation, shrinkResponse["kind"])
}

func Test_NewServer_RequiresEveryHandler(t *testing.T) {
	// arrange
	handlers := handlersFor(memstore.New())
	handlers.Dashboard = nil

	// act
	_, err := httpapi.NewServer(handlers)

	// assert
	assert.ErrorIs(t, err, httpapi.ErrMissingHandler)
}
