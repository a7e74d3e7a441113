package postgresengine

import (
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	tableBooks        = "books"
	tableReaders      = "readers"
	tableLoans        = "loans"
	tableFines        = "fines"
	tableReservations = "reservations"

	colID                 = "id"
	colISBN               = "isbn"
	colTitle              = "title"
	colAuthor             = "author"
	colPublisher          = "publisher"
	colTags               = "tags"
	colShelfLocation      = "shelf_location"
	colTotalCopies        = "total_copies"
	colAvailableCopies    = "available_copies"
	colStatus             = "status"
	colReaderCode         = "reader_code"
	colStudentCode        = "student_code"
	colName               = "name"
	colEmail              = "email"
	colPhone              = "phone"
	colTier               = "tier"
	colRegisteredAt       = "registered_at"
	colMaxBooks           = "max_books"
	colBorrowDurationDays = "borrow_duration_days"
	colBookID             = "book_id"
	colReaderID           = "reader_id"
	colBorrowDate         = "borrow_date"
	colDueDate            = "due_date"
	colReturnDate         = "return_date"
	colFineID             = "fine_id"
	colLoanID             = "loan_id"
	colAmount             = "amount"
	colReason             = "reason"
	colCreatedDate        = "created_date"
	colPaidDate           = "paid_date"
	colReservedAt         = "reserved_at"
	colQueuePosition      = "queue_position"

	cteGuard        = "guard"
	aliasGuardCount = "guard_count"

	castUUID      = "?::uuid"
	castTimestamp = "?::timestamptz"
	castNumeric   = "?::numeric"
	castJsonb     = "?::jsonb"
	castInteger   = "?::integer"

	actionMigrate            = "migrate"
	actionInsertBook         = "insert book"
	actionFindBook           = "find book"
	actionListBooks          = "list books"
	actionInsertReader       = "insert reader"
	actionFindReader         = "find reader"
	actionListReaders        = "list readers"
	actionChangeReaderStatus = "change reader status"
	actionUpdateBook         = "update book"
	actionLockReader         = "lock reader"
	actionCountActiveLoans   = "count active loans"
	actionBorrow             = "borrow"
	actionTakeCopy           = "take copy"
	actionInsertLoan         = "insert loan"
	actionReturn             = "return"
	actionCloseLoan          = "close loan"
	actionGiveBackCopy       = "give back copy"
	actionFindLoan           = "find loan"
	actionListLoans          = "list loans"
	actionInsertFine         = "insert fine"
	actionPayFine            = "pay fine"
	actionFindFine           = "find fine"
	actionListFines          = "list fines"
	actionReserve            = "reserve"
	actionLockBook           = "lock book"
	actionInsertReservation  = "insert reservation"
	actionCancelReservation  = "cancel reservation"
	actionFindReservation    = "find reservation"
	actionCountPending       = "count pending reservations"
	actionLoadDashboardStats = "load dashboard stats"
	actionImport             = "import snapshot"
	actionImportRecord       = "import record"
)

// Values are rendered inline, so untyped literals get explicit casts to match the column types.

func uuidValue(id uuid.UUID) exp.LiteralExpression {
	return goqu.L(castUUID, id.String())
}

func nullableUUIDValue(id *uuid.UUID) any {
	if id == nil {
		return goqu.L("NULL::uuid")
	}

	return uuidValue(*id)
}

func timestampValue(t time.Time) exp.LiteralExpression {
	return goqu.L(castTimestamp, t.UTC().Format(time.RFC3339Nano))
}

func nullableTimestampValue(t *time.Time) any {
	if t == nil {
		return goqu.L("NULL::timestamptz")
	}

	return timestampValue(*t)
}

func numericValue(d decimal.Decimal) exp.LiteralExpression {
	return goqu.L(castNumeric, d.StringFixed(2))
}

func integerValue(i int) exp.LiteralExpression {
	return goqu.L(castInteger, i)
}

func textValue(s string) exp.LiteralExpression {
	return goqu.L("?::text", s)
}
