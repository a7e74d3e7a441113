package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/store"
)

// LoadDashboardStats aggregates the headline numbers in one round trip.
// It matches core.BuildDashboardStats over the full record sets.
func (e *Engine) LoadDashboardStats(ctx context.Context, now time.Time) (core.DashboardStats, error) {
	b := builder()
	activeLoans := goqu.Ex{colStatus: string(core.LoanActive)}

	selectStmt := b.Select(
		b.From(tableBooks).Select(goqu.COUNT(goqu.Star())).As("total_books"),
		b.From(tableReaders).Select(goqu.COUNT(goqu.Star())).
			Where(goqu.Ex{colStatus: string(core.ReaderActive)}).As("active_readers"),
		b.From(tableLoans).Select(goqu.COUNT(goqu.Star())).
			Where(activeLoans).As("borrowed_books"),
		b.From(tableLoans).Select(goqu.COUNT(goqu.Star())).
			Where(activeLoans, goqu.C(colDueDate).Lt(timestampValue(now))).As("overdue_books"),
		b.From(tableFines).Select(goqu.L("COALESCE(SUM(amount), 0)::text")).
			Where(goqu.Ex{colStatus: string(core.FineUnpaid)}).As("outstanding_fines"),
		b.From(tableReservations).Select(goqu.COUNT(goqu.Star())).
			Where(goqu.Ex{colStatus: string(core.ReservationPending)}).As("pending_reservations"),
	)

	rows, err := e.query(ctx, e.db, actionLoadDashboardStats, selectStmt)
	if err != nil {
		return core.DashboardStats{}, err
	}
	defer e.closeRows(ctx, rows)

	var stats core.DashboardStats
	var outstanding string

	if rows.Next() {
		scanErr := rows.Scan(
			&stats.TotalBooks, &stats.ActiveReaders, &stats.BorrowedBooks, &stats.OverdueBooks,
			&outstanding, &stats.PendingReservations,
		)
		if scanErr != nil {
			return core.DashboardStats{}, e.scanFailed(ctx, actionLoadDashboardStats, scanErr)
		}
	}

	if err := rows.Err(); err != nil {
		return core.DashboardStats{}, e.scanFailed(ctx, actionLoadDashboardStats, err)
	}

	stats.OutstandingFines, err = decimal.NewFromString(outstanding)
	if err != nil {
		return core.DashboardStats{}, errors.Join(store.ErrDecodingFailed, err)
	}

	return stats, nil
}
