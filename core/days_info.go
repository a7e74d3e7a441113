package core

import (
	"fmt"
	"time"
)

// Urgency tells a UI how to color the due-date hint of a loan.
type Urgency string

const (
	UrgencyNeutral  Urgency = "neutral"
	UrgencyNormal   Urgency = "normal"
	UrgencyWarning  Urgency = "warning"
	UrgencyCritical Urgency = "critical"
)

const dueSoonDays = 3

// DaysInfo is the due-date hint shown next to a loan.
type DaysInfo struct {
	Label   string
	Urgency Urgency
}

// DaysInfoAt buckets the days remaining until the due date, rounded up:
//
//	returned       -> "Completed"        neutral
//	remaining < 0  -> "{n} days overdue" critical
//	remaining == 0 -> "Due today"        warning
//	remaining 1..3 -> "{n} days left"    warning
//	remaining > 3  -> "{n} days left"    normal
func DaysInfoAt(loan Loan, now time.Time) DaysInfo {
	if loan.Status == LoanReturned || loan.ReturnDate != nil {
		return DaysInfo{Label: "Completed", Urgency: UrgencyNeutral}
	}

	remaining := daysBetween(now, loan.DueDate)

	switch {
	case remaining < 0:
		return DaysInfo{Label: fmt.Sprintf("%d days overdue", -remaining), Urgency: UrgencyCritical}
	case remaining == 0:
		return DaysInfo{Label: "Due today", Urgency: UrgencyWarning}
	case remaining <= dueSoonDays:
		return DaysInfo{Label: fmt.Sprintf("%d days left", remaining), Urgency: UrgencyWarning}
	default:
		return DaysInfo{Label: fmt.Sprintf("%d days left", remaining), Urgency: UrgencyNormal}
	}
}
