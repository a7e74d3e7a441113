package loanlist

import (
	"github.com/Jehd061990/liber/core"
)

// LoanView is a loan with its display status and days info as of the query time.
type LoanView struct {
	Loan     core.Loan
	Status   core.LoanStatus
	DaysInfo core.DaysInfo
}

// Loans is the query result.
type Loans struct {
	Loans        []LoanView
	Count        int
	OverdueCount int
}
