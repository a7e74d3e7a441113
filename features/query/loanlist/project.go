package loanlist

import (
	"github.com/Jehd061990/liber/core"
)

// ProjectLoans derives the display status of each loan and keeps those matching the query's status.
func ProjectLoans(loans []core.Loan, query Query) Loans {
	result := Loans{Loans: make([]LoanView, 0, len(loans))}

	for _, loan := range loans {
		status := core.LoanStatusAt(loan, query.Now)
		if query.Status != "" && status != query.Status {
			continue
		}

		if status == core.LoanOverdue {
			result.OverdueCount++
		}

		result.Loans = append(result.Loans, LoanView{
			Loan:     loan,
			Status:   status,
			DaysInfo: core.DaysInfoAt(loan, query.Now),
		})
	}

	result.Count = len(result.Loans)

	return result
}
