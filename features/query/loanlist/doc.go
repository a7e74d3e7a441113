// Package loanlist implements the Loan List query.
//
// Loans are filtered by reader and by display status. Overdue is not stored: it is derived
// from the due date at query time, so the handler loads Active loans and projects them.
package loanlist
