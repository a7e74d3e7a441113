// Package returnbook implements the Return Book use case.
//
// A late return produces an Unpaid overdue fine computed with the configured FineSchedule.
// Closing the loan, giving the copy back and creating the fine are committed in one transaction.
package returnbook
