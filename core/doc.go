// Package core contains the circulation policy of the liber library console:
// membership entitlements, borrowing and returning, overdue detection, fines and reservations.
//
// Every function in this package is a pure computation over records that were already fetched
// by the caller. Nothing here talks to storage, reads the wall clock, or keeps state between calls.
// The caller supplies the current time (asOf) and persists the records the policy returns.
//
// Precondition failures are returned as typed errors. Each of them matches exactly one of the
// kind sentinels ErrValidation or ErrRuleViolation via errors.Is, and can be inspected in detail via errors.As.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package core
