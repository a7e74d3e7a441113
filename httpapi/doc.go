// Package httpapi exposes the circulation handlers over the REST routes the library console calls.
//
// Handlers are injected as shell.CommandHandler and shell.QueryHandler values, so the same routes
// serve plain handlers in tests and observable wrappers in production.
// Every error is answered with {"error": "...", "kind": "..."}; see statusFor for the mapping.
package httpapi
