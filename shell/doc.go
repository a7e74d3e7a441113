// Package shell is the imperative shell around the pure core package.
//
// Command handlers in features/command load the records a decision needs, call a pure core
// policy and commit the outcome through a store. Commits are guarded, so a handler retries the
// whole load-decide-commit cycle with exponential backoff when a guard failed
// (store.ErrConcurrencyConflict). Business rejections and validation errors are returned at once.
//
// This package holds the shared pieces of that workflow: the retry loop, the HandlerResult
// reported to observability wrappers, and logging and metrics helpers.
package shell
