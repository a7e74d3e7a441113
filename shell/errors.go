package shell

import (
	"context"
	"errors"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/store"
)

// IsCancellationError reports whether the operation stopped because its context was canceled.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsTimeoutError reports whether the operation stopped because its context deadline passed.
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// IsConcurrencyConflictError reports whether a guarded commit failed, i.e. retries were exhausted.
func IsConcurrencyConflictError(err error) bool {
	return errors.Is(err, store.ErrConcurrencyConflict)
}

// IsBusinessRejection reports whether a core policy refused the request.
// Rejections are expected outcomes and are neither retried nor logged as failures.
func IsBusinessRejection(err error) bool {
	return errors.Is(err, core.ErrRuleViolation) || errors.Is(err, core.ErrValidation)
}
