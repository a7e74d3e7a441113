package cache

import (
	"context"

	"github.com/Jehd061990/liber/shell"
)

// Invalidator drops cached read models.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// InvalidatingCommandHandler invalidates the cache after every command that changed data.
// Failed and idempotent commands leave the cache alone.
type InvalidatingCommandHandler[C shell.Command] struct {
	next        shell.CommandHandler[C]
	invalidator Invalidator
}

// InvalidateAfter decorates next so that invalidator runs after each successful, non-idempotent command.
func InvalidateAfter[C shell.Command](next shell.CommandHandler[C], invalidator Invalidator) InvalidatingCommandHandler[C] {
	return InvalidatingCommandHandler[C]{next: next, invalidator: invalidator}
}

// Handle runs the command and then invalidates.
func (h InvalidatingCommandHandler[C]) Handle(ctx context.Context, command C) (shell.HandlerResult, error) {
	result, err := h.next.Handle(ctx, command)
	if err != nil || result.Idempotent {
		return result, err
	}

	h.invalidator.Invalidate(ctx)

	return result, nil
}
