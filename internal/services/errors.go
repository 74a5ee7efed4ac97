package services

import (
	"context"
	"fmt"
	"time"
)

// InputError is a request the client must fix; nothing was read or written.
type InputError struct{ Msg string }

func (e *InputError) Error() string { return e.Msg }

func inputErr(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

type NotFoundError struct{ VariantID int64 }

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("variant with ID %d not found", e.VariantID)
}

type InsufficientStockError struct {
	VariantID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant ID %d (available: %d, requested: %d)",
		e.VariantID, e.Available, e.Requested)
}

// ConflictError means the conditional decrement matched nothing: another
// checkout took the stock between validation and commit. Applied counts the
// earlier lines of the same cart that were already decremented and stay so.
type ConflictError struct {
	VariantID int64
	Applied   int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("stock for variant ID %d changed while processing the purchase, please try again", e.VariantID)
}

// storeCtx bounds a single store call. A zero timeout leaves ctx as is.
func storeCtx(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
