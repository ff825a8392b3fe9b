package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// WithTimeout runs fn under a deadline of d. A non-positive d runs fn with
// ctx unchanged. Expiry of d is reported as context.DeadlineExceeded naming
// the operation.
func WithTimeout(ctx context.Context, d time.Duration, name string, fn func(ctx context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}
	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	err := fn(tctx)
	if err != nil && ctx.Err() == nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w (limit %v)", name, context.DeadlineExceeded, d)
	}
	return err
}
