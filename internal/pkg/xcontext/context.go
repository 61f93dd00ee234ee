package xcontext

import (
	"context"
	"time"
)

// DetachWithTimeout keeps the values of ctx but drops its cancellation, so work that must
// finish after the caller went away still gets a deadline of its own.
func DetachWithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
