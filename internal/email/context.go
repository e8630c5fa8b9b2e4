package email

import (
	"context"
	"time"
)

// newEmailContext bounds a send by timeout without inheriting the parent's
// cancellation, so a finished sweep or request does not abort delivery.
func newEmailContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}
