// Package upstream - общие примитивы повторов для клиентов внешних API.
package upstream

import (
	"context"
	"time"
)

// Outcomes for upstream request metrics
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeHTTPError   = "http_error"
	OutcomeTransport   = "transport_error"
	OutcomeDecode      = "decode_error"
)

// LinearBackoff - задержка перед следующей попыткой: base * attempt (attempt с 1)
func LinearBackoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(attempt)
}

// Sleep ждёт d или отмены ctx
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
