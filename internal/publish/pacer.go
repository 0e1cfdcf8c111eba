package publish

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum interval between successive store operations.
// It is an injectable policy so tests run with zero delay while production
// wiring honors the store's rate limits.
type Pacer interface {
	// Pace blocks until the next operation is allowed to proceed, or the
	// context is cancelled.
	Pace(ctx context.Context) error
}

// ratePacer implements Pacer on a token-bucket limiter with burst 1, which
// degenerates to "at least one interval between consecutive calls".
type ratePacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a Pacer enforcing the given minimum interval.
// A non-positive interval disables pacing.
func NewPacer(interval time.Duration) Pacer {
	if interval <= 0 {
		return ratePacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return ratePacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Pace implements Pacer.
func (p ratePacer) Pace(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
