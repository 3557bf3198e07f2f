package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Retrier bounds every oracle and embedder call with a fixed attempt budget
// and linear backoff (1x, 2x, ... the base delay between attempts). Malformed
// responses are retried the same way as transport failures: the closure
// passed to Do includes parsing, not just the network call.
type Retrier struct {
	MaxAttempts int
	Backoff     time.Duration
	Logger      *zap.Logger

	// Sleep is swappable in tests. Nil means time.Sleep.
	Sleep func(d time.Duration)
}

func NewRetrier(maxAttempts int, backoff time.Duration, logger *zap.Logger) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{
		MaxAttempts: maxAttempts,
		Backoff:     backoff,
		Logger:      logger,
	}
}

// Do runs fn up to MaxAttempts times. Exhaustion surfaces the last error
// wrapped with the operation name; it never degrades to a silent zero value.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	sleep := r.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s aborted: %w", op, err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		r.Logger.Warn("oracle call failed",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.MaxAttempts),
			zap.Error(lastErr))

		if attempt < r.MaxAttempts {
			sleep(r.Backoff * time.Duration(attempt))
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, r.MaxAttempts, lastErr)
}
