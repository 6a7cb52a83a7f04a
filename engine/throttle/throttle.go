package throttle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config defines the limiter's
// Requests Per Second and Burst Rate
type Config struct {
	RPS   int `json:"rps" validate:"gt=0"`
	Burst int `json:"burst" validate:"gt=0"`
}

// Limiter uses the time/rate token bucket limiter to restrict
// outbound transfers.
type Limiter struct {
	limiter *rate.Limiter
	rps     int
	burst   int
	logFn   func() *slog.Logger
}

// New returns a Limiter allowing rps transfers per second with the given
// burst. logFn lazily resolves the logger at wait time, making option
// ordering irrelevant. A nil logFn, or one returning nil, disables logging.
func New(rps, burst int, logFn func() *slog.Logger) (*Limiter, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, ErrMustNotBeZero)
	}

	if logFn == nil {
		logFn = func() *slog.Logger { return nil }
	}

	l := &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		rps:     rps,
		burst:   burst,
		logFn:   logFn,
	}

	return l, nil
}

// Config returns the limits l was built with.
func (l *Limiter) Config() Config {
	return Config{RPS: l.rps, Burst: l.burst}
}

// Wait blocks until a token is available for a transfer to target.
// target is used only for logging.
func (l *Limiter) Wait(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	var waited time.Duration
	logger := l.logFn()
	if logger != nil && l.limiter.Tokens() < 1 {
		logger.Info("throttle tokens exhausted", "rate", l.rps, "burst", l.burst, "target", target)

		defer func() {
			logger.Info("throttle wait complete", "waited", waited.String(), "rate", l.rps, "burst", l.burst)
		}()
	}

	start := time.Now()

	err := l.limiter.Wait(ctx)
	waited = time.Since(start)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return nil
}
