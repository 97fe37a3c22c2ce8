package clock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/flavioheleno/max7219/timekeeper"
)

// BootstrapOptions bounds the initial synchronisation.
type BootstrapOptions struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
	Deadline time.Duration
}

// DefaultBootstrapOptions returns the standard bounds.
func DefaultBootstrapOptions() BootstrapOptions {
	return BootstrapOptions{
		Attempts: 5,
		Delay:    time.Second,
		MaxDelay: 15 * time.Second,
		Deadline: time.Minute,
	}
}

// Bootstrap takes the first anchor, retrying with backoff until the deadline.
// There is no offline mode: an error here should end the process so it can
// be restarted.
func Bootstrap(ctx context.Context, k *timekeeper.TimeKeeper, src timekeeper.TimeSource, opts BootstrapOptions, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Deadline)
		defer cancel()
	}

	err := retry.Do(
		func() error {
			_, err := k.Resync(ctx, src)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(opts.Attempts)),
		retry.Delay(opts.Delay),
		retry.MaxDelay(opts.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("initial time sync failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("clock: initial time sync: %w", err)
	}
	logger.Info("time synced", "utc", k.Anchor().EpochSeconds)
	return nil
}
