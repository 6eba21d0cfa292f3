package workers

import (
	"chat-uol/clock"
	"context"
	"log/slog"
	"time"
)

// Sweeper evicts participants whose last heartbeat is older than timeout.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time, timeout time.Duration) ([]string, error)
}

// PresenceSweeper runs a sweep every interval, independently of client requests.
type PresenceSweeper struct {
	log      *slog.Logger
	registry Sweeper
	clock    clock.Clock
	interval time.Duration
	timeout  time.Duration
}

func NewPresenceSweeper(
	log *slog.Logger,
	registry Sweeper,
	clk clock.Clock,
	interval, timeout time.Duration,
) *PresenceSweeper {
	return &PresenceSweeper{
		log:      log,
		registry: registry,
		clock:    clk,
		interval: interval,
		timeout:  timeout,
	}
}

// Run sweeps on every tick until ctx is canceled. A failed cycle is logged
// and the next tick runs as usual.
func (w *PresenceSweeper) Run(ctx context.Context) error {
	w.log.Info("Starting presence sweeper", "interval", w.interval, "timeout", w.timeout)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single cycle and returns the evicted names.
func (w *PresenceSweeper) SweepOnce(ctx context.Context) []string {
	evicted, err := w.registry.Sweep(ctx, w.clock.Now(), w.timeout)
	if err != nil {
		w.log.Error("Presence sweep failed, skipping cycle", "err", err, "evicted", len(evicted))
	}
	if len(evicted) > 0 {
		w.log.Info("Inactive participants removed", "names", evicted)
	}
	return evicted
}
