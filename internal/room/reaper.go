package room

import (
	"context"
	"log/slog"
	"time"
)

// Reaper periodically force-closes rooms that have seen no activity for the
// idle threshold. It runs independently of the event stream but mutates the
// store through the same lock as every handler.
type Reaper struct {
	store     *Store
	threshold time.Duration
	interval  time.Duration
	log       *slog.Logger
}

func NewReaper(store *Store, threshold, interval time.Duration, log *slog.Logger) *Reaper {
	if interval <= 0 {
		interval = threshold
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reaper{
		store:     store,
		threshold: threshold,
		interval:  interval,
		log:       log,
	}
}

// Run blocks until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.store.ReapIdle(r.threshold); n > 0 {
				r.log.Info("idle sweep closed rooms", "count", n)
			}
		}
	}
}
