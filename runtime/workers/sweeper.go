package workers

import (
	"context"
	"log/slog"
	"time"

	"anonchat/domain"
	"anonchat/domain/event"
	"anonchat/repositories"
	"anonchat/runtime"
)

// SweeperWorker removes expired messages on a fixed cadence, independent of
// message arrival. Expiry lag is bounded by the sweep interval, not
// instantaneous; the interval is typically much finer than the TTL.
type SweeperWorker struct {
	log      *slog.Logger
	store    repositories.IMessageStore
	settings *domain.Settings
	sinks    *runtime.Registry
	interval time.Duration
	now      func() time.Time
}

func NewSweeperWorker(
	log *slog.Logger,
	store repositories.IMessageStore,
	settings *domain.Settings,
	sinks *runtime.Registry,
	interval time.Duration,
) *SweeperWorker {
	return &SweeperWorker{
		log:      log,
		store:    store,
		settings: settings,
		sinks:    sinks,
		interval: interval,
		now:      time.Now,
	}
}

func (w *SweeperWorker) Run(ctx context.Context) error {
	w.log.Info("Starting expiry sweeper", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sweepOnce(w.now())
		}
	}
}

// sweepOnce is one sweep pass. TTL zero means permanent retention and the
// pass is a no-op. Each removed message produces one expiry notice targeted
// at its room; pinned messages never expire.
func (w *SweeperWorker) sweepOnce(now time.Time) {
	s := w.settings.Snapshot()
	if s.MessageTTL == 0 {
		return
	}
	for _, removed := range w.store.ExpireOlderThan(now.Add(-s.MessageTTL)) {
		w.sinks.ToRoom(removed.Room, event.MessageExpired(removed.ID.String()))
	}
}
