package workers

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"anonchat/runtime"
)

// topicPool is the fixed set the rotation samples from.
var topicPool = []string{
	"🔥 Viral: AI Revolution",
	"🔥 Viral: Crypto Crash",
	"🔥 Viral: Mars Landing",
	"🔥 Viral: New Pandemic?",
	"🔥 Viral: Global Warming",
	"🔥 Viral: Tech Layoffs",
	"🔥 Viral: VR Gaming",
	"🔥 Viral: Quantum Leap",
	"🔥 Viral: Space Tourism",
	"🔥 Viral: Robot Rights",
}

const trendingCount = 3

// TrendingWorker rotates the trending topic list on a fixed interval and
// pushes the combined room view to every connected client. Topics are
// joinable like any room but carry no registry record or lock state.
type TrendingWorker struct {
	log      *slog.Logger
	engine   *runtime.Engine
	interval time.Duration
	rand     *rand.Rand
}

func NewTrendingWorker(log *slog.Logger, engine *runtime.Engine, interval time.Duration) *TrendingWorker {
	return &TrendingWorker{
		log:      log,
		engine:   engine,
		interval: interval,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (w *TrendingWorker) Run(ctx context.Context) error {
	w.log.Info("Starting trending rotation", "interval", w.interval)

	// First rotation at startup so the initial room list is never empty.
	w.engine.SetTrending(w.pick())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.engine.SetTrending(w.pick())
		}
	}
}

func (w *TrendingWorker) pick() []string {
	shuffled := make([]string, len(topicPool))
	copy(shuffled, topicPool)
	w.rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:trendingCount]
}
