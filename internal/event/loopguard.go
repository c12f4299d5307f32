package event

import (
	"sync"
	"time"

	"github.com/tenchan000517/novel-sub005/internal/event/topic"
)

// loopGuard counts publishes per topic and flags topics that cross a
// threshold within a window. A handler chain that republishes the
// event that triggered it shows up here long before it exhausts the
// queue.
//
// Counters reset on a fixed ticker, independent of publish activity.
// A slow trickle of publishes therefore never accumulates into a
// false storm across windows.
type loopGuard struct {
	threshold int
	window    time.Duration

	mu     sync.Mutex
	counts map[topic.Topic]int

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

// newLoopGuard creates a guard and starts its reset ticker.
func newLoopGuard(threshold int, window time.Duration) *loopGuard {
	g := &loopGuard{
		threshold: threshold,
		window:    window,
		counts:    make(map[topic.Topic]int),
		ticker:    time.NewTicker(window),
		done:      make(chan struct{}),
	}
	go g.run()
	return g
}

func (g *loopGuard) run() {
	for {
		select {
		case <-g.ticker.C:
			g.mu.Lock()
			g.counts = make(map[topic.Topic]int)
			g.mu.Unlock()
		case <-g.done:
			return
		}
	}
}

// observe records one publish of the topic. It reports the count in
// the current window and whether that count has passed the threshold.
func (g *loopGuard) observe(t topic.Topic) (count int, storm bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counts[t]++
	c := g.counts[t]
	return c, c > g.threshold
}

// stop halts the reset ticker. Safe to call more than once.
func (g *loopGuard) stop() {
	g.stopOnce.Do(func() {
		g.ticker.Stop()
		close(g.done)
	})
}
