package auction

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pokevault/auctioneer/internal/clock"
)

// Scheduler holds one closure timer per open auction. Timers live only in
// memory; Recover rebuilds them from the persisted document after a restart.
type Scheduler struct {
	mu     sync.Mutex
	timers map[int64]*time.Timer

	expire func(auctionID int64)
	logger *slog.Logger
	clock  clock.Clock
}

func newScheduler(expire func(int64), logger *slog.Logger, clk clock.Clock) *Scheduler {
	return &Scheduler{
		timers: make(map[int64]*time.Timer),
		expire: expire,
		logger: logger,
		clock:  clk,
	}
}

// Schedule arms (or re-arms) the closure timer for an auction. A non-positive
// delay fires immediately on the timer goroutine, never inline.
func (sc *Scheduler) Schedule(auctionID int64, endsAt time.Time) {
	delay := endsAt.Sub(sc.clock.Now())
	if delay < 0 {
		delay = 0
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if prev, ok := sc.timers[auctionID]; ok {
		prev.Stop()
	}
	sc.timers[auctionID] = time.AfterFunc(delay, func() {
		sc.fire(auctionID)
	})

	sc.logger.Debug("closure timer armed",
		slog.Int64("auction_id", auctionID),
		slog.Duration("delay", delay),
	)
}

// Cancel stops and forgets the timer for an auction, if armed. Safe to call
// for auctions that were already settled; the settlement path is idempotent
// even when a stop loses the race with a firing timer.
func (sc *Scheduler) Cancel(auctionID int64) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if t, ok := sc.timers[auctionID]; ok {
		t.Stop()
		delete(sc.timers, auctionID)
	}
}

// CancelAll stops every armed timer.
func (sc *Scheduler) CancelAll() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	for id, t := range sc.timers {
		t.Stop()
		delete(sc.timers, id)
	}
}

// fire drops the timer entry and hands the auction to the expiry callback.
// The callback runs outside sc.mu so it is free to re-enter Schedule or
// Cancel without deadlocking.
func (sc *Scheduler) fire(auctionID int64) {
	sc.mu.Lock()
	delete(sc.timers, auctionID)
	sc.mu.Unlock()

	sc.expire(auctionID)
}
