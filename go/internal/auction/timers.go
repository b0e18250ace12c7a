package auction

import (
	"time"

	"github.com/jonboulle/clockwork"
)

type timerKind int

const (
	timerNone timerKind = iota
	timerNoBid
	timerBid
)

func (k timerKind) String() string {
	switch k {
	case timerNoBid:
		return "no_bid"
	case timerBid:
		return "bid"
	default:
		return "none"
	}
}

// deliverFunc hands a tick for generation gen to the room actor. It must give
// up when stop is closed and report whether the tick was queued.
type deliverFunc func(gen uint64, stop <-chan struct{}) bool

// timerPair owns a room's no-bid and bid countdowns. At most one is armed at
// any time. Ticks are never applied from the ticker goroutine; they are
// delivered to the room actor tagged with the generation that armed them, and
// a tick whose generation is no longer current is ignored.
//
// All methods except run must be called from the room actor.
type timerPair struct {
	clock    clockwork.Clock
	interval time.Duration
	deliver  deliverFunc

	noBidFull int
	bidFull   int

	kind      timerKind
	noBidLeft int
	bidLeft   int
	gen       uint64
	ticker    clockwork.Ticker
	stop      chan struct{}
}

func newTimerPair(clock clockwork.Clock, interval time.Duration, noBidTicks, bidTicks int, deliver deliverFunc) *timerPair {
	return &timerPair{
		clock:     clock,
		interval:  interval,
		deliver:   deliver,
		noBidFull: noBidTicks,
		bidFull:   bidTicks,
		noBidLeft: noBidTicks,
		bidLeft:   bidTicks,
	}
}

// arm cancels whatever is running and starts kind from its full duration.
// Arming the bid timer while it is already running is how a new bid resets it.
func (t *timerPair) arm(kind timerKind) {
	t.cancel()

	switch kind {
	case timerNoBid:
		t.noBidLeft = t.noBidFull
	case timerBid:
		t.bidLeft = t.bidFull
	default:
		return
	}

	t.kind = kind
	t.ticker = t.clock.NewTicker(t.interval)
	t.stop = make(chan struct{})
	go t.run(t.gen, t.ticker, t.stop)
}

// cancel stops the armed timer, if any, and invalidates ticks already in flight
func (t *timerPair) cancel() {
	if t.ticker != nil {
		t.ticker.Stop()
		close(t.stop)
		t.ticker = nil
		t.stop = nil
	}
	t.kind = timerNone
	t.gen++
}

// reset cancels and restores both countdowns to their full durations
func (t *timerPair) reset() {
	t.cancel()
	t.noBidLeft = t.noBidFull
	t.bidLeft = t.bidFull
}

// armed reports which timer is running
func (t *timerPair) armed() timerKind {
	return t.kind
}

// tick applies one tick. current is false for stale or cancelled ticks, in
// which case nothing changed. expired is true when the armed countdown hit
// zero; the timer is disarmed at that point.
func (t *timerPair) tick(gen uint64) (current, expired bool) {
	if gen != t.gen || t.kind == timerNone {
		return false, false
	}

	left := &t.noBidLeft
	if t.kind == timerBid {
		left = &t.bidLeft
	}
	*left--
	if *left > 0 {
		return true, false
	}

	*left = 0
	t.cancel()
	return true, true
}

func (t *timerPair) run(gen uint64, ticker clockwork.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-ticker.Chan():
			if !t.deliver(gen, stop) {
				return
			}
		case <-stop:
			return
		}
	}
}

// stopAndDrainTimer safely stops a timer and drains its channel to prevent goroutine leaks.
func stopAndDrainTimer(timer clockwork.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		// Timer already fired or was stopped, drain the channel
		select {
		case <-timer.Chan():
		default:
		}
	}
}
