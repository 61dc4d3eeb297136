package fakeclock

import (
	"sync"
	"time"

	"github.com/jrsteele09/book-library-client/monitor"
)

var _ monitor.Clock = (*Clock)(nil)

// Clock is a manually driven clock. Time only moves on Advance and tickers only fire on Tick.
type Clock struct {
	now     time.Time
	live    map[*Ticker]struct{}
	created int
	lock    sync.Mutex
}

func New(start time.Time) *Clock {
	return &Clock{
		now:  start,
		live: make(map[*Ticker]struct{}),
	}
}

func (c *Clock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

func (c *Clock) NewTicker(d time.Duration) monitor.Ticker {
	c.lock.Lock()
	defer c.lock.Unlock()

	t := &Ticker{clock: c, period: d, ch: make(chan time.Time, 1)}
	c.live[t] = struct{}{}
	c.created++
	return t
}

// Tick delivers one beat to every live ticker and returns how many were delivered.
// Like time.Ticker, a beat is dropped when the previous one has not been consumed.
func (c *Clock) Tick() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	delivered := 0
	for t := range c.live {
		select {
		case t.ch <- c.now:
			delivered++
		default:
		}
	}
	return delivered
}

// Live is the number of tickers created and not yet stopped
func (c *Clock) Live() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.live)
}

// Created is the number of tickers ever created
func (c *Clock) Created() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.created
}

type Ticker struct {
	clock  *Clock
	period time.Duration
	ch     chan time.Time
}

func (t *Ticker) C() <-chan time.Time {
	return t.ch
}

func (t *Ticker) Stop() {
	t.clock.lock.Lock()
	defer t.clock.lock.Unlock()
	delete(t.clock.live, t)
}

func (t *Ticker) Period() time.Duration {
	return t.period
}
