package monitor

import "time"

// Ticker delivers beats on C until stopped
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock creates tickers. SystemClock is the production clock.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type SystemClock struct{}

var _ Clock = SystemClock{}

func (SystemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{ticker: time.NewTicker(d)}
}

type systemTicker struct {
	ticker *time.Ticker
}

func (t systemTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t systemTicker) Stop() {
	t.ticker.Stop()
}
