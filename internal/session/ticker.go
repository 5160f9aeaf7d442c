package session

import "time"

// Ticker is the part of [time.Ticker] a session needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.Ticker.C
}

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}
