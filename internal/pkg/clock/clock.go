// Package clock abstracts wall-clock time and tick scheduling so time-driven
// components can be exercised with a fake clock in tests.
package clock

import "time"

// Clock provides the current time and ticker construction.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the minimal surface of time.Ticker consumers need.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// System is the time package backed Clock used in production.
type System struct{}

func (System) Now() time.Time { return time.Now() }

func (System) NewTicker(d time.Duration) Ticker {
	return &systemTicker{ticker: time.NewTicker(d)}
}

type systemTicker struct {
	ticker *time.Ticker
}

func (t *systemTicker) C() <-chan time.Time { return t.ticker.C }

func (t *systemTicker) Stop() { t.ticker.Stop() }
