package media

import (
	"sync"
	"time"

	"github.com/iburimskiy/audio-reactive/internal/config"
)

// SwapPeriod turns a user interval in seconds into the ticker period:
// non-positive falls back to the default, and nothing ticks faster than
// config.MinSwapPeriod.
func SwapPeriod(sec int) time.Duration {
	if sec <= 0 {
		sec = config.DefaultSwapSeconds
	}
	d := time.Duration(sec) * time.Second
	if d < config.MinSwapPeriod {
		d = config.MinSwapPeriod
	}
	return d
}

// AutoSwap calls fire periodically until stopped. Starting again replaces
// the running ticker.
type AutoSwap struct {
	fire func()

	mu     sync.Mutex
	stop   chan struct{}
	period time.Duration
}

func NewAutoSwap(fire func()) *AutoSwap {
	return &AutoSwap{fire: fire}
}

func (a *AutoSwap) Start(sec int) {
	a.StartEvery(SwapPeriod(sec))
}

// StartEvery is Start with an explicit period and no clamping.
func (a *AutoSwap) StartEvery(period time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()

	stop := make(chan struct{})
	a.stop = stop
	a.period = period
	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				a.fire()
			case <-stop:
				return
			}
		}
	}()
}

func (a *AutoSwap) Stop() {
	a.mu.Lock()
	a.stopLocked()
	a.mu.Unlock()
}

func (a *AutoSwap) stopLocked() {
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
		a.period = 0
	}
}

// Period is the running period, zero when stopped.
func (a *AutoSwap) Period() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.period
}
