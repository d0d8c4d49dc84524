// Package clock runs the single simulated-time ticker described in §4.3:
// one goroutine advances World State's simulated clock by one unit every
// real second, holding the lock only for the increment itself.
package clock

import (
	"time"

	"github.com/gutierrez-fleet/dispatchd/internal/logging"
	"github.com/gutierrez-fleet/dispatchd/internal/world"
)

// Clock advances a World's simulated time on a fixed real-time tick.
type Clock struct {
	w        *world.World
	interval time.Duration
	stopCh   chan struct{}
}

// New builds a Clock advancing w every interval.
func New(w *world.World, interval time.Duration) *Clock {
	return &Clock{w: w, interval: interval, stopCh: make(chan struct{})}
}

// Start begins ticking in a background goroutine.
func (c *Clock) Start() {
	log := logging.WithComponent("clock")
	ticker := time.NewTicker(c.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.w.Lock()
				t := c.w.AdvanceTime()
				c.w.Unlock()
				log.Debug().Int("simulated_time", t).Msg("tick")
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop halts the ticking goroutine.
func (c *Clock) Stop() {
	close(c.stopCh)
}
