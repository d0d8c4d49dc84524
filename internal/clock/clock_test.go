package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gutierrez-fleet/dispatchd/internal/world"
)

func TestClockAdvancesSimulatedTime(t *testing.T) {
	w := world.New(1)
	c := New(w, 5*time.Millisecond)
	c.Start()
	defer c.Stop()

	assert.Eventually(t, func() bool {
		w.Lock()
		defer w.Unlock()
		return w.SimulatedTime() >= 3
	}, time.Second, 5*time.Millisecond)
}
