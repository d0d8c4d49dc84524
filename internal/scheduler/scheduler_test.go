package scheduler

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutierrez-fleet/dispatchd/internal/world"
)

type fakeLauncher struct {
	mu      sync.Mutex
	launched []launched
	err      error
}

type launched struct {
	vehicleID int
	serviceID int
}

func (f *fakeLauncher) Launch(v *world.Vehicle, s *world.Service) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launched = append(f.launched, launched{vehicleID: v.ID, serviceID: s.ID})
	return f.err
}

func TestSweepBindsDueServiceToFirstAvailableVehicle(t *testing.T) {
	w := world.New(2)
	w.Lock()
	s := w.AddService(1, "ana", 0, "casa", 5.0)
	w.Unlock()

	fl := &fakeLauncher{}
	sched := New(w, fl, 0)
	sched.Sweep()

	require.Len(t, fl.launched, 1)
	assert.Equal(t, s.ID, fl.launched[0].serviceID)
	assert.Equal(t, 1, fl.launched[0].vehicleID)

	w.Lock()
	defer w.Unlock()
	assert.Equal(t, world.ServiceInProgress, w.ServiceByID(s.ID).Status)
	assert.Equal(t, world.VehicleOccupied, w.VehicleByID(1).Availability)
}

func TestSweepSkipsNotYetDueService(t *testing.T) {
	w := world.New(1)
	w.Lock()
	s := w.AddService(1, "ana", 100, "casa", 5.0)
	w.Unlock()

	fl := &fakeLauncher{}
	sched := New(w, fl, 0)
	sched.Sweep()

	assert.Empty(t, fl.launched)
	w.Lock()
	defer w.Unlock()
	assert.Equal(t, world.ServiceScheduled, w.ServiceByID(s.ID).Status)
}

func TestSweepStopsWhenFleetFullyOccupied(t *testing.T) {
	w := world.New(1)
	w.Lock()
	s1 := w.AddService(1, "ana", 0, "casa", 5.0)
	s2 := w.AddService(2, "bob", 0, "praia", 2.0)
	w.Unlock()

	fl := &fakeLauncher{}
	sched := New(w, fl, 0)
	sched.Sweep()

	require.Len(t, fl.launched, 1)
	assert.Equal(t, s1.ID, fl.launched[0].serviceID)

	w.Lock()
	defer w.Unlock()
	assert.Equal(t, world.ServiceScheduled, w.ServiceByID(s2.ID).Status)
}
