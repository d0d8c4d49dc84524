package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInitializesFleet(t *testing.T) {
	w := New(3)
	assert.Equal(t, 3, w.FleetSize())
	w.Lock()
	defer w.Unlock()
	for i, v := range w.Vehicles() {
		assert.Equal(t, i+1, v.ID)
		assert.Equal(t, VehicleAvailable, v.Availability)
		assert.Equal(t, VehicleInactive, v.Activity)
	}
}

func TestAddAndRemoveClientPreservesOrder(t *testing.T) {
	w := New(1)
	w.Lock()
	w.AddClient(1, "ana")
	w.AddClient(2, "bruno")
	w.AddClient(3, "carla")
	w.RemoveClient(2)
	names := []string{}
	for _, c := range w.Clients() {
		names = append(names, c.Name)
	}
	w.Unlock()
	assert.Equal(t, []string{"ana", "carla"}, names)
}

func TestServiceIDsStrictlyIncreasing(t *testing.T) {
	w := New(1)
	w.Lock()
	defer w.Unlock()
	s1 := w.AddService(1, "ana", 10, "casa", 5.0)
	s2 := w.AddService(1, "ana", 20, "trabalho", 2.0)
	assert.Equal(t, 1, s1.ID)
	assert.Equal(t, 2, s2.ID)
}

func TestClientHasNonTerminalService(t *testing.T) {
	w := New(1)
	w.Lock()
	defer w.Unlock()
	assert.False(t, w.ClientHasNonTerminalService(1))
	s := w.AddService(1, "ana", 10, "casa", 5.0)
	assert.True(t, w.ClientHasNonTerminalService(1))
	s.Status = ServiceCancelled
	assert.False(t, w.ClientHasNonTerminalService(1))
}

func TestBindAndRelease(t *testing.T) {
	w := New(1)
	w.Lock()
	defer w.Unlock()
	w.AddClient(1, "ana")
	s := w.AddService(1, "ana", 0, "casa", 5.0)
	v := w.FirstAvailableVehicle()
	require.NotNil(t, v)

	w.Bind(s, v)
	assert.Equal(t, ServiceInProgress, s.Status)
	assert.Equal(t, v.ID, s.AssignedVehicle)
	assert.Equal(t, VehicleOccupied, v.Availability)
	assert.Equal(t, ClientOnTrip, w.ClientByPID(1).Status)
	assert.Nil(t, w.FirstAvailableVehicle())

	v.TotalKM = 5.0
	w.Release(s, v)
	assert.Equal(t, ClientWaiting, w.ClientByPID(1).Status)
	assert.Equal(t, VehicleAvailable, v.Availability)
	assert.Equal(t, 0.0, v.TotalKM)
	assert.NotNil(t, w.FirstAvailableVehicle())
}

func TestTotalActiveKM(t *testing.T) {
	w := New(2)
	w.Lock()
	defer w.Unlock()
	w.Vehicles()[0].TotalKM = 3.5
	w.Vehicles()[1].TotalKM = 1.5
	assert.Equal(t, 5.0, w.TotalActiveKM())
}

func TestServiceTerminal(t *testing.T) {
	assert.True(t, ServiceCompleted.Terminal())
	assert.True(t, ServiceCancelled.Terminal())
	assert.False(t, ServiceScheduled.Terminal())
	assert.False(t, ServiceInProgress.Terminal())
}
