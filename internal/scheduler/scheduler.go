// Package scheduler implements the periodic binding sweep of §4.4: due
// SCHEDULED services are matched to the lowest-id AVAILABLE vehicle and
// handed to a Launcher to start their worker process.
package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/gutierrez-fleet/dispatchd/internal/logging"
	"github.com/gutierrez-fleet/dispatchd/internal/world"
)

// Launcher starts the worker process for a service just bound to a
// vehicle. Sweep calls Launch with the World lock already held, matching
// §4.4 step 3's single ordered transaction (bind, then fork, under one
// lock acquisition): an implementation that records the forked worker's
// pid onto v is reading and writing World State under that same lock,
// not racing it.
type Launcher interface {
	Launch(v *world.Vehicle, s *world.Service) error
}

// Scheduler periodically sweeps World State for due services.
type Scheduler struct {
	w        *world.World
	launcher Launcher
	interval time.Duration
	stopCh   chan struct{}
	log      zerolog.Logger
}

// New builds a Scheduler sweeping w every interval.
func New(w *world.World, launcher Launcher, interval time.Duration) *Scheduler {
	return &Scheduler{
		w:        w,
		launcher: launcher,
		interval: interval,
		stopCh:   make(chan struct{}),
		log:      logging.WithComponent("scheduler"),
	}
}

// Start begins sweeping in a background goroutine.
func (s *Scheduler) Start() {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Stop halts the sweeping goroutine.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

// Sweep performs one binding pass: for every due SCHEDULED service it
// binds the first available vehicle and launches that vehicle's worker
// in the same lock acquisition, so no other component can observe a
// vehicle as OCCUPIED with a zero WorkerPID (§4.4 step 3). It is
// exported so tests (and a lifecycle shutdown path that wants one last
// deterministic pass) can drive it without waiting on the ticker.
func (s *Scheduler) Sweep() {
	s.w.Lock()
	defer s.w.Unlock()

	now := s.w.SimulatedTime()
	for _, svc := range s.w.Services() {
		if svc.Status != world.ServiceScheduled || svc.ScheduledTime > now {
			continue
		}
		v := s.w.FirstAvailableVehicle()
		if v == nil {
			break
		}
		s.w.Bind(svc, v)
		if err := s.launcher.Launch(v, svc); err != nil {
			s.log.Error().
				Err(err).
				Int("service_id", svc.ID).
				Int("vehicle_id", v.ID).
				Msg("failed to launch vehicle worker")
		}
	}
}
