//go:build unix

// Package supervisor owns the lifecycle of per-trip vehicle worker
// processes (§4.5): forking the worker, recreating its telemetry
// endpoint, and delivering a cancellation signal to an in-progress trip.
package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/gutierrez-fleet/dispatchd/internal/config"
	"github.com/gutierrez-fleet/dispatchd/internal/ipc"
	"github.com/gutierrez-fleet/dispatchd/internal/logging"
	"github.com/gutierrez-fleet/dispatchd/internal/world"
)

// VehicleBinary is the worker executable launched for every bound
// service. It is a package variable so tests and alternate deployment
// layouts can point it at a stub.
var VehicleBinary = "dispatchd-vehicle"

// Supervisor launches and tracks vehicle worker processes.
type Supervisor struct {
	log zerolog.Logger
}

// New builds a Supervisor.
func New() *Supervisor {
	return &Supervisor{log: logging.WithComponent("supervisor")}
}

// Launch recreates vehicle v's telemetry endpoint and forks a worker
// process to drive service s to completion (§4.5 steps a-c). The caller
// must already have bound s to v, and must call Launch with the World
// lock still held: Launch records the forked worker's activity and pid
// onto v itself, so its World-State write has to happen inside the same
// transaction as the bind, not after the lock is released.
func (sup *Supervisor) Launch(v *world.Vehicle, s *world.Service) error {
	path := config.VehiclePipePath(v.ID)
	if err := ipc.RecreateFIFO(path); err != nil {
		return fmt.Errorf("supervisor: recreate telemetry fifo: %w", err)
	}

	cmd := exec.Command(VehicleBinary,
		"--vehicle-id", fmt.Sprint(v.ID),
		"--service-id", fmt.Sprint(s.ID),
		"--client-pid", fmt.Sprint(s.ClientPID),
		"--origin", s.Origin,
		"--distance-km", fmt.Sprintf("%f", s.DistanceKM),
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		_ = ipc.RemoveFIFO(path)
		return fmt.Errorf("supervisor: start worker: %w", err)
	}

	v.Activity = world.VehicleActive
	v.WorkerPID = cmd.Process.Pid

	sup.log.Info().
		Int("vehicle_id", v.ID).
		Int("service_id", s.ID).
		Int("worker_pid", v.WorkerPID).
		Msg("launched vehicle worker")

	go sup.reap(cmd, v.ID)
	return nil
}

// reap waits on the worker so it never becomes a zombie. Observing the
// trip's actual outcome is the telemetry demux's job, via the worker's
// COMPLETED/CANCELLED record, not this goroutine's.
func (sup *Supervisor) reap(cmd *exec.Cmd, vehicleID int) {
	if err := cmd.Wait(); err != nil {
		sup.log.Warn().Err(err).Int("vehicle_id", vehicleID).Msg("vehicle worker exited with error")
	}
}

// Cancel delivers a cancellation signal to the worker bound to v. Callers
// must hold the World lock: Cancel reads v.WorkerPID, which Release
// zeroes out from under a terminating trip. Signaling an already-exited
// process returns ESRCH, which Cancel treats as "already gone" rather
// than an error: this is the reconciliation path for an admin
// cancellation racing a worker's own COMPLETED record (§4.5, §4.6).
func (sup *Supervisor) Cancel(v *world.Vehicle) error {
	if v.WorkerPID == 0 {
		return nil
	}
	err := syscall.Kill(v.WorkerPID, syscall.SIGUSR1)
	if err != nil && err != syscall.ESRCH {
		return fmt.Errorf("supervisor: signal worker pid %d: %w", v.WorkerPID, err)
	}
	return nil
}
