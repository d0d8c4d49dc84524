//go:build unix

// Package telemetry implements the Telemetry Demux of §4.6: a single
// goroutine polling every vehicle's non-blocking telemetry endpoint,
// applying each decoded record to World State, and replying to the
// owning client when a trip starts, completes, or is cancelled.
package telemetry

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gutierrez-fleet/dispatchd/internal/config"
	"github.com/gutierrez-fleet/dispatchd/internal/ipc"
	"github.com/gutierrez-fleet/dispatchd/internal/logging"
	"github.com/gutierrez-fleet/dispatchd/internal/wire"
	"github.com/gutierrez-fleet/dispatchd/internal/world"
)

// Replier delivers a reply to a client, identified by PID.
type Replier interface {
	Send(pid int32, reply wire.Reply)
}

// Demux polls every vehicle's telemetry endpoint and applies what it
// reads to World State.
type Demux struct {
	w        *world.World
	replier  Replier
	interval time.Duration
	readers  map[int]*os.File
	log      zerolog.Logger
}

// NewDemux builds a Demux over w, idling interval between passes that
// find no data on any endpoint.
func NewDemux(w *world.World, replier Replier, interval time.Duration) *Demux {
	return &Demux{
		w:        w,
		replier:  replier,
		interval: interval,
		readers:  make(map[int]*os.File),
		log:      logging.WithComponent("telemetry"),
	}
}

// Run polls until stop is closed, sleeping interval whenever a pass finds
// no data on any vehicle's endpoint (§4.6: "absence is normal").
func (d *Demux) Run(stop <-chan struct{}) {
	buf := make([]byte, 512)
	for {
		select {
		case <-stop:
			d.closeAll()
			return
		default:
		}

		if !d.pass(buf) {
			select {
			case <-time.After(d.interval):
			case <-stop:
				d.closeAll()
				return
			}
		}
	}
}

// pass attempts one non-blocking read from every vehicle's endpoint and
// reports whether any endpoint produced data.
func (d *Demux) pass(buf []byte) bool {
	hasData := false
	for id := 1; id <= d.w.FleetSize(); id++ {
		f, ok := d.readers[id]
		if !ok {
			opened, err := ipc.OpenReadNonblock(config.VehiclePipePath(id))
			if err != nil {
				continue
			}
			d.readers[id] = opened
			f = opened
		}

		n, err := ipc.ReadNonblock(f, buf)
		if err != nil {
			f.Close()
			delete(d.readers, id)
			continue
		}
		if n == 0 {
			continue
		}
		hasData = true
		d.processChunk(id, string(buf[:n]))
	}
	return hasData
}

func (d *Demux) processChunk(vehicleID int, chunk string) {
	for _, line := range strings.Split(chunk, "\n") {
		if line == "" {
			continue
		}
		rec, ok := ParseRecord(line)
		if !ok {
			d.log.Warn().Int("vehicle_id", vehicleID).Str("line", line).Msg("dropping malformed telemetry record")
			continue
		}
		d.apply(vehicleID, rec)
	}
}

func (d *Demux) apply(vehicleID int, rec Record) {
	d.w.Lock()
	defer d.w.Unlock()

	switch rec.Type {
	case TripStarted:
		d.applyTripStarted(rec)
	case Progress:
		d.applyProgress(vehicleID, rec)
	case Distance:
		d.applyDistance(vehicleID, rec)
	case Completed, Cancelled:
		d.applyTerminal(vehicleID, rec)
	}
}

func (d *Demux) applyTripStarted(rec Record) {
	s := d.w.ServiceByID(rec.ServiceID)
	if s == nil {
		return
	}
	d.replier.Send(s.ClientPID, wire.Reply{Success: true, Message: fmt.Sprintf("Viagem iniciada! Veículo %d a caminho.", rec.VehicleID)})
}

func (d *Demux) applyProgress(vehicleID int, rec Record) {
	percent, err := strconv.Atoi(rec.Payload)
	if err != nil {
		return
	}
	if v := d.w.VehicleByID(vehicleID); v != nil {
		v.ProgressPercent = percent
	}
}

func (d *Demux) applyDistance(vehicleID int, rec Record) {
	km, err := strconv.ParseFloat(rec.Payload, 64)
	if err != nil {
		return
	}
	v := d.w.VehicleByID(vehicleID)
	if v == nil {
		return
	}
	prev := v.TotalKM
	v.TotalKM = km
	d.log.Debug().
		Int("vehicle_id", vehicleID).
		Float64("delta_km", km-prev).
		Float64("total_km", km).
		Msg("distance update")
}

// applyTerminal handles COMPLETED and CANCELLED. It is idempotent: a
// service already in a terminal state (the demux raced an admin
// cancellation, or read the same record twice off a slow pipe) is a
// silent no-op rather than an error (§3 invariant 7, §4.6).
func (d *Demux) applyTerminal(vehicleID int, rec Record) {
	s := d.w.ServiceByID(rec.ServiceID)
	if s == nil || s.Status.Terminal() {
		return
	}

	if rec.Type == Completed {
		s.Status = world.ServiceCompleted
	} else {
		s.Status = world.ServiceCancelled
	}

	if v := d.w.VehicleByID(vehicleID); v != nil {
		d.w.Release(s, v)
	}

	if rec.Type == Completed {
		d.replier.Send(s.ClientPID, wire.Reply{
			Success: true,
			Message: fmt.Sprintf("Viagem concluída! Percorridos %.1f km.", s.DistanceKM),
		})
	} else {
		d.replier.Send(s.ClientPID, wire.Reply{
			Success: true,
			Message: fmt.Sprintf("Viagem cancelada. Serviço ID %d.", s.ID),
		})
	}

	d.closeReader(vehicleID)
	_ = ipc.RemoveFIFO(config.VehiclePipePath(vehicleID))
}

func (d *Demux) closeReader(id int) {
	if f, ok := d.readers[id]; ok {
		f.Close()
		delete(d.readers, id)
	}
}

func (d *Demux) closeAll() {
	for id, f := range d.readers {
		f.Close()
		delete(d.readers, id)
	}
}
