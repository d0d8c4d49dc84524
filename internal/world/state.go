// Package world holds the dispatch controller's shared mutable state:
// the Client, Vehicle, and Service tables of §3, guarded by a single
// mutex. Every other component (dispatcher, scheduler, supervisor,
// telemetry demux, admin query) coordinates exclusively through a World,
// acquiring its lock for the duration of a transaction that may span
// more than one table — the same coarse-locking shape as the original
// design (§5: "fine-grained locking is explicitly not required").
//
// Methods on World never take the lock themselves: callers must bracket
// every use with Lock/Unlock, because most real transactions (binding a
// service to a vehicle, cancelling a trip) mutate the Client, Vehicle,
// and Service tables together and must be observed atomically.
package world

import "sync"

// ClientStatus is the lifecycle status of a logged-in client.
type ClientStatus int

const (
	ClientWaiting ClientStatus = iota
	ClientOnTrip
)

// VehicleAvailability reflects whether a vehicle can be bound to a service.
type VehicleAvailability int

const (
	VehicleAvailable VehicleAvailability = iota
	VehicleOccupied
)

// VehicleActivity reflects whether a vehicle's worker process is alive.
type VehicleActivity int

const (
	VehicleInactive VehicleActivity = iota
	VehicleActive
)

// ServiceStatus is the lifecycle status of a requested ride (§3).
type ServiceStatus int

const (
	ServiceScheduled ServiceStatus = iota
	ServiceInProgress
	ServiceCompleted
	ServiceCancelled
)

// Terminal reports whether s is a sink state (§3 invariant 7).
func (s ServiceStatus) Terminal() bool {
	return s == ServiceCompleted || s == ServiceCancelled
}

// NoVehicle / NoService are the sentinel "unassigned" values, matching the
// original's -1 convention translated to Go's zero-meaning-valid space:
// vehicle and service ids are strictly positive (§3), so 0 means "none".
const (
	NoVehicle = 0
	NoService = 0
)

// Client is an entry in the Client table (§3).
type Client struct {
	PID    int32
	Name   string
	Status ClientStatus
}

// Vehicle is an entry in the fixed-size Vehicle pool (§3). Vehicles are
// created once at startup and rebound across trips; they are never
// removed from the table.
type Vehicle struct {
	ID              int
	Availability    VehicleAvailability
	Activity        VehicleActivity
	ProgressPercent int
	BoundServiceID  int
	WorkerPID       int
	TotalKM         float64
}

// Service is an entry in the append-only Service table (§3). Once a
// Service reaches a terminal status it is never mutated again
// (invariant 7); services are never deleted, only appended.
type Service struct {
	ID              int
	ClientPID       int32
	ClientName      string
	ScheduledTime   int
	Origin          string
	Destination     string
	DistanceKM      float64
	AssignedVehicle int
	Status          ServiceStatus
}

// World is the single shared-state container described above.
type World struct {
	mu sync.Mutex

	clients []*Client
	vehicles []*Vehicle
	services []*Service

	nextServiceID int
	simulatedTime int

	fleetSize int
}

// New builds a World with fleetSize vehicles numbered 1..fleetSize,
// matching init_vehicles() in the original controller.
func New(fleetSize int) *World {
	w := &World{
		nextServiceID: 1,
		fleetSize:     fleetSize,
	}
	w.vehicles = make([]*Vehicle, fleetSize)
	for i := 0; i < fleetSize; i++ {
		w.vehicles[i] = &Vehicle{
			ID:              i + 1,
			Availability:    VehicleAvailable,
			Activity:        VehicleInactive,
			BoundServiceID:  NoService,
		}
	}
	return w
}

// Lock acquires the World's mutex. Every externally observable
// transaction (§3 invariants) happens between a Lock and its Unlock.
func (w *World) Lock() { w.mu.Lock() }

// Unlock releases the World's mutex.
func (w *World) Unlock() { w.mu.Unlock() }

// FleetSize returns the configured, fixed number of vehicles.
func (w *World) FleetSize() int { return w.fleetSize }

// SimulatedTime returns the current simulated-time counter in seconds.
// Caller must hold the lock.
func (w *World) SimulatedTime() int { return w.simulatedTime }

// AdvanceTime increments simulated_time by one second (§4.3).
// Caller must hold the lock.
func (w *World) AdvanceTime() int {
	w.simulatedTime++
	return w.simulatedTime
}

// ClientByPID returns the client with the given pid, or nil.
// Caller must hold the lock.
func (w *World) ClientByPID(pid int32) *Client {
	for _, c := range w.clients {
		if c.PID == pid {
			return c
		}
	}
	return nil
}

// ClientByName returns the client with the given display name, or nil.
// Caller must hold the lock.
func (w *World) ClientByName(name string) *Client {
	for _, c := range w.clients {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Clients returns the live client table in login order. Caller must hold
// the lock; the returned slice aliases internal storage and must be
// treated as read-only by the caller.
func (w *World) Clients() []*Client { return w.clients }

// ClientCount returns the number of logged-in clients.
// Caller must hold the lock.
func (w *World) ClientCount() int { return len(w.clients) }

// AddClient appends a new WAITING client. Caller must hold the lock and
// must have already checked for name collisions and table capacity
// (§4.2 LOGIN).
func (w *World) AddClient(pid int32, name string) *Client {
	c := &Client{PID: pid, Name: name, Status: ClientWaiting}
	w.clients = append(w.clients, c)
	return c
}

// RemoveClient deletes the client with the given pid, preserving the
// relative order of the remaining clients. Caller must hold the lock.
func (w *World) RemoveClient(pid int32) {
	for i, c := range w.clients {
		if c.PID == pid {
			w.clients = append(w.clients[:i], w.clients[i+1:]...)
			return
		}
	}
}

// Vehicles returns the fixed vehicle table in id order. Caller must hold
// the lock; the returned slice aliases internal storage.
func (w *World) Vehicles() []*Vehicle { return w.vehicles }

// VehicleByID returns the vehicle with the given id, or nil.
// Caller must hold the lock.
func (w *World) VehicleByID(id int) *Vehicle {
	if id < 1 || id > len(w.vehicles) {
		return nil
	}
	return w.vehicles[id-1]
}

// FirstAvailableVehicle returns the lowest-id AVAILABLE vehicle, or nil
// if the fleet is fully occupied (§4.4 step 2: "first AVAILABLE vehicle
// by id, stable tie-break"). Caller must hold the lock.
func (w *World) FirstAvailableVehicle() *Vehicle {
	for _, v := range w.vehicles {
		if v.Availability == VehicleAvailable {
			return v
		}
	}
	return nil
}

// Services returns the full (append-only) service history in creation
// order. Caller must hold the lock; the returned slice aliases internal
// storage.
func (w *World) Services() []*Service { return w.services }

// ServiceByID returns the service with the given id, or nil.
// Caller must hold the lock.
func (w *World) ServiceByID(id int) *Service {
	for _, s := range w.services {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// ServiceCount returns the number of services ever created (including
// terminal ones), used against MaxServices (§4.2 RIDE).
// Caller must hold the lock.
func (w *World) ServiceCount() int { return len(w.services) }

// ClientHasNonTerminalService reports whether pid already owns a
// SCHEDULED or IN_PROGRESS service (§3 invariant 5).
// Caller must hold the lock.
func (w *World) ClientHasNonTerminalService(pid int32) bool {
	for _, s := range w.services {
		if s.ClientPID == pid && !s.Status.Terminal() {
			return true
		}
	}
	return false
}

// AddService appends a new SCHEDULED service with the next strictly
// increasing id (§3 invariant 8) and returns it. Caller must hold the
// lock and must have already validated capacity, timing, and ownership
// (§4.2 RIDE).
func (w *World) AddService(pid int32, name string, scheduledTime int, origin string, distanceKM float64) *Service {
	s := &Service{
		ID:              w.nextServiceID,
		ClientPID:       pid,
		ClientName:      name,
		ScheduledTime:   scheduledTime,
		Origin:          origin,
		DistanceKM:      distanceKM,
		AssignedVehicle: NoVehicle,
		Status:          ServiceScheduled,
	}
	w.nextServiceID++
	w.services = append(w.services, s)
	return s
}

// Bind transitions s from SCHEDULED to IN_PROGRESS on v, and the owning
// client to ON_TRIP (§4.4 step 3). Caller must hold the lock and must
// have verified s.Status == ServiceScheduled and v.Availability ==
// VehicleAvailable.
func (w *World) Bind(s *Service, v *Vehicle) {
	s.AssignedVehicle = v.ID
	s.Status = ServiceInProgress
	v.Availability = VehicleOccupied
	v.BoundServiceID = s.ID
	if c := w.ClientByPID(s.ClientPID); c != nil {
		c.Status = ClientOnTrip
	}
}

// Release resets a vehicle to its idle state after a trip ends, and
// restores the owning client to WAITING (§4.5, §4.6 COMPLETED/CANCELLED).
// Caller must hold the lock.
func (w *World) Release(s *Service, v *Vehicle) {
	if c := w.ClientByPID(s.ClientPID); c != nil {
		c.Status = ClientWaiting
	}
	v.Availability = VehicleAvailable
	v.Activity = VehicleInactive
	v.ProgressPercent = 0
	v.BoundServiceID = NoService
	v.WorkerPID = 0
	v.TotalKM = 0
}

// TotalActiveKM sums total_km over every vehicle. Release zeroes a
// vehicle's total_km when its trip ends, so the sum reflects only the
// fleet's in-flight trips, not cumulative lifetime distance (§9).
// Caller must hold the lock.
func (w *World) TotalActiveKM() float64 {
	var total float64
	for _, v := range w.vehicles {
		total += v.TotalKM
	}
	return total
}
