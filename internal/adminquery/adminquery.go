// Package adminquery implements the read-only admin projections of §4.7:
// listar, utiliz, frota, km, and hora. Every function takes a locked
// World and returns a formatted string; none of them mutate state.
package adminquery

import (
	"fmt"
	"strings"

	"github.com/gutierrez-fleet/dispatchd/internal/world"
)

// Listar reports every non-terminal service: every SCHEDULED or
// IN_PROGRESS entry in the Service table. Caller must hold the World
// lock.
func Listar(w *world.World) string {
	var b strings.Builder
	var n int
	for _, s := range w.Services() {
		if s.Status.Terminal() {
			continue
		}
		n++
		status := "agendado"
		if s.Status == world.ServiceInProgress {
			status = "em curso"
		}
		fmt.Fprintf(&b, "Serviço %d: cliente %s, %s\n", s.ID, s.ClientName, status)
	}
	if n == 0 {
		return "Nenhum serviço agendado"
	}
	return strings.TrimRight(b.String(), "\n")
}

// Utiliz reports every logged-in client with its PID, name, and status
// (waiting or on a trip); it does not show the client's services.
// Caller must hold the World lock.
func Utiliz(w *world.World) string {
	clients := w.Clients()
	if len(clients) == 0 {
		return "Nenhum cliente ligado"
	}

	var b strings.Builder
	for _, c := range clients {
		status := "à espera"
		if c.Status == world.ClientOnTrip {
			status = "em viagem"
		}
		fmt.Fprintf(&b, "PID:%d %s (%s)\n", c.PID, c.Name, status)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Frota lists every vehicle with its availability and, when occupied,
// the service and progress it is driving. Caller must hold the World
// lock.
func Frota(w *world.World) string {
	var b strings.Builder
	for _, v := range w.Vehicles() {
		if v.Availability == world.VehicleAvailable {
			fmt.Fprintf(&b, "Veículo %d: disponível\n", v.ID)
			continue
		}
		fmt.Fprintf(&b, "Veículo %d: serviço %d, %d%% concluído, %.1f km percorridos\n",
			v.ID, v.BoundServiceID, v.ProgressPercent, v.TotalKM)
	}
	return strings.TrimRight(b.String(), "\n")
}

// KM reports the fleet's current in-flight distance total. Caller must
// hold the World lock.
func KM(w *world.World) string {
	return fmt.Sprintf("%.1f km percorridos (viagens em curso)", w.TotalActiveKM())
}

// Hora reports the simulated-time counter as HH:MM:SS. Caller must hold
// the World lock.
func Hora(w *world.World) string {
	total := w.SimulatedTime()
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
