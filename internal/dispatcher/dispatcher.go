// Package dispatcher implements the Request Dispatcher of §4.2: the sole
// consumer of inbound requests, the sole writer to World State on behalf
// of clients, and the source of every synchronous reply.
package dispatcher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gutierrez-fleet/dispatchd/internal/config"
	"github.com/gutierrez-fleet/dispatchd/internal/ids"
	"github.com/gutierrez-fleet/dispatchd/internal/logging"
	"github.com/gutierrez-fleet/dispatchd/internal/metrics"
	"github.com/gutierrez-fleet/dispatchd/internal/wire"
	"github.com/gutierrez-fleet/dispatchd/internal/world"
)

// Replier delivers a reply to a client, identified by PID. Implementations
// must not block indefinitely; a missing client is expected and must be
// logged and swallowed rather than propagated.
type Replier interface {
	Send(pid int32, reply wire.Reply)
}

// Dispatcher serializes every client-originated transaction through a
// single goroutine (§5): it is the only component that mutates World
// State on behalf of clients, so it needs no internal synchronization
// beyond the World's own lock.
type Dispatcher struct {
	w       *world.World
	replier Replier
	log     zerolog.Logger
}

// New builds a Dispatcher over w, sending replies through replier.
func New(w *world.World, replier Replier) *Dispatcher {
	return &Dispatcher{w: w, replier: replier, log: logging.WithComponent("dispatcher")}
}

// Run consumes reqs until the channel is closed. Each request is handled
// to completion — World mutation and reply — before the next is read, the
// ordering guarantee §4.2 and §5 both rely on.
func (d *Dispatcher) Run(reqs <-chan wire.Request) {
	for req := range reqs {
		d.handle(req)
	}
}

func (d *Dispatcher) handle(req wire.Request) {
	cid := ids.NewCorrelationID()
	log := d.log.With().
		Str("correlation_id", cid).
		Str("request_type", req.Type.String()).
		Int32("client_pid", req.ClientPID).
		Logger()

	d.w.Lock()
	defer d.w.Unlock()

	switch req.Type {
	case wire.Login:
		d.handleLogin(req, log)
	case wire.Ride:
		d.handleRide(req, log)
	case wire.Cancel:
		d.handleCancel(req, log)
	case wire.Consult:
		d.handleConsult(req, log)
	case wire.Terminate:
		d.handleTerminate(req, log)
	default:
		log.Warn().Msg("unknown request type, dropping")
	}
}

func (d *Dispatcher) handleLogin(req wire.Request, log zerolog.Logger) {
	if d.w.ClientByName(req.ClientName) != nil {
		d.reject(req.ClientPID, "login", "Username em uso", log)
		return
	}
	if d.w.ClientCount() >= config.MaxClients {
		d.reject(req.ClientPID, "login", "Servidor cheio", log)
		return
	}
	d.w.AddClient(req.ClientPID, req.ClientName)
	d.accept(req.ClientPID, "login", "Bem-vindo!", log)
}

func (d *Dispatcher) handleRide(req wire.Request, log zerolog.Logger) {
	fields := strings.Fields(req.Data)
	if len(fields) != 3 {
		d.reject(req.ClientPID, "ride", "Formato inválido. Use: agendar <hora> <local> <distancia>", log)
		return
	}
	hour, errHour := strconv.Atoi(fields[0])
	origin := fields[1]
	distance, errDist := strconv.ParseFloat(fields[2], 64)
	if errHour != nil || errDist != nil || distance <= 0 {
		d.reject(req.ClientPID, "ride", "Formato inválido. Use: agendar <hora> <local> <distancia>", log)
		return
	}
	if d.w.ServiceCount() >= config.MaxServices {
		d.reject(req.ClientPID, "ride", "Limite de serviços atingido", log)
		return
	}
	if hour < d.w.SimulatedTime() {
		msg := fmt.Sprintf("Hora inválida. Deve ser no futuro (hora atual é %s)", formatHMS(d.w.SimulatedTime()))
		d.reject(req.ClientPID, "ride", msg, log)
		return
	}
	if d.w.ClientHasNonTerminalService(req.ClientPID) {
		d.reject(req.ClientPID, "ride", "Já tem uma viagem agendada ou em curso. Aguarde a conclusão.", log)
		return
	}

	s := d.w.AddService(req.ClientPID, req.ClientName, hour, origin, distance)
	msg := fmt.Sprintf("Serviço agendado com ID %d para %s", s.ID, formatHMS(hour))
	d.accept(req.ClientPID, "ride", msg, log.With().Int("service_id", s.ID).Logger())
}

func (d *Dispatcher) handleCancel(req wire.Request, log zerolog.Logger) {
	id, err := strconv.Atoi(strings.TrimSpace(req.Data))
	if err != nil {
		d.reject(req.ClientPID, "cancel", "Formato inválido. Use: cancelar <id>", log)
		return
	}

	if id == 0 {
		n := 0
		for _, s := range d.w.Services() {
			if s.ClientPID == req.ClientPID && s.Status == world.ServiceScheduled {
				s.Status = world.ServiceCancelled
				n++
			}
		}
		d.accept(req.ClientPID, "cancel", fmt.Sprintf("%d serviço(s) agendado(s) cancelado(s)", n), log)
		return
	}

	s := d.w.ServiceByID(id)
	if s == nil || s.ClientPID != req.ClientPID {
		d.reject(req.ClientPID, "cancel", "Serviço não encontrado ou não pertence a si", log)
		return
	}
	if s.Status != world.ServiceScheduled {
		d.reject(req.ClientPID, "cancel", "Serviço não pode ser cancelado (já em curso ou concluído)", log)
		return
	}
	s.Status = world.ServiceCancelled
	d.accept(req.ClientPID, "cancel", "Serviço cancelado com sucesso", log.With().Int("service_id", s.ID).Logger())
}

func (d *Dispatcher) handleConsult(req wire.Request, log zerolog.Logger) {
	var b strings.Builder
	n := 0
	for _, s := range d.w.Services() {
		if s.ClientPID != req.ClientPID {
			continue
		}
		if s.Status != world.ServiceScheduled && s.Status != world.ServiceInProgress {
			continue
		}
		status := "AGENDADO"
		if s.Status == world.ServiceInProgress {
			status = "EM CURSO"
		}
		fmt.Fprintf(&b, "ID:%d %s %s (%.1fkm) %s\n", s.ID, formatHMS(s.ScheduledTime), s.Origin, s.DistanceKM, status)
		n++
	}
	if n == 0 {
		d.accept(req.ClientPID, "consult", "Não tem serviços agendados", log)
		return
	}
	d.accept(req.ClientPID, "consult", strings.TrimRight(b.String(), "\n"), log)
}

func (d *Dispatcher) handleTerminate(req wire.Request, log zerolog.Logger) {
	c := d.w.ClientByPID(req.ClientPID)
	if c == nil {
		return
	}
	if c.Status == world.ClientOnTrip {
		d.reject(req.ClientPID, "terminate", "Não pode sair. Está em viagem!", log)
		return
	}

	cancelled := 0
	for _, s := range d.w.Services() {
		if s.ClientPID == req.ClientPID && s.Status == world.ServiceScheduled {
			s.Status = world.ServiceCancelled
			cancelled++
		}
	}
	d.w.RemoveClient(req.ClientPID)
	d.accept(req.ClientPID, "terminate", "Até breve!", log.With().Int("cancelled_services", cancelled).Logger())
}

func (d *Dispatcher) accept(pid int32, reqType, msg string, log zerolog.Logger) {
	d.reply(pid, true, msg)
	metrics.RequestsTotal.WithLabelValues(reqType, "accepted").Inc()
	log.Info().Str("reply", msg).Msg("request accepted")
}

func (d *Dispatcher) reject(pid int32, reqType, msg string, log zerolog.Logger) {
	d.reply(pid, false, msg)
	metrics.RequestsTotal.WithLabelValues(reqType, "rejected").Inc()
	log.Info().Str("reply", msg).Msg("request rejected")
}

func (d *Dispatcher) reply(pid int32, success bool, msg string) {
	d.replier.Send(pid, wire.Reply{Success: success, Message: truncate(msg, 255)})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatHMS(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
