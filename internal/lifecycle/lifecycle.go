//go:build unix

// Package lifecycle sequences startup and shutdown (§4.8): wiring every
// component to a shared World, opening the fixed set of named-pipe
// endpoints, running an admin REPL on stdin, and broadcasting a shutdown
// notice to every logged-in client before the process exits.
package lifecycle

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/gutierrez-fleet/dispatchd/internal/adminquery"
	"github.com/gutierrez-fleet/dispatchd/internal/clock"
	"github.com/gutierrez-fleet/dispatchd/internal/config"
	"github.com/gutierrez-fleet/dispatchd/internal/dispatcher"
	"github.com/gutierrez-fleet/dispatchd/internal/ipc"
	"github.com/gutierrez-fleet/dispatchd/internal/logging"
	"github.com/gutierrez-fleet/dispatchd/internal/metrics"
	"github.com/gutierrez-fleet/dispatchd/internal/scheduler"
	"github.com/gutierrez-fleet/dispatchd/internal/supervisor"
	"github.com/gutierrez-fleet/dispatchd/internal/telemetry"
	"github.com/gutierrez-fleet/dispatchd/internal/transport"
	"github.com/gutierrez-fleet/dispatchd/internal/wire"
	"github.com/gutierrez-fleet/dispatchd/internal/world"
)

// Controller owns every component's lifetime for one run of the
// dispatch server.
type Controller struct {
	cfg *config.Config
	w   *world.World

	inbound    *transport.Inbound
	replier    transport.ReplySender
	dispatch   *dispatcher.Dispatcher
	clk        *clock.Clock
	sched      *scheduler.Scheduler
	sup        *supervisor.Supervisor
	demux      *telemetry.Demux
	metricsCol *metrics.Collector

	log zerolog.Logger
}

// New builds a Controller from cfg. Call Run to start it.
func New(cfg *config.Config) *Controller {
	w := world.New(cfg.FleetSize)
	replier := transport.ReplySender{}
	sup := supervisor.New()

	c := &Controller{
		cfg:        cfg,
		w:          w,
		inbound:    transport.NewInbound(cfg.ServerPipe, 64),
		replier:    replier,
		dispatch:   dispatcher.New(w, replier),
		clk:        clock.New(w, cfg.TickInterval),
		sup:        sup,
		demux:      telemetry.NewDemux(w, replier, cfg.TelemetryInterval),
		metricsCol: metrics.NewCollector(w, cfg.TickInterval),
		log:        logging.WithComponent("lifecycle"),
	}
	c.sched = scheduler.New(w, sup, cfg.TickInterval)
	return c
}

// Run performs startup, blocks serving the controller, and runs shutdown
// when ctx is cancelled, a termination signal arrives, or the admin REPL
// receives "terminar".
func (c *Controller) Run(ctx context.Context) error {
	if err := c.startup(); err != nil {
		return err
	}
	defer c.shutdown()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go c.inbound.Run()
	go c.dispatch.Run(c.inbound.Requests)
	c.clk.Start()
	c.sched.Start()
	go c.demux.Run(ctx.Done())
	c.metricsCol.Start()

	metricsErrCh := make(chan error, 1)
	go func() { metricsErrCh <- metrics.Serve(ctx, c.cfg.MetricsAddr) }()

	replDone := make(chan struct{})
	go c.adminREPL(replDone)

	select {
	case <-ctx.Done():
		c.log.Info().Msg("shutdown requested via context")
	case <-sigCh:
		c.log.Info().Msg("shutdown requested via signal")
	case <-replDone:
		c.log.Info().Msg("shutdown requested via admin terminar")
	}

	return nil
}

func (c *Controller) startup() error {
	if err := c.inbound.Open(); err != nil {
		return fmt.Errorf("lifecycle: open inbound endpoint: %w", err)
	}
	for id := 1; id <= c.cfg.FleetSize; id++ {
		if err := ipc.RecreateFIFO(config.VehiclePipePath(id)); err != nil {
			return fmt.Errorf("lifecycle: create vehicle endpoint %d: %w", id, err)
		}
	}
	c.log.Info().Int("fleet_size", c.cfg.FleetSize).Str("server_pipe", c.cfg.ServerPipe).Msg("controller started")
	return nil
}

// shutdown broadcasts a shutdown notice to every logged-in client
// before tearing down endpoints, matching "terminar broadcasts
// SERVER_SHUTDOWN to every connected client" (§4.8, §9 supplemented
// behavior).
func (c *Controller) shutdown() {
	c.log.Info().Msg("shutting down")

	c.w.Lock()
	clients := append([]*world.Client(nil), c.w.Clients()...)
	c.w.Unlock()

	for _, cl := range clients {
		c.replier.Send(cl.PID, wire.Reply{Success: true, Message: wire.ShutdownMessage})
	}

	c.clk.Stop()
	c.sched.Stop()
	c.metricsCol.Stop()
	_ = c.inbound.Close()
	_ = c.inbound.Unlink()

	for id := 1; id <= c.cfg.FleetSize; id++ {
		_ = ipc.RemoveFIFO(config.VehiclePipePath(id))
	}

	c.log.Info().Msg("shutdown complete")
}

// adminREPL reads admin commands from stdin: listar, utiliz, frota, km,
// and hora are read-only projections (§4.7); cancelar <id|0> force-cancels
// a scheduled or in-progress service, matching cmd_cancelar in the
// original controller; terminar closes done to begin shutdown; anything
// else prints a short usage reminder, matching the original controller's
// "unknown admin command" help text (§9 supplemented behavior).
func (c *Controller) adminREPL(done chan<- struct{}) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "terminar":
			close(done)
			return
		case "listar", "utiliz", "frota", "km", "hora":
			c.w.Lock()
			out := c.runQuery(fields[0])
			c.w.Unlock()
			fmt.Println(out)
		case "cancelar":
			if len(fields) < 2 {
				fmt.Println("Uso: cancelar <id|0>")
				continue
			}
			fmt.Println(c.adminCancel(fields[1]))
		default:
			fmt.Println("Comando desconhecido. Use: listar, utiliz, frota, km, hora, cancelar, terminar")
		}
	}
}

func (c *Controller) runQuery(cmd string) string {
	switch cmd {
	case "listar":
		return adminquery.Listar(c.w)
	case "utiliz":
		return adminquery.Utiliz(c.w)
	case "frota":
		return adminquery.Frota(c.w)
	case "km":
		return adminquery.KM(c.w)
	case "hora":
		return adminquery.Hora(c.w)
	}
	return ""
}

// adminCancel force-cancels service id, or every non-terminal service
// when id is 0: it releases any bound vehicle, signals that vehicle's
// worker to stop, and replies to the owning client directly, mirroring
// cmd_cancelar in the original controller (original_source/controller.c).
// Unlike the client-facing CANCEL request (§4.2), which only ever touches
// a client's own SCHEDULED services, this reaches IN_PROGRESS trips too.
func (c *Controller) adminCancel(arg string) string {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return "Uso: cancelar <id|0>"
	}

	c.w.Lock()
	defer c.w.Unlock()

	var targets []*world.Service
	if id == 0 {
		for _, s := range c.w.Services() {
			if !s.Status.Terminal() {
				targets = append(targets, s)
			}
		}
	} else {
		s := c.w.ServiceByID(id)
		if s == nil || s.Status.Terminal() {
			return fmt.Sprintf("Serviço ID %d não encontrado ou já finalizado.", id)
		}
		targets = append(targets, s)
	}

	for _, s := range targets {
		if v := c.w.VehicleByID(s.AssignedVehicle); v != nil {
			if err := c.sup.Cancel(v); err != nil {
				c.log.Warn().Err(err).Int("vehicle_id", v.ID).Msg("failed to signal vehicle worker during admin cancel")
			}
			c.w.Release(s, v)
		}
		s.Status = world.ServiceCancelled
		c.replier.Send(s.ClientPID, wire.Reply{Success: true, Message: "Serviço cancelado"})
	}

	if id == 0 {
		return fmt.Sprintf("%d serviço(s) cancelado(s).", len(targets))
	}
	return fmt.Sprintf("Serviço ID %d cancelado.", id)
}
