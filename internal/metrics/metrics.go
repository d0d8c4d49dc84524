// Package metrics exposes a Prometheus /metrics endpoint over World
// State, sampled on a ticker independent of the request hot path,
// mirroring the Collector shape of the fleet-orchestration codebase this
// project draws its ambient stack from.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gutierrez-fleet/dispatchd/internal/world"
)

var (
	VehiclesByAvailability = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_vehicles_total",
			Help: "Number of vehicles by availability (available, occupied).",
		},
		[]string{"availability"},
	)

	ServicesByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_services_total",
			Help: "Number of non-terminal services by status (scheduled, in_progress).",
		},
		[]string{"status"},
	)

	ClientsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_clients_total",
			Help: "Number of logged-in clients by status (waiting, on_trip).",
		},
		[]string{"status"},
	)

	SimulatedTimeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_simulated_time_seconds",
			Help: "Current simulated-time counter, in seconds.",
		},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_requests_total",
			Help: "Total number of inbound requests by type and result.",
		},
		[]string{"type", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		VehiclesByAvailability,
		ServicesByStatus,
		ClientsByStatus,
		SimulatedTimeSeconds,
		RequestsTotal,
	)
}

// Collector samples a World on a ticker and updates the gauges above.
type Collector struct {
	w        *world.World
	interval time.Duration
	stopCh   chan struct{}
}

// NewCollector builds a Collector sampling w every interval.
func NewCollector(w *world.World, interval time.Duration) *Collector {
	return &Collector{w: w, interval: interval, stopCh: make(chan struct{})}
}

// Start begins sampling in a background goroutine.
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts the sampling goroutine.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.w.Lock()
	defer c.w.Unlock()

	var available, occupied float64
	for _, v := range c.w.Vehicles() {
		if v.Availability == world.VehicleAvailable {
			available++
		} else {
			occupied++
		}
	}
	VehiclesByAvailability.WithLabelValues("available").Set(available)
	VehiclesByAvailability.WithLabelValues("occupied").Set(occupied)

	var scheduled, inProgress float64
	for _, s := range c.w.Services() {
		switch s.Status {
		case world.ServiceScheduled:
			scheduled++
		case world.ServiceInProgress:
			inProgress++
		}
	}
	ServicesByStatus.WithLabelValues("scheduled").Set(scheduled)
	ServicesByStatus.WithLabelValues("in_progress").Set(inProgress)

	var waiting, onTrip float64
	for _, cl := range c.w.Clients() {
		if cl.Status == world.ClientOnTrip {
			onTrip++
		} else {
			waiting++
		}
	}
	ClientsByStatus.WithLabelValues("waiting").Set(waiting)
	ClientsByStatus.WithLabelValues("on_trip").Set(onTrip)

	SimulatedTimeSeconds.Set(float64(c.w.SimulatedTime()))
}

// Serve starts an HTTP server exposing /metrics on addr and blocks until
// ctx is cancelled, mirroring the controller's admin-port pattern: a
// plain net/http listener entirely separate from the named-pipe
// transport used for client/vehicle traffic.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
