// Package config layers the dispatch controller's runtime configuration:
// cobra flags override environment variables, which override the
// defaults below, following the defaults-then-bind pattern used across
// the viper-based configuration packages this project draws on.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultFleetSize is N from §3 when NVEICULOS is unset or invalid.
	DefaultFleetSize = 10
	// MaxClients bounds the Client table (§4.2 LOGIN "Servidor cheio").
	MaxClients = 10
	// MaxServices bounds the Service table (§4.2 RIDE "table full").
	MaxServices = 50

	DefaultServerPipe  = "/tmp/server_pipe"
	DefaultMetricsAddr = ":9090"

	DefaultTickInterval      = time.Second
	DefaultTelemetryInterval = 50 * time.Millisecond
)

// ClientPipeFormat and VehiclePipeFormat are fmt.Sprintf templates for
// per-client and per-vehicle endpoint paths. They are variables, not
// constants, so tests can redirect endpoints into a temporary directory
// instead of the real /tmp.
var (
	ClientPipeFormat  = "/tmp/cli_%d"
	VehiclePipeFormat = "/tmp/veic_%d"
)

// Config is the resolved runtime configuration for the controller.
type Config struct {
	FleetSize         int
	ServerPipe        string
	MetricsAddr       string
	TickInterval      time.Duration
	TelemetryInterval time.Duration
	LogLevel          string
	LogFormat         string
}

// SetDefaults installs the default values onto v, so that any value left
// unset by flags or environment variables still resolves sanely.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("fleet_size", DefaultFleetSize)
	v.SetDefault("server_pipe", DefaultServerPipe)
	v.SetDefault("metrics_addr", DefaultMetricsAddr)
	v.SetDefault("tick_interval", DefaultTickInterval)
	v.SetDefault("telemetry_interval", DefaultTelemetryInterval)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

// New resolves a Config from v, binding the NVEICULOS environment
// variable (§6) alongside the dispatchd-prefixed ones. A nil v builds a
// fresh viper.Viper with only env vars and defaults in play.
func New(v *viper.Viper) *Config {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvPrefix("dispatchd")
	v.AutomaticEnv()
	_ = v.BindEnv("fleet_size", "NVEICULOS")

	fleetSize := v.GetInt("fleet_size")
	if fleetSize <= 0 {
		fleetSize = DefaultFleetSize
	}

	return &Config{
		FleetSize:         fleetSize,
		ServerPipe:        v.GetString("server_pipe"),
		MetricsAddr:       v.GetString("metrics_addr"),
		TickInterval:      v.GetDuration("tick_interval"),
		TelemetryInterval: v.GetDuration("telemetry_interval"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
	}
}

// ClientPipePath returns the per-client reply endpoint path for pid.
func ClientPipePath(pid int32) string {
	return fmt.Sprintf(ClientPipeFormat, pid)
}

// VehiclePipePath returns the per-vehicle telemetry endpoint path for id.
func VehiclePipePath(id int) string {
	return fmt.Sprintf(VehiclePipeFormat, id)
}
