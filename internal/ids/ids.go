// Package ids generates correlation identifiers used to tie one inbound
// request to the dispatcher log lines it produces; the scheduler and
// telemetry demux do not log them. It is not a source of domain identity: client
// identity is a PID, vehicle identity is a small integer, and service
// identity is a monotonically increasing counter (see internal/world).
package ids

import "github.com/google/uuid"

// NewCorrelationID returns a new random identifier suitable for a
// "correlation_id" structured-log field.
func NewCorrelationID() string {
	return uuid.NewString()
}
