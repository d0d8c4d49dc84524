//go:build unix

// Package transport implements the client-facing half of the Transport
// Layer of §4.1: the single inbound request endpoint shared by every
// client process, and the per-client reply endpoint. Per-vehicle
// telemetry endpoints are handled through internal/ipc directly, by
// internal/supervisor and internal/lifecycle (create/recreate) and
// internal/telemetry (open/read).
package transport

import (
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/gutierrez-fleet/dispatchd/internal/config"
	"github.com/gutierrez-fleet/dispatchd/internal/ipc"
	"github.com/gutierrez-fleet/dispatchd/internal/logging"
	"github.com/gutierrez-fleet/dispatchd/internal/wire"
)

// Inbound owns the controller's single named inbound request endpoint
// and fans decoded records out onto Requests — a shared channel with one
// reader (the Dispatcher) standing in for the many independent client
// writers §2 describes.
type Inbound struct {
	path     string
	f        *os.File
	Requests chan wire.Request
}

// NewInbound builds an Inbound over path with a buffered Requests channel.
func NewInbound(path string, bufSize int) *Inbound {
	return &Inbound{path: path, Requests: make(chan wire.Request, bufSize)}
}

// Open creates the endpoint if needed and opens it read-write, so the
// reader never observes a zero-writer EOF (§4.1).
func (in *Inbound) Open() error {
	if err := ipc.EnsureFIFO(in.path); err != nil {
		return err
	}
	f, err := ipc.OpenReadWrite(in.path)
	if err != nil {
		return err
	}
	in.f = f
	return nil
}

// Run blocks, decoding fixed-size request records and forwarding each
// onto Requests, until Close is called. This is the "Dispatcher blocks
// on read from the inbound channel" blocking point of §5, one level
// below the Dispatcher itself: Run is meant to be started in its own
// goroutine and the Dispatcher instead blocks on a channel receive.
func (in *Inbound) Run() {
	log := logging.WithComponent("transport")
	buf := make([]byte, wire.RequestSize)
	for {
		n, err := io.ReadFull(in.f, buf)
		if err != nil {
			if errors.Is(err, os.ErrClosed) {
				close(in.Requests)
				return
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				continue
			}
			log.Warn().Err(err).Msg("inbound read failed, dropping record")
			continue
		}
		if n != wire.RequestSize {
			log.Warn().Int("bytes", n).Msg("framing error: short read, dropping record")
			continue
		}
		req, err := wire.DecodeRequest(buf)
		if err != nil {
			log.Warn().Err(err).Msg("framing error: dropping malformed record")
			continue
		}
		in.Requests <- req
	}
}

// Close closes the inbound endpoint's file descriptor, unblocking a
// pending Run and causing it to close Requests.
func (in *Inbound) Close() error {
	if in.f == nil {
		return nil
	}
	return in.f.Close()
}

// Unlink removes the inbound endpoint from the filesystem.
func (in *Inbound) Unlink() error {
	return ipc.RemoveFIFO(in.path)
}

// ReplySender writes Reply records to per-client reply endpoints. A
// missing client endpoint is logged and swallowed (§4.1): the request
// that triggered the reply is still considered handled.
type ReplySender struct{}

// Send opens the reply endpoint for pid, writes reply, and closes it.
func (ReplySender) Send(pid int32, reply wire.Reply) {
	log := logging.WithComponent("transport")
	path := config.ClientPipePath(pid)

	// O_NONBLOCK makes the open fail (ENXIO) instead of hanging when the
	// endpoint exists but its client no longer holds it open.
	f, err := os.OpenFile(path, os.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		log.Warn().Err(err).Int32("client_pid", pid).Msg("client disappeared, reply dropped")
		return
	}
	defer f.Close()

	b, err := wire.EncodeReply(reply)
	if err != nil {
		log.Error().Err(err).Msg("encode reply")
		return
	}
	if _, err := f.Write(b); err != nil {
		log.Warn().Err(err).Int32("client_pid", pid).Msg("write reply failed")
	}
}
