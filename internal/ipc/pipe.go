//go:build unix

// Package ipc manages the named-pipe endpoints of §4.1 and §6: the
// inbound request FIFO, the per-client reply FIFOs, and the per-vehicle
// telemetry FIFOs. golang.org/x/sys/unix backs FIFO creation because the
// standard library's os package has no mkfifo equivalent.
package ipc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// FIFOMode is the permission bits the original controller used (0666).
const FIFOMode = 0666

// EnsureFIFO creates a FIFO at path if one does not already exist. An
// EEXIST error is not an error: a leftover endpoint from a previous run
// is reused, matching controller.c's "errno != EEXIST" check.
func EnsureFIFO(path string) error {
	if err := unix.Mkfifo(path, FIFOMode); err != nil && err != unix.EEXIST {
		return fmt.Errorf("ipc: create fifo %s: %w", path, err)
	}
	return nil
}

// RecreateFIFO unlinks any stale endpoint at path and creates a fresh
// one, matching launch_vehicle's "unlink then mkfifo" sequence (§4.5
// step a-b) so a new trip never reads a previous trip's buffered bytes.
func RecreateFIFO(path string) error {
	_ = unix.Unlink(path)
	if err := unix.Mkfifo(path, FIFOMode); err != nil {
		return fmt.Errorf("ipc: recreate fifo %s: %w", path, err)
	}
	return nil
}

// RemoveFIFO unlinks path, ignoring a not-exist error.
func RemoveFIFO(path string) error {
	if err := unix.Unlink(path); err != nil && err != unix.ENOENT {
		return fmt.Errorf("ipc: unlink fifo %s: %w", path, err)
	}
	return nil
}

// OpenReadWrite opens path in read-write mode. The reader-keeps-it-open
// trick from §4.1 ("the inbound endpoint must survive connection churn")
// relies on O_RDWR: a FIFO opened O_RDONLY sees EOF whenever the last
// writer closes, but a reader that also holds a write descriptor on the
// same FIFO never observes a zero-writer state.
func OpenReadWrite(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("ipc: open %s rdwr: %w", path, err)
	}
	return f, nil
}

// OpenWriteOnly opens path write-only, for telemetry or request writes.
// The open blocks until some process has the FIFO open for reading; it
// returns an error only when the open itself fails (for example, the
// path does not exist).
func OpenWriteOnly(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("ipc: open %s wronly: %w", path, err)
	}
	return f, nil
}

// OpenReadNonblock attempts a non-blocking read-only open of path. The
// caller is expected to treat any error as "not yet available" per
// §4.6's "Absence is normal" and simply retry on the next demux pass.
func OpenReadNonblock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ReadNonblock reads up to len(buf) bytes from a non-blocking reader. It
// treats EAGAIN/EWOULDBLOCK (no data currently available) as a clean
// (0, nil) rather than an error, so a demux loop can distinguish "no
// data yet" from "the pipe is gone" (io.EOF once no writer remains).
// The read goes through the raw descriptor because os.File.Read would
// park in the runtime poller on EAGAIN instead of returning.
func ReadNonblock(f *os.File, buf []byte) (int, error) {
	rc, err := f.SyscallConn()
	if err != nil {
		return 0, err
	}
	var n int
	var rerr error
	if err := rc.Read(func(fd uintptr) bool {
		n, rerr = syscall.Read(int(fd), buf)
		return true
	}); err != nil {
		return 0, err
	}
	if rerr != nil {
		if errors.Is(rerr, syscall.EAGAIN) || errors.Is(rerr, syscall.EWOULDBLOCK) {
			return 0, nil
		}
		return 0, rerr
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}
