// Package wire implements the fixed-size binary records exchanged between
// clients and the dispatch controller (§6 of the design: inbound request
// record and reply record). Each record is written and read as a single
// atomic unit; a short read is a framing error, never a partial decode.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	nameBytes = 50
	dataBytes = 256
	msgBytes  = 256

	// RequestSize is the on-wire size of a Request record in bytes.
	RequestSize = 4 + nameBytes + 4 + dataBytes
	// ReplySize is the on-wire size of a Reply record in bytes.
	ReplySize = 4 + msgBytes
)

// RequestType enumerates the inbound request kinds of §6.
type RequestType int32

const (
	Login RequestType = iota
	Ride
	Cancel
	Consult
	Terminate
)

func (t RequestType) String() string {
	switch t {
	case Login:
		return "LOGIN"
	case Ride:
		return "RIDE"
	case Cancel:
		return "CANCEL"
	case Consult:
		return "CONSULT"
	case Terminate:
		return "TERMINATE"
	default:
		return "UNKNOWN"
	}
}

// Request is the decoded form of an inbound client record.
type Request struct {
	ClientPID  int32
	ClientName string
	Type       RequestType
	Data       string
}

// Reply is the decoded form of a controller->client response record.
type Reply struct {
	Success bool
	Message string
}

// ShutdownMessage is the reserved reply text a client must treat as an
// immediate, unconditional instruction to exit (§6).
const ShutdownMessage = "SERVER_SHUTDOWN"

type rawRequest struct {
	ClientPID  int32
	ClientName [nameBytes]byte
	Type       int32
	Data       [dataBytes]byte
}

type rawReply struct {
	Success int32
	Message [msgBytes]byte
}

// EncodeRequest serializes r into a fixed RequestSize-byte record.
func EncodeRequest(r Request) ([]byte, error) {
	var raw rawRequest
	raw.ClientPID = r.ClientPID
	if err := putCString(raw.ClientName[:], r.ClientName); err != nil {
		return nil, fmt.Errorf("wire: client name: %w", err)
	}
	raw.Type = int32(r.Type)
	if err := putCString(raw.Data[:], r.Data); err != nil {
		return nil, fmt.Errorf("wire: data: %w", err)
	}
	buf := bytes.NewBuffer(make([]byte, 0, RequestSize))
	if err := binary.Write(buf, binary.LittleEndian, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRequest parses a RequestSize-byte record. A buffer of the wrong
// length is a framing error and must be dropped by the caller.
func DecodeRequest(b []byte) (Request, error) {
	if len(b) != RequestSize {
		return Request{}, fmt.Errorf("wire: framing error: got %d bytes, want %d", len(b), RequestSize)
	}
	var raw rawRequest
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &raw); err != nil {
		return Request{}, err
	}
	return Request{
		ClientPID:  raw.ClientPID,
		ClientName: cString(raw.ClientName[:]),
		Type:       RequestType(raw.Type),
		Data:       cString(raw.Data[:]),
	}, nil
}

// EncodeReply serializes r into a fixed ReplySize-byte record.
func EncodeReply(r Reply) ([]byte, error) {
	var raw rawReply
	if r.Success {
		raw.Success = 1
	}
	if err := putCString(raw.Message[:], r.Message); err != nil {
		return nil, fmt.Errorf("wire: message: %w", err)
	}
	buf := bytes.NewBuffer(make([]byte, 0, ReplySize))
	if err := binary.Write(buf, binary.LittleEndian, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeReply parses a ReplySize-byte record.
func DecodeReply(b []byte) (Reply, error) {
	if len(b) != ReplySize {
		return Reply{}, fmt.Errorf("wire: framing error: got %d bytes, want %d", len(b), ReplySize)
	}
	var raw rawReply
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &raw); err != nil {
		return Reply{}, err
	}
	return Reply{
		Success: raw.Success != 0,
		Message: cString(raw.Message[:]),
	}, nil
}

func putCString(dst []byte, s string) error {
	if len(s) >= len(dst) {
		return fmt.Errorf("value %q exceeds %d bytes", s, len(dst)-1)
	}
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
