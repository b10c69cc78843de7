// Package embedded implements spec section 4.7's embedded-protocol
// dispatcher: request/response framing, id allocation, and the two
// transports ("cmd/sassgo --service" default pipes, and a long-lived
// WebSocket sidecar) that carry it. The framing and single-writer
// discipline are grounded directly on the teacher's
// cmd/esbuild/service.go stdio loop; the payloads it frames are the
// internal/embedded/proto message types instead of the teacher's own
// string-array request / byte-map response shape.
package embedded

import (
	"encoding/binary"
	"sync"

	"github.com/sassgo/sassgo/internal/embedded/proto"
	"github.com/sassgo/sassgo/internal/sasserr"
)

// Transport is anything that can exchange whole, already-framed
// messages with the other end of the protocol. StdioTransport and
// WebSocketTransport are the two implementations; Dispatcher doesn't
// care which one it's given.
type Transport interface {
	Send(message []byte) error
	Recv() (message []byte, err error)
	Close() error
}

// Handler answers an incoming request payload with a response payload
// (or an error, which the Dispatcher turns into a PARSE/PARAMS/INTERNAL
// failure per spec section 4.7).
type Handler func(payload []byte) (response []byte, err error)

// Dispatcher multiplexes requests and responses over one Transport. It
// reuses the lowest currently-free request id rather than allocating
// monotonically, so a long-running WebSocket sidecar compiling many
// files back to back doesn't grow an ever-increasing id space the way
// the teacher's own spawned-per-build stdio process never needed to
// worry about.
type Dispatcher struct {
	transport Transport
	handler   Handler

	mu      sync.Mutex
	pending map[uint32]chan frameResult
	nextID  uint32
	freeIDs []uint32

	writeMu sync.Mutex
}

type frameResult struct {
	payload []byte
	err     error
}

func NewDispatcher(transport Transport, handler Handler) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		handler:   handler,
		pending:   make(map[uint32]chan frameResult),
	}
}

// allocateID returns the lowest id not currently awaiting a response,
// reusing an id freed by a completed call before minting a new one.
func (d *Dispatcher) allocateID() uint32 {
	if n := len(d.freeIDs); n > 0 {
		lowest := 0
		for i, id := range d.freeIDs {
			if id < d.freeIDs[lowest] {
				lowest = i
			}
		}
		id := d.freeIDs[lowest]
		d.freeIDs[lowest] = d.freeIDs[n-1]
		d.freeIDs = d.freeIDs[:n-1]
		return id
	}
	id := d.nextID
	d.nextID++
	return id
}

func (d *Dispatcher) releaseID(id uint32) {
	d.freeIDs = append(d.freeIDs, id)
}

// frameHeader is id<<1 with the low bit marking request (0) vs
// response (1), matching the teacher's own stdio_protocol.go encoding
// exactly, now wrapping a protobuf-encoded payload instead of a
// string-array/byte-map request/response pair.
func encodeFrame(id uint32, isResponse bool, payload []byte) []byte {
	header := id << 1
	if isResponse {
		header |= 1
	}
	frame := make([]byte, 4, 4+len(payload))
	binary.LittleEndian.PutUint32(frame, header)
	return append(frame, payload...)
}

func decodeFrame(message []byte) (id uint32, isResponse bool, payload []byte, ok bool) {
	if len(message) < 4 {
		return 0, false, nil, false
	}
	header := binary.LittleEndian.Uint32(message)
	return header >> 1, header&1 != 0, message[4:], true
}

// Call sends payload as a request and blocks until the matching
// response frame arrives (or the transport closes).
func (d *Dispatcher) Call(payload []byte) ([]byte, error) {
	d.mu.Lock()
	id := d.allocateID()
	ch := make(chan frameResult, 1)
	d.pending[id] = ch
	d.mu.Unlock()

	if err := d.send(id, false, payload); err != nil {
		d.mu.Lock()
		delete(d.pending, id)
		d.releaseID(id)
		d.mu.Unlock()
		return nil, err
	}

	result := <-ch
	d.mu.Lock()
	d.releaseID(id)
	d.mu.Unlock()
	return result.payload, result.err
}

func (d *Dispatcher) send(id uint32, isResponse bool, payload []byte) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	return d.transport.Send(encodeFrame(id, isResponse, payload))
}

// Run reads frames from the transport until it closes, completing
// pending Call()s on a response frame and invoking Handler on a
// request frame (each handled on its own goroutine, mirroring the
// teacher's per-message goroutine dispatch in runService).
func (d *Dispatcher) Run() error {
	for {
		message, err := d.transport.Recv()
		if err != nil {
			d.failAllPending(err)
			return err
		}
		id, isResponse, payload, ok := decodeFrame(message)
		if !ok {
			continue
		}
		if isResponse {
			d.mu.Lock()
			ch, found := d.pending[id]
			delete(d.pending, id)
			d.mu.Unlock()
			if found {
				ch <- frameResult{payload: payload}
			}
			continue
		}
		go d.handleRequest(id, payload)
	}
}

func (d *Dispatcher) handleRequest(id uint32, payload []byte) {
	response, err := d.handler(payload)
	if err != nil {
		response = (&proto.ErrorResponse{Kind: errorKindOf(err), Message: err.Error()}).Marshal()
	}
	_ = d.send(id, true, response)
}

func (d *Dispatcher) failAllPending(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, ch := range d.pending {
		ch <- frameResult{err: err}
		delete(d.pending, id)
	}
}

// errorKindOf maps a Handler's failure to spec section 4.7's
// PARSE/PARAMS/INTERNAL taxonomy, defaulting unclassified Go errors to
// INTERNAL the way an unexpected panic-turned-error would be reported.
func errorKindOf(err error) proto.ErrorKind {
	se, ok := err.(*sasserr.Error)
	if !ok {
		return proto.ErrorInternal
	}
	switch se.Kind {
	case sasserr.KindParse:
		return proto.ErrorParse
	case sasserr.KindUsage:
		return proto.ErrorParams
	default:
		return proto.ErrorInternal
	}
}
