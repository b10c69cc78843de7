package embedded

import (
	"errors"
	"testing"

	"github.com/sassgo/sassgo/internal/embedded/proto"
	"github.com/sassgo/sassgo/internal/sasserr"
)

// pipeTransport connects two Dispatchers in-process without any real
// stdio or network layer, standing in for StdioTransport/WebSocketTransport
// in tests the same way cache_test.go's countingImporter stands in for
// a real filesystem.
type pipeTransport struct {
	out  chan []byte
	in   chan []byte
	done chan struct{}
}

func newPipe() (a, b *pipeTransport) {
	c1, c2 := make(chan []byte, 16), make(chan []byte, 16)
	done := make(chan struct{})
	return &pipeTransport{out: c1, in: c2, done: done}, &pipeTransport{out: c2, in: c1, done: done}
}

func (p *pipeTransport) Send(message []byte) error {
	select {
	case p.out <- message:
		return nil
	case <-p.done:
		return errors.New("transport closed")
	}
}

func (p *pipeTransport) Recv() ([]byte, error) {
	select {
	case m := <-p.in:
		return m, nil
	case <-p.done:
		return nil, errors.New("transport closed")
	}
}

func (p *pipeTransport) Close() error {
	close(p.done)
	return nil
}

func TestDispatcherRoundTrip(t *testing.T) {
	clientSide, hostSide := newPipe()

	host := NewDispatcher(hostSide, func(payload []byte) ([]byte, error) {
		req, err := proto.UnmarshalCanonicalizeRequest(payload)
		if err != nil {
			return nil, err
		}
		return (&proto.CanonicalizeResponse{URL: "file://" + req.URL}).Marshal(), nil
	})
	go host.Run()
	defer hostSide.Close()

	client := NewDispatcher(clientSide, func([]byte) ([]byte, error) { return nil, nil })
	go client.Run()
	defer clientSide.Close()

	reqPayload := (&proto.CanonicalizeRequest{URL: "colors", FromImport: true}).Marshal()
	respPayload, err := client.Call(reqPayload)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	resp, err := proto.UnmarshalCanonicalizeResponse(respPayload)
	if err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.URL != "file://colors" {
		t.Errorf("got URL %q, want %q", resp.URL, "file://colors")
	}
}

func TestDispatcherPropagatesHostError(t *testing.T) {
	clientSide, hostSide := newPipe()

	host := NewDispatcher(hostSide, func(payload []byte) ([]byte, error) {
		return nil, sasserr.Usage("no importer registered")
	})
	go host.Run()
	defer hostSide.Close()

	client := NewDispatcher(clientSide, func([]byte) ([]byte, error) { return nil, nil })
	go client.Run()
	defer clientSide.Close()

	respPayload, err := client.Call((&proto.LoadRequest{URL: "missing"}).Marshal())
	if err != nil {
		t.Fatalf("call itself failed: %v", err)
	}
	errResp, err := proto.UnmarshalErrorResponse(respPayload)
	if err != nil {
		t.Fatalf("unmarshal error response failed: %v", err)
	}
	if errResp.Kind != proto.ErrorParams {
		t.Errorf("got kind %v, want ErrorParams", errResp.Kind)
	}
	if errResp.Message != "no importer registered" {
		t.Errorf("got message %q", errResp.Message)
	}
}

func TestDispatcherReusesFreedIDs(t *testing.T) {
	clientSide, hostSide := newPipe()
	host := NewDispatcher(hostSide, func(payload []byte) ([]byte, error) { return payload, nil })
	go host.Run()
	defer hostSide.Close()

	client := NewDispatcher(clientSide, func([]byte) ([]byte, error) { return nil, nil })
	go client.Run()
	defer clientSide.Close()

	for i := 0; i < 3; i++ {
		if _, err := client.Call([]byte("ping")); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}
	if len(client.freeIDs) == 0 {
		t.Errorf("expected at least one id to have been freed and reused across sequential calls")
	}
}
