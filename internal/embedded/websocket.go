package embedded

import "github.com/gorilla/websocket"

// WebSocketTransport carries the same framed messages as
// StdioTransport but over a long-lived gorilla/websocket connection, for
// a host that keeps one compiler process running as a network-addressable
// sidecar instead of spawning a fresh one per compile. Each protocol
// message is sent as exactly one binary WebSocket frame, so no
// length-prefix is needed on the wire here -- the transport's own
// framing already delimits messages.
type WebSocketTransport struct {
	conn  *websocket.Conn
	write chan []byte
	done  chan struct{}
}

func NewWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	t := &WebSocketTransport{conn: conn, write: make(chan []byte, 16), done: make(chan struct{})}
	go t.writeLoop()
	return t
}

// writeLoop serializes writes onto one goroutine, matching the
// teacher's own single-writer discipline in runService (concurrent
// writers on one connection otherwise interleave frames).
func (t *WebSocketTransport) writeLoop() {
	for {
		select {
		case message := <-t.write:
			_ = t.conn.WriteMessage(websocket.BinaryMessage, message)
		case <-t.done:
			return
		}
	}
}

func (t *WebSocketTransport) Send(message []byte) error {
	select {
	case t.write <- message:
		return nil
	case <-t.done:
		return websocket.ErrCloseSent
	}
}

func (t *WebSocketTransport) Recv() ([]byte, error) {
	_, message, err := t.conn.ReadMessage()
	return message, err
}

func (t *WebSocketTransport) Close() error {
	close(t.done)
	return t.conn.Close()
}
