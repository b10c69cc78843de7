package embedded

import (
	"encoding/binary"
	"io"
)

// StdioTransport frames messages over a pair of streams (normally
// os.Stdin/os.Stdout) exactly the way the teacher's cmd/esbuild
// service.go does: a 4-byte little-endian length prefix followed by
// that many bytes, read in a growable buffer so a message split across
// two Read calls is reassembled before being handed to the Dispatcher.
type StdioTransport struct {
	r      io.Reader
	w      io.Writer
	c      io.Closer
	buffer []byte
	stream []byte
}

func NewStdioTransport(r io.Reader, w io.Writer, c io.Closer) *StdioTransport {
	return &StdioTransport{r: r, w: w, c: c, buffer: make([]byte, 4096)}
}

func (t *StdioTransport) Send(message []byte) error {
	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, uint32(len(message)))
	if _, err := t.w.Write(header); err != nil {
		return err
	}
	_, err := t.w.Write(message)
	return err
}

func (t *StdioTransport) Recv() ([]byte, error) {
	for {
		if message, rest, ok := readLengthPrefixed(t.stream); ok {
			t.stream = rest
			return message, nil
		}
		n, err := t.r.Read(t.buffer)
		if n > 0 {
			t.stream = append(t.stream, t.buffer[:n]...)
		}
		if err != nil {
			return nil, err
		}
	}
}

func (t *StdioTransport) Close() error {
	if t.c == nil {
		return nil
	}
	return t.c.Close()
}

func readLengthPrefixed(b []byte) (message, rest []byte, ok bool) {
	if len(b) < 4 {
		return nil, b, false
	}
	length := binary.LittleEndian.Uint32(b)
	b = b[4:]
	if uint32(len(b)) < length {
		return nil, b, false
	}
	return b[:length], b[length:], true
}
